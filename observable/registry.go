package observable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tailored-agentic-units/observable/config"
	"github.com/tailored-agentic-units/observable/observability"
)

type entry[T any] struct {
	sub      *Subscription
	observer Observer[T]
}

// Registry holds the observers of a subject and notifies them in
// subscription order. The zero value is not usable; construct with New or
// NewWithObserver.
type Registry[T any] struct {
	name string

	entries []entry[T]
	mu      sync.Mutex

	logger   *slog.Logger
	observer observability.Observer
	metrics  *Metrics
}

// New creates a Registry from configuration, resolving the telemetry
// observer by name.
func New[T any](cfg config.RegistryConfig) (*Registry[T], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return NewWithObserver[T](cfg, observer), nil
}

// NewWithObserver creates a Registry with an explicit telemetry observer.
// A nil observer disables telemetry.
func NewWithObserver[T any](cfg config.RegistryConfig, observer observability.Observer) *Registry[T] {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry[T]{
		name:     cfg.Name,
		logger:   logger,
		observer: observer,
		metrics:  NewMetrics(),
	}
}

// Name returns the registry identifier used in logs and events.
func (r *Registry[T]) Name() string {
	return r.name
}

// Subscribe appends observer to the notification order and returns its
// token. A Subscribe that returns before a Notify starts is included in that
// pass. Subscribing a nil observer registers nothing and returns nil.
//
// Must not be called from inside OnChange on the same registry.
func (r *Registry[T]) Subscribe(observer Observer[T]) *Subscription {
	if observer == nil {
		return nil
	}

	sub := newSubscription(r)

	r.mu.Lock()
	compacted := r.compact()
	r.entries = append(r.entries, entry[T]{sub: sub, observer: observer})
	r.mu.Unlock()

	r.metrics.RecordSubscription(1)
	r.recordCompaction(context.Background(), compacted)

	r.logger.Debug(
		"observer subscribed",
		slog.String("registry", r.name),
		slog.String("subscription", sub.ID()),
	)
	r.emit(context.Background(), EventSubscribe, observability.LevelVerbose, map[string]any{
		"subscription": sub.ID(),
	})

	return sub
}

// Unsubscribe stops notifications for sub. The entry is tombstoned without
// taking the registry lock, so this is safe from inside OnChange; a pass in
// progress skips it from that point on. nil, already cancelled, and foreign
// subscriptions are ignored.
func (r *Registry[T]) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.owner != r {
		return
	}
	r.cancel(sub)
}

func (r *Registry[T]) cancel(sub *Subscription) {
	if !sub.removed.CompareAndSwap(false, true) {
		return
	}

	r.metrics.RecordSubscription(-1)

	r.logger.Debug(
		"observer unsubscribed",
		slog.String("registry", r.name),
		slog.String("subscription", sub.ID()),
	)
	r.emit(context.Background(), EventUnsubscribe, observability.LevelVerbose, map[string]any{
		"subscription": sub.ID(),
	})
}

// Notify calls OnChange on every live observer, in subscription order, on
// the calling goroutine. Tombstoned entries are skipped and compacted once
// the pass completes.
//
// OnChange runs with the registry lock held: an observer must not call
// Notify or Subscribe on the same registry. Doing so deadlocks.
func (r *Registry[T]) Notify(ctx context.Context, source T, field string) {
	delivered, compacted := r.deliver(ctx, source, field)

	r.metrics.RecordPass(delivered)
	r.recordCompaction(ctx, compacted)

	r.emit(ctx, EventNotify, observability.LevelVerbose, map[string]any{
		"field":     field,
		"delivered": delivered,
	})
}

func (r *Registry[T]) deliver(ctx context.Context, source T, field string) (delivered, compacted int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.sub.removed.Load() {
			continue
		}
		e.observer.OnChange(ctx, source, field)
		delivered++
	}

	return delivered, r.compact()
}

// compact drops tombstoned entries in place. Callers hold r.mu.
func (r *Registry[T]) compact() int {
	live := r.entries[:0]
	for _, e := range r.entries {
		if !e.sub.removed.Load() {
			live = append(live, e)
		}
	}

	removed := len(r.entries) - len(live)
	clear(r.entries[len(live):])
	r.entries = live
	return removed
}

func (r *Registry[T]) recordCompaction(ctx context.Context, compacted int) {
	if compacted == 0 {
		return
	}

	r.metrics.RecordCompacted(compacted)
	r.emit(ctx, EventCompact, observability.LevelVerbose, map[string]any{
		"removed": compacted,
	})
}

// Len returns the number of live subscriptions.
func (r *Registry[T]) Len() int {
	return int(r.metrics.Snapshot().Subscriptions)
}

// Metrics returns a snapshot of the registry counters.
func (r *Registry[T]) Metrics() MetricsSnapshot {
	return r.metrics.Snapshot()
}

func (r *Registry[T]) emit(ctx context.Context, eventType observability.EventType, level observability.Level, data map[string]any) {
	r.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    r.name,
		Data:      data,
	})
}
