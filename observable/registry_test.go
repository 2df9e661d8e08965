package observable_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/observable/config"
	"github.com/tailored-agentic-units/observable/observability"
	"github.com/tailored-agentic-units/observable/observable"
)

type subject struct {
	name string
}

// recorder logs every OnChange as "<observer>:<field>".
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.calls
	r.calls = nil
	return calls
}

func (r *recorder) observer(name string) observable.Observer[*subject] {
	return observable.ObserverFunc[*subject](func(ctx context.Context, s *subject, field string) {
		r.add(name + ":" + field)
	})
}

type captureObserver struct {
	mu     sync.Mutex
	events []observability.EventType
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event.Type)
}

func newRegistry(t *testing.T) *observable.Registry[*subject] {
	t.Helper()
	cfg := config.DefaultRegistryConfig()
	cfg.Name = "test-registry"
	r, err := observable.New[*subject](cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

// notifyWithin fails the test if Notify does not return, which would mean a
// callback deadlocked on the registry lock.
func notifyWithin(t *testing.T, r *observable.Registry[*subject], field string) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Notify(context.Background(), &subject{name: "s"}, field)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Notify did not return: deadlock in observer callback")
	}
}

func TestNew_UnknownObserver(t *testing.T) {
	cfg := config.DefaultRegistryConfig()
	cfg.Observer = "does-not-exist"

	_, err := observable.New[*subject](cfg)
	if !errors.Is(err, observability.ErrUnknownObserver) {
		t.Errorf("New() error = %v, want ErrUnknownObserver", err)
	}
}

func TestRegistry_NotifyInSubscriptionOrder(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	r.Subscribe(rec.observer("A"))
	r.Subscribe(rec.observer("B"))
	r.Subscribe(rec.observer("C"))

	r.Notify(context.Background(), &subject{}, "age")

	want := []string{"A:age", "B:age", "C:age"}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("notification order mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_NotifyOncePerPass(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	r.Subscribe(rec.observer("A"))
	r.Subscribe(rec.observer("B"))

	r.Notify(context.Background(), &subject{}, "age")
	r.Notify(context.Background(), &subject{}, "can_vote")

	want := []string{"A:age", "B:age", "A:can_vote", "B:can_vote"}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_NotifyEmpty(t *testing.T) {
	r := newRegistry(t)
	r.Notify(context.Background(), &subject{}, "age")

	if got := r.Metrics().Deliveries; got != 0 {
		t.Errorf("Deliveries = %d, want 0", got)
	}
}

func TestRegistry_SelfUnsubscribeDuringNotify(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	var self *observable.Subscription
	self = r.Subscribe(observable.ObserverFunc[*subject](func(ctx context.Context, s *subject, field string) {
		rec.add("A:" + field)
		r.Unsubscribe(self)
	}))
	r.Subscribe(rec.observer("B"))

	notifyWithin(t, r, "age")
	notifyWithin(t, r, "age")

	want := []string{"A:age", "B:age", "B:age"}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if self.Active() {
		t.Error("expected self-cancelled subscription to be inactive")
	}
}

func TestRegistry_UnsubscribeLaterObserverDuringNotify(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	var subB *observable.Subscription
	r.Subscribe(observable.ObserverFunc[*subject](func(ctx context.Context, s *subject, field string) {
		rec.add("A:" + field)
		r.Unsubscribe(subB)
	}))
	subB = r.Subscribe(rec.observer("B"))

	notifyWithin(t, r, "age")
	if diff := cmp.Diff([]string{"A:age"}, rec.take()); diff != "" {
		t.Errorf("first pass mismatch (-want +got):\n%s", diff)
	}

	notifyWithin(t, r, "age")
	if diff := cmp.Diff([]string{"A:age"}, rec.take()); diff != "" {
		t.Errorf("second pass mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_UnsubscribeEarlierObserverDuringNotify(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	subA := r.Subscribe(rec.observer("A"))
	r.Subscribe(observable.ObserverFunc[*subject](func(ctx context.Context, s *subject, field string) {
		rec.add("B:" + field)
		subA.Cancel()
	}))

	notifyWithin(t, r, "age")
	notifyWithin(t, r, "age")

	want := []string{"A:age", "B:age", "B:age"}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_UnsubscribeNoOps(t *testing.T) {
	r := newRegistry(t)
	other := newRegistry(t)
	rec := &recorder{}

	foreign := other.Subscribe(rec.observer("F"))
	sub := r.Subscribe(rec.observer("A"))

	tests := []struct {
		name string
		sub  *observable.Subscription
	}{
		{name: "nil subscription", sub: nil},
		{name: "foreign subscription", sub: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Unsubscribe(tt.sub)
		})
	}

	if !foreign.Active() {
		t.Error("foreign subscription was cancelled by the wrong registry")
	}

	r.Unsubscribe(sub)
	r.Unsubscribe(sub)
	sub.Cancel()

	var nilSub *observable.Subscription
	nilSub.Cancel()

	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0 after double unsubscribe", got)
	}

	r.Notify(context.Background(), &subject{}, "age")
	other.Notify(context.Background(), &subject{}, "age")

	if diff := cmp.Diff([]string{"F:age"}, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_DuplicateSubscription(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}
	obs := rec.observer("A")

	first := r.Subscribe(obs)
	second := r.Subscribe(obs)

	if first.ID() == second.ID() {
		t.Errorf("expected distinct subscription IDs, got %q twice", first.ID())
	}

	r.Notify(context.Background(), &subject{}, "age")
	if diff := cmp.Diff([]string{"A:age", "A:age"}, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	first.Cancel()
	r.Notify(context.Background(), &subject{}, "age")
	if diff := cmp.Diff([]string{"A:age"}, rec.take()); diff != "" {
		t.Errorf("calls mismatch after cancel (-want +got):\n%s", diff)
	}
}

func TestRegistry_ResubscribeAppendsNewEntry(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	subA := r.Subscribe(rec.observer("A"))
	r.Subscribe(rec.observer("B"))

	subA.Cancel()
	again := r.Subscribe(rec.observer("A"))

	if subA.Active() {
		t.Error("cancelled subscription became active again")
	}
	if !again.Active() {
		t.Error("expected new subscription to be active")
	}

	r.Notify(context.Background(), &subject{}, "age")
	if diff := cmp.Diff([]string{"B:age", "A:age"}, rec.take()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_NilObserver(t *testing.T) {
	r := newRegistry(t)

	if sub := r.Subscribe(nil); sub != nil {
		t.Errorf("Subscribe(nil) = %v, want nil", sub)
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestRegistry_Metrics(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	r.Subscribe(rec.observer("A"))
	subB := r.Subscribe(rec.observer("B"))
	r.Subscribe(rec.observer("C"))

	subB.Cancel()
	r.Notify(context.Background(), &subject{}, "age")
	r.Notify(context.Background(), &subject{}, "age")

	want := observable.MetricsSnapshot{
		Subscriptions: 2,
		Passes:        2,
		Deliveries:    4,
		Compacted:     1,
	}
	if diff := cmp.Diff(want, r.Metrics()); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_TelemetryEvents(t *testing.T) {
	capture := &captureObserver{}
	r := observable.NewWithObserver[*subject](config.DefaultRegistryConfig(), capture)
	rec := &recorder{}

	r.Subscribe(rec.observer("A"))
	subB := r.Subscribe(rec.observer("B"))
	subB.Cancel()
	r.Notify(context.Background(), &subject{}, "age")

	want := []observability.EventType{
		observable.EventSubscribe,
		observable.EventSubscribe,
		observable.EventUnsubscribe,
		observable.EventCompact,
		observable.EventNotify,
	}
	if diff := cmp.Diff(want, capture.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ConcurrentSubscribeThenNotify(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	var g errgroup.Group
	g.Go(func() error {
		r.Subscribe(rec.observer("A"))
		return nil
	})
	g.Go(func() error {
		r.Subscribe(rec.observer("B"))
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("subscribe goroutines failed: %v", err)
	}

	var notifier errgroup.Group
	notifier.Go(func() error {
		r.Notify(context.Background(), &subject{}, "age")
		return nil
	})
	if err := notifier.Wait(); err != nil {
		t.Fatalf("notify goroutine failed: %v", err)
	}

	counts := make(map[string]int)
	for _, call := range rec.take() {
		counts[call]++
	}
	want := map[string]int{"A:age": 1, "B:age": 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("delivery counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	const workers = 8
	const rounds = 50

	g, ctx := errgroup.WithContext(context.Background())
	for w := range workers {
		g.Go(func() error {
			for i := range rounds {
				sub := r.Subscribe(rec.observer(fmt.Sprintf("w%d-%d", w, i)))
				r.Notify(ctx, &subject{}, "age")
				if !sub.Active() {
					return fmt.Errorf("worker %d: subscription %d inactive before cancel", w, i)
				}
				sub.Cancel()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}

	r.Notify(context.Background(), &subject{}, "age")
	m := r.Metrics()
	if m.Compacted != workers*rounds {
		t.Errorf("Compacted = %d, want %d", m.Compacted, workers*rounds)
	}
	if m.Passes != workers*rounds+1 {
		t.Errorf("Passes = %d, want %d", m.Passes, workers*rounds+1)
	}
}

func TestSubscription_ID(t *testing.T) {
	r := newRegistry(t)
	rec := &recorder{}

	sub := r.Subscribe(rec.observer("A"))
	if sub.ID() == "" {
		t.Error("expected non-empty subscription ID")
	}

	var nilSub *observable.Subscription
	if nilSub.ID() != "" || nilSub.Active() {
		t.Error("nil subscription should have empty ID and be inactive")
	}
}
