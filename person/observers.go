package person

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tailored-agentic-units/observable/observable"
)

// ConsoleObserver writes one line per change to w.
type ConsoleObserver struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

func (o *ConsoleObserver) OnChange(ctx context.Context, p *Person, field string) {
	var value any
	switch field {
	case FieldAge:
		value = p.Age()
	case FieldCanVote:
		value = p.CanVote()
	default:
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, "Person %s %s has changed to %v\n", p.ID(), field, value)
}

// TrafficAdministration warns about people below the driving age. Once a
// watched person reaches it, the administration reports so and drops its
// subscription from inside the notification.
type TrafficAdministration struct {
	drivingAge int

	mu      sync.Mutex
	w       io.Writer
	watched map[string]*observable.Subscription
}

func NewTrafficAdministration(drivingAge int, w io.Writer) *TrafficAdministration {
	return &TrafficAdministration{
		drivingAge: drivingAge,
		w:          w,
		watched:    make(map[string]*observable.Subscription),
	}
}

// Watch subscribes to p. Call it before p's age is updated concurrently.
func (t *TrafficAdministration) Watch(p *Person) *observable.Subscription {
	sub := p.Subscribe(t)

	t.mu.Lock()
	t.watched[p.ID()] = sub
	t.mu.Unlock()

	return sub
}

// Watching reports whether p is still watched.
func (t *TrafficAdministration) Watching(p *Person) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.watched[p.ID()]
	return ok
}

func (t *TrafficAdministration) OnChange(ctx context.Context, p *Person, field string) {
	if field != FieldAge {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if p.Age() < t.drivingAge {
		fmt.Fprintf(t.w, "Person %s is not old enough to drive\n", p.ID())
		return
	}

	fmt.Fprintf(t.w, "Person %s can drive; no longer watching\n", p.ID())
	if sub, ok := t.watched[p.ID()]; ok {
		p.Unsubscribe(sub)
		delete(t.watched, p.ID())
	}
}
