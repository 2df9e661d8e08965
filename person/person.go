// Package person is a worked subject for the observable registry: a Person
// whose age changes are published to subscribed observers, together with
// two observers that react to them.
package person

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/observable/config"
	"github.com/tailored-agentic-units/observable/observable"
)

// Observed field names.
const (
	FieldAge     = "age"
	FieldCanVote = "can_vote"
)

// Person owns its observer registry for its whole lifetime.
type Person struct {
	id        string
	votingAge int

	// updates serializes SetAge calls; mu guards age for readers,
	// including observers running inside a notification.
	updates sync.Mutex
	mu      sync.Mutex
	age     int

	observers *observable.Registry[*Person]
}

// New creates a Person of the given age. The registry is built from
// cfg.Registry and the voting threshold from cfg.VotingAge.
func New(cfg config.Config, age int) (*Person, error) {
	registry, err := observable.New[*Person](cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create person registry: %w", err)
	}

	return &Person{
		id:        uuid.New().String(),
		votingAge: cfg.VotingAge,
		age:       age,
		observers: registry,
	}, nil
}

func (p *Person) ID() string {
	return p.id
}

func (p *Person) Age() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.age
}

func (p *Person) CanVote() bool {
	return p.Age() >= p.votingAge
}

// SetAge updates the age and notifies FieldAge, followed by FieldCanVote
// when the change crosses the voting threshold. Setting the current age
// notifies nothing.
//
// Both notifications of one update are delivered before any other SetAge
// on the same Person proceeds. Observers read Age and CanVote but must not
// call SetAge on the Person that notified them.
func (p *Person) SetAge(ctx context.Context, age int) {
	p.updates.Lock()
	defer p.updates.Unlock()

	p.mu.Lock()
	if p.age == age {
		p.mu.Unlock()
		return
	}
	oldCanVote := p.age >= p.votingAge
	p.age = age
	p.mu.Unlock()

	p.observers.Notify(ctx, p, FieldAge)
	if oldCanVote != (age >= p.votingAge) {
		p.observers.Notify(ctx, p, FieldCanVote)
	}
}

func (p *Person) Subscribe(observer observable.Observer[*Person]) *observable.Subscription {
	return p.observers.Subscribe(observer)
}

func (p *Person) Unsubscribe(sub *observable.Subscription) {
	p.observers.Unsubscribe(sub)
}

// Metrics exposes the counters of the Person's registry.
func (p *Person) Metrics() observable.MetricsSnapshot {
	return p.observers.Metrics()
}
