package observable

import (
	"sync/atomic"

	"github.com/google/uuid"
)

type canceler interface {
	cancel(sub *Subscription)
}

// Subscription is the registration token returned by Registry.Subscribe.
// It moves one way: active, then tombstoned by Cancel, then dropped from
// the registry on the next compaction.
type Subscription struct {
	id      string
	owner   canceler
	removed atomic.Bool
}

func newSubscription(owner canceler) *Subscription {
	return &Subscription{
		id:    uuid.Must(uuid.NewV7()).String(),
		owner: owner,
	}
}

// ID returns a unique identifier for logging and telemetry.
func (s *Subscription) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s != nil && !s.removed.Load()
}

// Cancel stops further notifications. It is equivalent to calling
// Unsubscribe on the owning registry and may be called from inside OnChange.
// Cancelling twice, or cancelling a nil Subscription, does nothing.
func (s *Subscription) Cancel() {
	if s == nil || s.owner == nil {
		return
	}
	s.owner.cancel(s)
}
