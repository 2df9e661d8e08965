// Package observable provides a generic, goroutine-safe registry of change
// observers.
//
// A subject owns a Registry and delegates to it; no embedding or inheritance
// is required:
//
//	type Person struct {
//	    observers *observable.Registry[*Person]
//	    age       int
//	}
//
//	func (p *Person) SetAge(ctx context.Context, age int) {
//	    p.age = age
//	    p.observers.Notify(ctx, p, "age")
//	}
//
// # Subscriptions
//
// Subscribe returns a Subscription token. The token, not the observer value,
// identifies the registration, so the same observer may be subscribed more
// than once (and is then notified once per subscription):
//
//	sub := registry.Subscribe(observable.ObserverFunc[*Person](
//	    func(ctx context.Context, p *Person, field string) {
//	        fmt.Println(field, "changed")
//	    },
//	))
//	defer sub.Cancel()
//
// # Notification
//
// Notify delivers synchronously on the calling goroutine, in subscription
// order, while holding the registry lock. Consequently:
//
//   - Unsubscribe (or Subscription.Cancel) is safe from inside OnChange,
//     including an observer cancelling itself or one later in the pass.
//     Cancelled entries are tombstoned and skipped, then compacted once the
//     pass ends.
//   - Calling Notify or Subscribe on the same registry from inside OnChange
//     is a programming error and deadlocks.
//
// Notifications from one Notify call are never interleaved with those of
// another Notify call on the same registry.
package observable
