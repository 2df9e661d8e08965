package observable

import "context"

// Observer receives change notifications for a source of type T.
// field names the attribute that changed.
type Observer[T any] interface {
	OnChange(ctx context.Context, source T, field string)
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc[T any] func(ctx context.Context, source T, field string)

func (f ObserverFunc[T]) OnChange(ctx context.Context, source T, field string) {
	f(ctx, source, field)
}
