package pool

import "context"

// Manager is the external capability an ObjectPool consumes to create,
// validate, and dispose of the resources it wraps. Implementations own the
// concrete resource lifecycle (dialing a connection, pinging it, closing it)
// and never see pool-internal locking.
type Manager[T comparable] interface {
	// Create builds a new underlying resource.
	Create(ctx context.Context) (T, error)
	// Validate performs a cheap liveness check. A false return is treated the
	// same as an error: the object is invalidated.
	Validate(ctx context.Context, obj *PooledObject[T]) bool
	// Invalid disposes of a resource the pool has already removed from its
	// bookkeeping. Errors are logged and swallowed by the pool.
	Invalid(ctx context.Context, obj *PooledObject[T]) error
}
