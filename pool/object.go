package pool

import (
	"context"
	"sync"
	"time"
)

type objectState int

const (
	stateNew objectState = iota
	stateBorrowed
	stateReturned
	stateInvalid
)

func (s objectState) String() string {
	switch s {
	case stateNew:
		return "NEW"
	case stateBorrowed:
		return "BORROWED"
	case stateReturned:
		return "RETURNED"
	case stateInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// PooledObject wraps a user resource with lifecycle state, timestamps, and a
// handle to its pending eviction task. T is constrained to comparable so the
// pool can key its bookkeeping map directly by the resource's own identity
// (for pointer-like T this is Go's native pointer equality) rather than by
// hashing any user-visible field.
type PooledObject[T comparable] struct {
	mu             sync.Mutex
	object         T
	state          objectState
	createdAt      time.Time
	lastBorrowedAt time.Time
	lastReturnedAt time.Time
	evictionTimer  *time.Timer
	pool           returner[T]
}

// returner is the narrow slice of ObjectPool a PooledObject needs for its
// Close convenience method, avoiding a hard dependency cycle in naming only
// (same package, but keeps the relationship explicit: object depends on a
// capability, not the concrete pool).
type returner[T comparable] interface {
	Return(ctx context.Context, obj T) error
}

func newPooledObject[T comparable](obj T) *PooledObject[T] {
	return &PooledObject[T]{
		object:    obj,
		state:     stateNew,
		createdAt: time.Now(),
	}
}

// Object returns the wrapped resource.
func (p *PooledObject[T]) Object() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.object
}

// IsValid reports whether the object has not been invalidated.
func (p *PooledObject[T]) IsValid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != stateInvalid
}

// IsBorrowed reports whether the object is currently checked out.
func (p *PooledObject[T]) IsBorrowed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateBorrowed
}

// CreatedAt returns when the object was constructed.
func (p *PooledObject[T]) CreatedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createdAt
}

// LastBorrowedAt returns the timestamp of the most recent borrow, or the
// zero time if the object has never been borrowed.
func (p *PooledObject[T]) LastBorrowedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastBorrowedAt
}

// LastReturnedAt returns the timestamp of the most recent return, or the
// zero time if the object has never been returned.
func (p *PooledObject[T]) LastReturnedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReturnedAt
}

func (p *PooledObject[T]) markBorrowed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = stateBorrowed
	p.lastBorrowedAt = time.Now()
}

func (p *PooledObject[T]) markReturned() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = stateReturned
	p.lastReturnedAt = time.Now()
}

func (p *PooledObject[T]) markInvalid() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = stateInvalid
}

func (p *PooledObject[T]) setPool(owner returner[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool = owner
}

// armEviction replaces the pending eviction timer, stopping any previous one
// first so a returned-then-returned-again object never leaks a stale timer.
func (p *PooledObject[T]) armEviction(timer *time.Timer) {
	p.mu.Lock()
	prev := p.evictionTimer
	p.evictionTimer = timer
	p.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
}

// cancelEviction stops and clears any pending eviction timer. Missing the
// race (the timer fires just after Stop returns false) is harmless: the
// eviction task double-checks idle state under the write lock before acting.
func (p *PooledObject[T]) cancelEviction() {
	p.mu.Lock()
	timer := p.evictionTimer
	p.evictionTimer = nil
	p.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

// Close is a scoped-acquisition convenience: it returns this object to its
// owning pool, so callers can write "acquire; defer obj.Close(ctx)" instead
// of holding the pool reference themselves.
func (p *PooledObject[T]) Close(ctx context.Context) error {
	p.mu.Lock()
	owner := p.pool
	obj := p.object
	p.mu.Unlock()
	if owner == nil {
		return nil
	}
	return owner.Return(ctx, obj)
}
