// Package config centralises pool configuration helpers.
package config

import (
	"time"

	"github.com/coachpo/objpool/errs"
)

// IdleTimeout sentinel values, mirroring the pool's idle-eviction semantics.
const (
	// IdleNeverTimeout disables idle eviction entirely.
	IdleNeverTimeout time.Duration = -1
	// IdleAlwaysTimeout evicts an object the instant it is returned.
	IdleAlwaysTimeout time.Duration = 0
)

// idleScheduleOffset is the slack added on top of IdleTimeout when arming an
// eviction task, so the task observes LastReturnedAt as already elapsed by
// the time it runs.
const idleScheduleOffset = 100 * time.Millisecond

// PoolConfig contains the tunables recognized by ObjectPool.
type PoolConfig struct {
	// MaxPoolSize is the hard cap on live objects. Must be > 0.
	MaxPoolSize int
	// PollTimeout controls Borrow's wait behaviour: >0 blocks up to that
	// long, 0 never blocks, <0 blocks indefinitely.
	PollTimeout time.Duration
	// CreateRetryCount is the number of extra attempts after a failed
	// Manager.Create before Borrow gives up.
	CreateRetryCount int
	// IdleTimeout controls eviction: <0 never evicts, 0 evicts immediately
	// on return, >0 evicts after the object has been idle that long.
	IdleTimeout time.Duration
	// ValidateOnBorrow asks the Manager to validate an object before
	// handing it to a borrower.
	ValidateOnBorrow bool
	// ValidateOnReturn asks the Manager to validate an object before
	// re-pooling it.
	ValidateOnReturn bool
	// ScheduledThreadLifeTime bounds how long the idle-eviction worker
	// goroutine stays parked before exiting; it is re-spawned on demand.
	// <=0 keeps the worker alive for the lifetime of the pool.
	ScheduledThreadLifeTime time.Duration
}

// Default returns the default pool configuration: a single object, blocking
// borrow, no retries, and eviction disabled.
func Default() PoolConfig {
	return PoolConfig{
		MaxPoolSize:             1,
		PollTimeout:             -1,
		CreateRetryCount:        0,
		IdleTimeout:             IdleNeverTimeout,
		ValidateOnBorrow:        false,
		ValidateOnReturn:        false,
		ScheduledThreadLifeTime: 0,
	}
}

// Validate checks the configuration for internally-consistent values.
func (c PoolConfig) Validate() error {
	if c.MaxPoolSize <= 0 {
		return errs.New("pool", errs.CodeInvalid, errs.WithMessage("max pool size must not be zero or negative"))
	}
	if c.CreateRetryCount < 0 {
		return errs.New("pool", errs.CodeInvalid, errs.WithMessage("create retry count must not be negative"))
	}
	return nil
}

// EvictionDelay returns the delay to arm the idle-eviction task with after a
// Return, or false when IdleTimeout disables eviction.
func (c PoolConfig) EvictionDelay() (time.Duration, bool) {
	if c.IdleTimeout < 0 {
		return 0, false
	}
	return c.IdleTimeout + idleScheduleOffset, true
}

// IsAlwaysIdleTimeout reports whether every returned object is immediately
// eligible for eviction.
func (c PoolConfig) IsAlwaysIdleTimeout() bool {
	return c.IdleTimeout == IdleAlwaysTimeout
}

// IsNeverIdleTimeout reports whether idle eviction is disabled.
func (c PoolConfig) IsNeverIdleTimeout() bool {
	return c.IdleTimeout < IdleAlwaysTimeout
}

// Option mutates a PoolConfig when applied via Apply.
type Option func(*PoolConfig)

// Apply applies the provided Option set to a copy of the base PoolConfig.
func Apply(base PoolConfig, opts ...Option) PoolConfig {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithMaxPoolSize overrides the pool capacity.
func WithMaxPoolSize(size int) Option {
	return func(c *PoolConfig) {
		c.MaxPoolSize = size
	}
}

// WithPollTimeout overrides the borrow poll timeout.
func WithPollTimeout(timeout time.Duration) Option {
	return func(c *PoolConfig) {
		c.PollTimeout = timeout
	}
}

// WithCreateRetryCount overrides the number of creation retries.
func WithCreateRetryCount(count int) Option {
	return func(c *PoolConfig) {
		c.CreateRetryCount = count
	}
}

// WithIdleTimeout overrides the idle-eviction threshold.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *PoolConfig) {
		c.IdleTimeout = timeout
	}
}

// WithValidateOnBorrow toggles Manager.Validate calls on Borrow.
func WithValidateOnBorrow(enabled bool) Option {
	return func(c *PoolConfig) {
		c.ValidateOnBorrow = enabled
	}
}

// WithValidateOnReturn toggles Manager.Validate calls on Return.
func WithValidateOnReturn(enabled bool) Option {
	return func(c *PoolConfig) {
		c.ValidateOnReturn = enabled
	}
}

// WithScheduledThreadLifeTime overrides the idle-eviction worker's keep-alive.
func WithScheduledThreadLifeTime(lifetime time.Duration) Option {
	return func(c *PoolConfig) {
		c.ScheduledThreadLifeTime = lifetime
	}
}
