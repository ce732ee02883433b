package pool

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coachpo/objpool/lib/async"
)

// idleScheduler arms and runs per-object eviction tasks on a single worker,
// standing in for a Java ScheduledThreadPoolExecutor with corePoolSize=1:
// time.AfterFunc supplies the per-object timer, and the adapted lib/async
// bounded worker pool (workers=1) supplies the single execution thread the
// fired timers hand off to. No timer-wheel or delay-queue library appears
// anywhere in the example pack, so this composes stdlib and the teacher's
// own primitive rather than inventing a dependency that isn't there.
type idleScheduler[T comparable] struct {
	mu        sync.Mutex
	worker    *async.Pool
	keepAlive time.Duration
	idleTimer *time.Timer
	logger    *log.Logger
	evict     func(ctx context.Context, po *PooledObject[T])
}

func newIdleScheduler[T comparable](keepAlive time.Duration, logger *log.Logger, evict func(context.Context, *PooledObject[T])) *idleScheduler[T] {
	return &idleScheduler[T]{keepAlive: keepAlive, logger: logger, evict: evict}
}

// ensureWorker lazily (re-)spawns the single eviction worker, matching
// allowCoreThreadTimeOut: the worker is retired after scheduledThreadLifeTime
// of inactivity and respawned when the next armed eviction timer fires.
func (s *idleScheduler[T]) ensureWorker() (*async.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.worker != nil {
		s.armKeepAliveLocked()
		return s.worker, nil
	}
	w, err := async.NewPool(1, 64)
	if err != nil {
		return nil, err
	}
	s.worker = w
	s.armKeepAliveLocked()
	return w, nil
}

func (s *idleScheduler[T]) armKeepAliveLocked() {
	if s.keepAlive <= 0 {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.keepAlive, s.retireWorker)
}

func (s *idleScheduler[T]) retireWorker() {
	s.mu.Lock()
	w := s.worker
	s.worker = nil
	s.mu.Unlock()
	if w != nil {
		w.Close()
	}
}

// schedule arms a per-object eviction timer that, once it fires, submits the
// eviction task onto the single-worker queue.
func (s *idleScheduler[T]) schedule(po *PooledObject[T], delay time.Duration) {
	timer := time.AfterFunc(delay, func() {
		worker, err := s.ensureWorker()
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("idle scheduler: worker unavailable: %v", err)
			}
			return
		}
		if err := worker.Submit(context.Background(), func(ctx context.Context) error {
			s.evict(ctx, po)
			return nil
		}); err != nil && s.logger != nil {
			s.logger.Printf("idle scheduler: submit eviction task: %v", err)
		}
	})
	po.armEviction(timer)
}

// close retires the worker and stops the keep-alive timer. Safe to call more
// than once.
func (s *idleScheduler[T]) close() {
	s.mu.Lock()
	w := s.worker
	s.worker = nil
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.mu.Unlock()
	if w != nil {
		w.Close()
	}
}
