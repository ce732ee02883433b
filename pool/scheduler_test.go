package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIdleSchedulerRetiresWorkerAfterKeepAlive(t *testing.T) {
	s := newIdleScheduler[*fakeConn](30*time.Millisecond, nil, func(context.Context, *PooledObject[*fakeConn]) {})

	if _, err := s.ensureWorker(); err != nil {
		t.Fatalf("ensureWorker: %v", err)
	}
	s.mu.Lock()
	if s.worker == nil {
		s.mu.Unlock()
		t.Fatalf("expected worker to be spawned")
	}
	s.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		retired := s.worker == nil
		s.mu.Unlock()
		if retired {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.mu.Lock()
	retired := s.worker == nil
	s.mu.Unlock()
	if !retired {
		t.Fatalf("expected worker to retire after keep-alive elapsed")
	}
}

func TestIdleSchedulerRespawnsWorkerOnDemand(t *testing.T) {
	s := newIdleScheduler[*fakeConn](20*time.Millisecond, nil, func(context.Context, *PooledObject[*fakeConn]) {})

	first, err := s.ensureWorker()
	if err != nil {
		t.Fatalf("ensureWorker first: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		retired := s.worker == nil
		s.mu.Unlock()
		if retired {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.mu.Lock()
	retiredBeforeRespawn := s.worker == nil
	s.mu.Unlock()
	if !retiredBeforeRespawn {
		t.Fatalf("expected worker to have retired before requesting a respawn")
	}

	second, err := s.ensureWorker()
	if err != nil {
		t.Fatalf("ensureWorker respawn: %v", err)
	}
	if second == first {
		t.Fatalf("expected a freshly spawned worker after retirement")
	}
	s.close()
}

func TestIdleSchedulerScheduleRunsEvictionAfterRespawn(t *testing.T) {
	var ran atomic.Bool
	s := newIdleScheduler[*fakeConn](15*time.Millisecond, nil, func(context.Context, *PooledObject[*fakeConn]) {
		ran.Store(true)
	})

	if _, err := s.ensureWorker(); err != nil {
		t.Fatalf("ensureWorker: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		retired := s.worker == nil
		s.mu.Unlock()
		if retired {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	po := newPooledObject[*fakeConn](&fakeConn{id: 1})
	s.schedule(po, 10*time.Millisecond)

	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ran.Load() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !ran.Load() {
		t.Fatalf("expected the eviction task to run after the scheduler respawned its worker")
	}
	s.close()
}
