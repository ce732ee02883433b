package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// PoolStats holds the pool's counters. poolSize/createdCnt/invalidCnt are
// mutated by ObjectPool while holding createLock (mirroring the original's
// pairing of capacity bookkeeping with the creation lock); borrowedCnt and
// returnedCnt have their own mutex since Borrow/Return only hold the read
// side of the pool lock and may run concurrently with each other.
type PoolStats struct {
	poolSize   int
	createdCnt int64
	invalidCnt int64

	accessMu    sync.Mutex
	borrowedCnt int64
	returnedCnt int64

	lastAccessTime atomic.Int64 // UnixNano
}

func newPoolStats() *PoolStats {
	s := &PoolStats{}
	s.lastAccessTime.Store(time.Now().UnixNano())
	return s
}

// recordCreateLocked must be called while the caller holds createLock.
func (s *PoolStats) recordCreateLocked() {
	s.poolSize++
	s.createdCnt++
}

// recordRemoveLocked must be called while the caller holds createLock.
func (s *PoolStats) recordRemoveLocked() {
	s.poolSize--
	s.invalidCnt++
}

func (s *PoolStats) recordBorrow() {
	s.accessMu.Lock()
	s.borrowedCnt++
	s.accessMu.Unlock()
}

func (s *PoolStats) recordReturn() {
	s.accessMu.Lock()
	s.returnedCnt++
	s.accessMu.Unlock()
}

func (s *PoolStats) touchAccess() {
	s.lastAccessTime.Store(time.Now().UnixNano())
}

// StatsSnapshot is an immutable, race-free view of PoolStats at one instant.
type StatsSnapshot struct {
	PoolSize       int       `json:"pool_size"`
	CreatedCnt     int64     `json:"created_cnt"`
	InvalidCnt     int64     `json:"invalid_cnt"`
	BorrowedCnt    int64     `json:"borrowed_cnt"`
	ReturnedCnt    int64     `json:"returned_cnt"`
	LastAccessTime time.Time `json:"last_access_time"`
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("PoolStats{poolSize=%d, createdCnt=%d, invalidCnt=%d, borrowedCnt=%d, returnedCnt=%d, lastAccessTime=%s}",
		s.PoolSize, s.CreatedCnt, s.InvalidCnt, s.BorrowedCnt, s.ReturnedCnt, s.LastAccessTime.Format(time.RFC3339))
}

// MarshalJSON renders the snapshot via the teacher's JSON codec of choice
// (goccy/go-json, faster than encoding/json and already the pack's
// convention for every domain struct it serializes), so callers exporting
// pool health to a control plane or log sink get the same encoder the rest
// of the stack uses.
func (s StatsSnapshot) MarshalJSON() ([]byte, error) {
	type alias StatsSnapshot
	return json.Marshal(alias(s))
}
