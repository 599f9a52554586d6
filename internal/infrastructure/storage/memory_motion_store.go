package storage

import (
	"sync"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// MemoryMotionStore in-memory yaw-rate state shared between the bus handler and the frame loop
type MemoryMotionStore struct {
	mu    sync.RWMutex
	state entity.MotionState
}

// NewMemoryMotionStore creates a zero-initialised store
func NewMemoryMotionStore() *MemoryMotionStore {
	return &MemoryMotionStore{}
}

// Update applies fn under the write lock
func (s *MemoryMotionStore) Update(fn func(state *entity.MotionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
}

// Snapshot returns a copy of the state
func (s *MemoryMotionStore) Snapshot() entity.MotionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

var _ port.MotionStore = (*MemoryMotionStore)(nil)
