package storage

import (
	"sync"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// MemoryReferenceStore caches the last ground steering request
type MemoryReferenceStore struct {
	mu  sync.RWMutex
	ref entity.GroundSteering
	set bool
}

// NewMemoryReferenceStore creates an empty cache
func NewMemoryReferenceStore() *MemoryReferenceStore {
	return &MemoryReferenceStore{}
}

// Set replaces the cached request
func (s *MemoryReferenceStore) Set(ref entity.GroundSteering) {
	s.mu.Lock()
	s.ref = ref
	s.set = true
	s.mu.Unlock()
}

// Get returns the cached request
func (s *MemoryReferenceStore) Get() (entity.GroundSteering, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ref, s.set
}

var _ port.ReferenceStore = (*MemoryReferenceStore)(nil)
