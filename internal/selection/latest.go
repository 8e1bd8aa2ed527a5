package selection

import (
	"sync"

	"github.com/wonny/pullback/internal/contracts"
)

// LatestStore holds the most recent completed run in memory.
// Readers get the stored pointer and must not modify it.
type LatestStore struct {
	mu     sync.RWMutex
	result *contracts.RunResult
}

// NewLatestStore creates an empty store.
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Set replaces the stored run.
func (s *LatestStore) Set(result *contracts.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

// Get returns the stored run, or false if no run completed yet.
func (s *LatestStore) Get() (*contracts.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.result != nil
}
