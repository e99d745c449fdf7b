// Package memory provides an in-process option store for tests and
// single-instance development servers.
package memory

import (
	"context"
	"sync"

	"admin-notes-backend/application/ports"
)

var _ ports.OptionStore = (*OptionStore)(nil)

// OptionStore keeps option records in a map guarded by a mutex.
type OptionStore struct {
	mu      sync.RWMutex
	records map[string]ports.OptionRecord
}

// NewOptionStore creates an empty store
func NewOptionStore() *OptionStore {
	return &OptionStore{records: make(map[string]ports.OptionRecord)}
}

// Get returns a copy of the record stored under name
func (s *OptionStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.OptionRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record := s.records[name]
	return ports.OptionRecord{
		Values:  append([]string(nil), record.Values...),
		Version: record.Version,
	}, nil
}

// Put stores values when the current version equals expectedVersion
func (s *OptionStore) Put(ctx context.Context, name string, values []string, expectedVersion uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.records[name]
	if current.Version != expectedVersion {
		return 0, ports.ErrVersionConflict
	}

	next := ports.OptionRecord{
		Values:  append([]string(nil), values...),
		Version: expectedVersion + 1,
	}
	s.records[name] = next
	return next.Version, nil
}
