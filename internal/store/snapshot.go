// internal/store/snapshot.go
package store

import (
	"sync/atomic"

	"sales-insights/internal/common/errors"
)

// Store holds the current dataset snapshot behind an atomic pointer.
// Replace swaps the whole snapshot; readers that already hold one keep a
// consistent view for the remainder of their query.
type Store struct {
	current atomic.Pointer[Dataset]
}

func New(ds *Dataset) *Store {
	s := &Store{}
	if ds != nil {
		s.current.Store(ds)
	}
	return s
}

// Snapshot returns the current dataset, or a fatal error when none has
// been loaded. Callers must fetch one snapshot per query and not re-fetch
// mid-aggregation.
func (s *Store) Snapshot() (*Dataset, error) {
	ds := s.current.Load()
	if ds == nil {
		return nil, errors.NewDatasetNotLoadedError("store has no snapshot")
	}
	return ds, nil
}

// Replace atomically swaps in a new snapshot.
func (s *Store) Replace(ds *Dataset) {
	s.current.Store(ds)
}
