package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/store"
)

// Store is an in-memory implementation of store.SnapshotStore.
type Store struct {
	mu        sync.RWMutex
	ids       *store.IDGenerator
	snapshots map[string]store.Snapshot
	order     []string // ascending ID
	closed    bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:       store.NewIDGenerator(),
		snapshots: make(map[string]store.Snapshot),
	}
}

// Close implements store.SnapshotStore.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Save(ctx context.Context, label string, data atomspace.Structure) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Snapshot{}, internalerr.ErrStoreUnavailable
	}

	snap := store.NewSnapshot(s.ids, label, data)
	s.snapshots[snap.ID] = snap
	s.order = append(s.order, snap.ID)
	return copySnapshot(snap), nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Snapshot{}, false, internalerr.ErrStoreUnavailable
	}

	snap, ok := s.snapshots[id]
	if !ok {
		return store.Snapshot{}, false, nil
	}
	return copySnapshot(snap), true, nil
}

func (s *Store) Latest(ctx context.Context) (store.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Snapshot{}, false, internalerr.ErrStoreUnavailable
	}
	if len(s.order) == 0 {
		return store.Snapshot{}, false, nil
	}
	return copySnapshot(s.snapshots[s.order[len(s.order)-1]]), true, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]store.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}

	infos := make([]store.Info, 0, len(s.order))
	for _, id := range slices.Backward(s.order) {
		infos = append(infos, s.snapshots[id].Info())
	}
	return store.Limit(infos, limit), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return internalerr.ErrStoreUnavailable
	}

	if _, ok := s.snapshots[id]; !ok {
		return fmt.Errorf("%w: snapshot %s", internalerr.ErrNotFound, id)
	}
	delete(s.snapshots, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return nil
}

func copySnapshot(snap store.Snapshot) store.Snapshot {
	snap.Structure = store.CloneStructure(snap.Structure)
	return snap
}
