// Package badgerstore keeps atomspace snapshots in BadgerDB.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/store"
)

// Key prefixes. Both are followed by the snapshot ULID, so a prefix scan
// visits snapshots in creation order.
const (
	prefixPayload = byte(0x01) // payload:id -> header + structure JSON
	prefixInfo    = byte(0x02) // info:id -> store.Info JSON
)

// Options configures the store.
type Options struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in RAM; data is lost on Close.
	InMemory bool
	// SyncWrites fsyncs every write.
	SyncWrites bool
	Logger     *zap.Logger
}

// Store implements store.SnapshotStore on BadgerDB.
type Store struct {
	db     *badger.DB
	ids    *store.IDGenerator
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

type record struct {
	Info      store.Info          `json:"info"`
	Structure atomspace.Structure `json:"structure"`
}

// Open opens or creates a store.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.
		WithLogger(badgerLogger{logger.Sugar()}).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", internalerr.ErrStoreUnavailable, err)
	}
	logger.Debug("opened badger snapshot store", zap.String("dir", opts.Dir), zap.Bool("in_memory", opts.InMemory))
	return &Store{db: db, ids: store.NewIDGenerator(), logger: logger}, nil
}

// OpenInMemory creates an in-memory store for tests.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

func payloadKey(id string) []byte { return append([]byte{prefixPayload}, id...) }
func infoKey(id string) []byte    { return append([]byte{prefixInfo}, id...) }

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	return nil
}

// Close implements store.SnapshotStore.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, label string, data atomspace.Structure) (store.Snapshot, error) {
	if err := s.checkOpen(); err != nil {
		return store.Snapshot{}, err
	}

	snap := store.NewSnapshot(s.ids, label, data)
	info := snap.Info()
	payload, err := json.Marshal(record{Info: info, Structure: snap.Structure})
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	infoRaw, err := json.Marshal(info)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("encode snapshot info: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(payloadKey(snap.ID), payload); err != nil {
			return err
		}
		return txn.Set(infoKey(snap.ID), infoRaw)
	})
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Debug("saved snapshot", zap.String("id", snap.ID), zap.Int("atoms", info.Atoms))
	return snap, nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Snapshot, bool, error) {
	if err := s.checkOpen(); err != nil {
		return store.Snapshot{}, false, err
	}

	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(payloadKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, err
	}
	return rec.snapshot(), true, nil
}

func (s *Store) Latest(ctx context.Context) (store.Snapshot, bool, error) {
	if err := s.checkOpen(); err != nil {
		return store.Snapshot{}, false, err
	}

	var (
		rec   record
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte{prefixPayload}
		it := txn.NewIterator(opts)
		defer it.Close()

		// seek past the last possible key of the prefix
		it.Seek([]byte{prefixPayload, 0xFF})
		if !it.ValidForPrefix(opts.Prefix) {
			return nil
		}
		found = true
		return it.Item().Value(func(val []byte) error {
			return decode(val, &rec)
		})
	})
	if err != nil || !found {
		return store.Snapshot{}, false, err
	}
	return rec.snapshot(), true, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]store.Info, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var infos []store.Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte{prefixInfo}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte{prefixInfo, 0xFF}); it.ValidForPrefix(opts.Prefix); it.Next() {
			var info store.Info
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &info)
			}); err != nil {
				return err
			}
			infos = append(infos, info)
			if limit > 0 && len(infos) == limit {
				break
			}
		}
		return nil
	})
	return infos, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(payloadKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: snapshot %s", internalerr.ErrNotFound, id)
			}
			return err
		}
		if err := txn.Delete(payloadKey(id)); err != nil {
			return err
		}
		return txn.Delete(infoKey(id))
	})
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: badger value: %v", internalerr.ErrDeserialize, err)
	}
	return nil
}

func (r record) snapshot() store.Snapshot {
	return store.Snapshot{
		ID:        r.Info.ID,
		Label:     r.Info.Label,
		CreatedAt: r.Info.CreatedAt,
		Structure: r.Structure,
	}
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}
