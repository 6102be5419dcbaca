package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/store"
)

// sqliteStore implements store.SnapshotStore using SQLite
type sqliteStore struct {
	db     *sql.DB
	ids    *store.IDGenerator
	logger *zap.Logger
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
// An optional logger can be passed; if omitted, logging is disabled.
func OpenSQLite(ctx context.Context, path string, logger ...*zap.Logger) (store.SnapshotStore, error) {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	l.Debug("opened sqlite snapshot store", zap.String("path", path))
	return &sqliteStore{db: db, ids: store.NewIDGenerator(), logger: l}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	atoms INTEGER NOT NULL,
	next_id INTEGER NOT NULL,
	payload TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Save inserts a new snapshot row
func (s *sqliteStore) Save(ctx context.Context, label string, data atomspace.Structure) (store.Snapshot, error) {
	snap := store.NewSnapshot(s.ids, label, data)
	payload, err := store.EncodeStructure(snap.Structure)
	if err != nil {
		return store.Snapshot{}, err
	}

	info := snap.Info()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (id, label, created_at, atoms, next_id, payload)
VALUES (?, ?, ?, ?, ?, ?)
`, info.ID, info.Label, info.CreatedAt.Format(time.RFC3339Nano), info.Atoms, int64(info.NextID), string(payload))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Debug("saved snapshot", zap.String("id", snap.ID), zap.Int("atoms", info.Atoms))
	return snap, nil
}

// Get loads one snapshot by ID
func (s *sqliteStore) Get(ctx context.Context, id string) (store.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, label, created_at, payload FROM snapshots WHERE id = ?
`, id)
	return scanSnapshot(row)
}

// Latest loads the snapshot with the greatest ID
func (s *sqliteStore) Latest(ctx context.Context) (store.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, label, created_at, payload FROM snapshots ORDER BY id DESC LIMIT 1
`)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (store.Snapshot, bool, error) {
	var (
		snap      store.Snapshot
		createdAt string
		payload   string
	)
	err := row.Scan(&snap.ID, &snap.Label, &createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("%w: snapshot %s created_at: %v", internalerr.ErrDeserialize, snap.ID, err)
	}
	snap.Structure, err = store.DecodeStructure([]byte(payload))
	if err != nil {
		return store.Snapshot{}, false, err
	}
	return snap, true, nil
}

// List returns snapshot summaries, newest first
func (s *sqliteStore) List(ctx context.Context, limit int) ([]store.Info, error) {
	query := `SELECT id, label, created_at, atoms, next_id FROM snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []store.Info
	for rows.Next() {
		var (
			info      store.Info
			createdAt string
			nextID    int64
		)
		if err := rows.Scan(&info.ID, &info.Label, &createdAt, &info.Atoms, &nextID); err != nil {
			return nil, err
		}
		info.NextID = atomspace.ID(nextID)
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("%w: snapshot %s created_at: %v", internalerr.ErrDeserialize, info.ID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a snapshot row
func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: snapshot %s", internalerr.ErrNotFound, id)
	}
	return nil
}
