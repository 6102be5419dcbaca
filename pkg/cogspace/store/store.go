// Package store defines snapshot persistence for atomspaces. A snapshot is
// an exported atomspace.Structure saved under a ULID, so lexical ID order is
// creation order.
package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// SnapshotStore persists atomspace snapshots.
type SnapshotStore interface {
	Close() error

	// Save stores data under a fresh ID.
	Save(ctx context.Context, label string, data atomspace.Structure) (Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, bool, error)
	// Latest returns the most recently saved snapshot.
	Latest(ctx context.Context) (Snapshot, bool, error)
	// List returns snapshot summaries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Info, error)
	// Delete removes a snapshot; ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// Snapshot is a saved atomspace.
type Snapshot struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Structure atomspace.Structure
}

// Info summarises a snapshot without its contents.
type Info struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	CreatedAt time.Time    `json:"created_at"`
	Atoms     int          `json:"atoms"`
	NextID    atomspace.ID `json:"next_id"`
}

// Info returns the summary of s.
func (s Snapshot) Info() Info {
	return Info{
		ID:        s.ID,
		Label:     s.Label,
		CreatedAt: s.CreatedAt,
		Atoms:     len(s.Structure.Atoms),
		NextID:    s.Structure.NextID,
	}
}

// IDGenerator issues monotonic ULIDs. It is safe for concurrent use.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a ULID for t that sorts after every ID issued before it.
func (g *IDGenerator) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// NewSnapshot stamps data with a fresh ID and the current time. The
// structure is deep-copied so later changes by the caller do not leak in.
func NewSnapshot(ids *IDGenerator, label string, data atomspace.Structure) Snapshot {
	now := time.Now().UTC()
	return Snapshot{
		ID:        ids.New(now),
		Label:     label,
		CreatedAt: now,
		Structure: CloneStructure(data),
	}
}

// ValidID reports whether id is a well-formed ULID.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// CloneStructure deep-copies a structure.
func CloneStructure(data atomspace.Structure) atomspace.Structure {
	out := atomspace.Structure{NextID: data.NextID, Atoms: maps.Clone(data.Atoms)}
	for k, rec := range out.Atoms {
		rec.Outgoing = slices.Clone(rec.Outgoing)
		rec.Incoming = slices.Clone(rec.Incoming)
		out.Atoms[k] = rec
	}
	return out
}

// EncodeStructure is the payload encoding shared by the persistent backends.
func EncodeStructure(data atomspace.Structure) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// DecodeStructure reverses EncodeStructure.
func DecodeStructure(raw []byte) (atomspace.Structure, error) {
	var data atomspace.Structure
	if err := json.Unmarshal(raw, &data); err != nil {
		return atomspace.Structure{}, fmt.Errorf("%w: snapshot payload: %v", internalerr.ErrDeserialize, err)
	}
	return data, nil
}

// Limit trims newest-first infos to limit.
func Limit(infos []Info, limit int) []Info {
	if limit > 0 && len(infos) > limit {
		return infos[:limit]
	}
	return infos
}
