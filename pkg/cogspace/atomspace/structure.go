package atomspace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// Structure is the serialisable form of a Space.
type Structure struct {
	Atoms  map[string]AtomRecord `json:"atoms"`
	NextID ID                    `json:"next_id"`
}

// AtomRecord is one atom inside a Structure.
type AtomRecord struct {
	Type       string      `json:"type"`
	Name       string      `json:"name"`
	TruthValue TruthRecord `json:"truth_value"`
	Outgoing   []ID        `json:"outgoing"`
	Incoming   []ID        `json:"incoming"`
}

// TruthRecord is the unvalidated wire form of a TruthValue.
type TruthRecord struct {
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

// Export copies the whole Space into a Structure.
func (s *Space) Export() Structure {
	out := Structure{
		Atoms:  make(map[string]AtomRecord, len(s.st.atoms)),
		NextID: s.st.nextID,
	}
	for id, a := range s.st.atoms {
		out.Atoms[strconv.FormatInt(int64(id), 10)] = AtomRecord{
			Type:       a.Type,
			Name:       a.Name,
			TruthValue: TruthRecord{Strength: a.Truth.strength, Confidence: a.Truth.confidence},
			Outgoing:   slices.Clone(a.Outgoing),
			Incoming:   slices.Clone(a.Incoming),
		}
	}
	return out
}

// Import replaces the contents of the Space with data. The candidate state is
// built and validated on the side; on any error the Space is left untouched.
// Incoming sets are re-derived from outgoing references.
func (s *Space) Import(data Structure) error {
	st, err := buildState(data)
	if err != nil {
		return err
	}
	s.st = st
	s.logger.Info("imported atomspace",
		zap.Int("atoms", len(st.atoms)),
		zap.Int64("next_id", int64(st.nextID)))
	return nil
}

func buildState(data Structure) (state, error) {
	st := newState()

	ids := make([]ID, 0, len(data.Atoms))
	records := make(map[ID]AtomRecord, len(data.Atoms))
	var maxID ID
	for key, rec := range data.Atoms {
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil || n <= 0 {
			return state{}, fmt.Errorf("%w: invalid atom id %q", internalerr.ErrDeserialize, key)
		}
		id := ID(n)
		if _, dup := records[id]; dup {
			return state{}, fmt.Errorf("%w: atom id %d appears twice", internalerr.ErrDeserialize, id)
		}
		if rec.Type == "" {
			return state{}, fmt.Errorf("%w: atom %d has no type", internalerr.ErrDeserialize, id)
		}
		records[id] = rec
		ids = append(ids, id)
		maxID = max(maxID, id)
	}
	slices.Sort(ids)

	if data.NextID <= maxID {
		return state{}, fmt.Errorf("%w: next_id %d does not exceed highest atom id %d",
			internalerr.ErrDeserialize, data.NextID, maxID)
	}

	for _, id := range ids {
		rec := records[id]
		tv, err := NewTruthValue(rec.TruthValue.Strength, rec.TruthValue.Confidence)
		if err != nil {
			return state{}, fmt.Errorf("%w: atom %d: %v", internalerr.ErrDeserialize, id, err)
		}
		for _, out := range rec.Outgoing {
			if _, ok := records[out]; !ok {
				return state{}, fmt.Errorf("%w: atom %d references missing atom %d",
					internalerr.ErrDeserialize, id, out)
			}
		}
		outgoing := slices.Clone(rec.Outgoing)
		if outgoing == nil {
			outgoing = []ID{}
		}
		if other, ok := st.structs.find(st.atoms, rec.Type, rec.Name, outgoing); ok {
			return state{}, fmt.Errorf("%w: atoms %d and %d are structurally identical",
				internalerr.ErrDeserialize, other, id)
		}
		a := &Atom{ID: id, Type: rec.Type, Name: rec.Name, Truth: tv, Outgoing: outgoing, Incoming: []ID{}}
		st.atoms[id] = a
		addToIndex(st.names, a.Name, id)
		addToIndex(st.types, a.Type, id)
		st.structs.add(a)
	}

	// Every target exists now; wire incoming in ascending source order.
	for _, id := range ids {
		for _, out := range st.atoms[id].Outgoing {
			target := st.atoms[out]
			if !slices.Contains(target.Incoming, id) {
				target.Incoming = append(target.Incoming, id)
			}
		}
	}

	st.nextID = data.NextID
	return st, nil
}

// ExportJSON encodes Export() as JSON.
func (s *Space) ExportJSON() ([]byte, error) {
	return json.Marshal(s.Export())
}

// ImportJSON decodes a JSON Structure and imports it atomically.
func (s *Space) ImportJSON(raw []byte) error {
	var data Structure
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrDeserialize, err)
	}
	return s.Import(data)
}
