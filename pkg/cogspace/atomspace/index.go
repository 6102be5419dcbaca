package atomspace

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// structIndex maps a hash of (type, name, outgoing) to the atoms sharing it.
// Buckets are compared exactly, so hash collisions only cost a scan.
type structIndex map[uint64][]ID

func structKey(typ, name string, outgoing []ID) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(typ)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(name)
	_, _ = d.Write([]byte{0})
	var buf [8]byte
	for _, id := range outgoing {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func (idx structIndex) find(atoms map[ID]*Atom, typ, name string, outgoing []ID) (ID, bool) {
	for _, id := range idx[structKey(typ, name, outgoing)] {
		a := atoms[id]
		if a.Type == typ && a.Name == name && slices.Equal(a.Outgoing, outgoing) {
			return id, true
		}
	}
	return 0, false
}

func (idx structIndex) add(a *Atom) {
	k := structKey(a.Type, a.Name, a.Outgoing)
	idx[k] = append(idx[k], a.ID)
}

// idSet is the value type of the name and type indices.
type idSet map[ID]struct{}

func addToIndex(index map[string]idSet, key string, id ID) {
	set, ok := index[key]
	if !ok {
		set = make(idSet)
		index[key] = set
	}
	set[id] = struct{}{}
}

func (s idSet) sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
