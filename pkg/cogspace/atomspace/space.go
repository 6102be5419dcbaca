// Package atomspace implements a content-addressed hypergraph of typed atoms.
//
// Atoms are hash-consed: adding an atom whose (type, name, outgoing) triple is
// already present returns the existing ID. A Space is not safe for concurrent
// use; callers that share one across goroutines must serialise access.
package atomspace

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// state holds everything Import swaps atomically.
type state struct {
	atoms   map[ID]*Atom
	names   map[string]idSet
	types   map[string]idSet
	structs structIndex
	nextID  ID
}

func newState() state {
	return state{
		atoms:   make(map[ID]*Atom),
		names:   make(map[string]idSet),
		types:   make(map[string]idSet),
		structs: make(structIndex),
		nextID:  1,
	}
}

// insert stores a fully built atom and maintains every index.
func (st *state) insert(a *Atom) {
	st.atoms[a.ID] = a
	addToIndex(st.names, a.Name, a.ID)
	addToIndex(st.types, a.Type, a.ID)
	st.structs.add(a)
	for _, out := range a.Outgoing {
		target := st.atoms[out]
		if !slices.Contains(target.Incoming, a.ID) {
			target.Incoming = append(target.Incoming, a.ID)
		}
	}
}

// Space is the atom store.
type Space struct {
	st     state
	logger *zap.Logger
}

// Option configures a Space.
type Option func(*Space)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Space) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty Space.
func New(opts ...Option) *Space {
	s := &Space{st: newState(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAtom adds an atom or returns the ID of the structurally identical one.
// It fails only when the type is empty or an outgoing ID is unknown.
func (s *Space) AddAtom(typ, name string, opts ...AtomOption) (ID, error) {
	if typ == "" {
		return 0, fmt.Errorf("%w: atom type is required", internalerr.ErrInvalidInput)
	}
	spec := buildSpec(opts)
	if spec.outgoing == nil {
		spec.outgoing = []ID{}
	}

	if id, ok := s.st.structs.find(s.st.atoms, typ, name, spec.outgoing); ok {
		return id, nil
	}
	for _, out := range spec.outgoing {
		if _, ok := s.st.atoms[out]; !ok {
			return 0, fmt.Errorf("%w: outgoing atom %d does not exist", internalerr.ErrInvalidInput, out)
		}
	}

	a := &Atom{
		ID:       s.st.nextID,
		Type:     typ,
		Name:     name,
		Truth:    spec.truth,
		Outgoing: spec.outgoing,
		Incoming: []ID{},
	}
	s.st.nextID++
	s.st.insert(a)

	s.logger.Debug("added atom",
		zap.Int64("id", int64(a.ID)),
		zap.String("type", typ),
		zap.String("name", name))
	return a.ID, nil
}

// mustAdd is used by constructors whose outgoing IDs were just created.
func (s *Space) mustAdd(typ, name string, opts ...AtomOption) ID {
	id, err := s.AddAtom(typ, name, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// AddConcept adds a ConceptNode. Only the truth option is honoured.
func (s *Space) AddConcept(name string, opts ...AtomOption) ID {
	return s.mustAdd(ConceptNode, name, truthOnly(opts))
}

// AddPredicate adds a PredicateNode. Only the truth option is honoured.
func (s *Space) AddPredicate(name string, opts ...AtomOption) ID {
	return s.mustAdd(PredicateNode, name, truthOnly(opts))
}

// AddInheritance adds InheritanceLink[child, parent], creating both concepts as needed.
func (s *Space) AddInheritance(child, parent string, opts ...AtomOption) ID {
	return s.addBinaryLink(InheritanceLink, child, parent, opts)
}

// AddImplication adds ImplicationLink[a, b] between two concepts.
func (s *Space) AddImplication(a, b string, opts ...AtomOption) ID {
	return s.addBinaryLink(ImplicationLink, a, b, opts)
}

// AddSimilarity adds SimilarityLink[a, b] between two concepts.
func (s *Space) AddSimilarity(a, b string, opts ...AtomOption) ID {
	return s.addBinaryLink(SimilarityLink, a, b, opts)
}

func (s *Space) addBinaryLink(typ, a, b string, opts []AtomOption) ID {
	aID := s.AddConcept(a)
	bID := s.AddConcept(b)
	return s.mustAdd(typ, "", append(opts, WithOutgoing(aID, bID))...)
}

// AddEvaluation adds EvaluationLink[predicate, arg] for a single argument, or
// EvaluationLink[predicate, ListLink[args...]] otherwise.
func (s *Space) AddEvaluation(predicate string, args []string, opts ...AtomOption) ID {
	predID := s.AddPredicate(predicate)
	argIDs := make([]ID, len(args))
	for i, arg := range args {
		argIDs[i] = s.AddConcept(arg)
	}

	var target ID
	if len(argIDs) == 1 {
		target = argIDs[0]
	} else {
		target = s.mustAdd(ListLink, "", WithOutgoing(argIDs...))
	}
	return s.mustAdd(EvaluationLink, "", append(opts, WithOutgoing(predID, target))...)
}

// Get returns a copy of the atom with the given ID.
func (s *Space) Get(id ID) (Atom, bool) {
	a, ok := s.st.atoms[id]
	if !ok {
		return Atom{}, false
	}
	return a.clone(), true
}

// Has reports whether an atom exists.
func (s *Space) Has(id ID) bool {
	_, ok := s.st.atoms[id]
	return ok
}

// Lookup finds the atom with exactly this structure without creating it.
func (s *Space) Lookup(typ, name string, outgoing []ID) (ID, bool) {
	if outgoing == nil {
		outgoing = []ID{}
	}
	return s.st.structs.find(s.st.atoms, typ, name, outgoing)
}

// FindByName returns the IDs of all atoms with the given name, ascending.
func (s *Space) FindByName(name string) []ID {
	return s.st.names[name].sorted()
}

// FindByType returns the IDs of all atoms of the given type, ascending.
func (s *Space) FindByType(typ string) []ID {
	return s.st.types[typ].sorted()
}

// Incoming returns the links that reference id.
func (s *Space) Incoming(id ID) []ID {
	if a, ok := s.st.atoms[id]; ok {
		return slices.Clone(a.Incoming)
	}
	return nil
}

// Outgoing returns the ordered outgoing set of id.
func (s *Space) Outgoing(id ID) []ID {
	if a, ok := s.st.atoms[id]; ok {
		return slices.Clone(a.Outgoing)
	}
	return nil
}

// UpdateTruthValue replaces the truth value in place; unknown IDs are ignored.
func (s *Space) UpdateTruthValue(id ID, tv TruthValue) {
	a, ok := s.st.atoms[id]
	if !ok {
		return
	}
	a.Truth = tv
	s.logger.Debug("updated truth value", zap.Int64("id", int64(id)), zap.Stringer("truth", tv))
}

// IDs returns every atom ID in ascending order.
func (s *Space) IDs() []ID {
	out := make([]ID, 0, len(s.st.atoms))
	for id := range s.st.atoms {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Types returns the distinct atom types, sorted.
func (s *Space) Types() []string {
	return sortedKeys(s.st.types)
}

// Names returns the distinct atom names, sorted.
func (s *Space) Names() []string {
	return sortedKeys(s.st.names)
}

// NextID is the ID the next new atom will receive.
func (s *Space) NextID() ID { return s.st.nextID }

// Size returns the number of atoms.
func (s *Space) Size() int { return len(s.st.atoms) }

// Clear removes every atom and resets the ID counter to 1.
func (s *Space) Clear() {
	n := len(s.st.atoms)
	s.st = newState()
	s.logger.Info("atomspace cleared", zap.Int("removed", n))
}

// Stats summarises the contents of a Space.
type Stats struct {
	Atoms  int
	Nodes  int
	Links  int
	ByType map[string]int
	NextID ID
}

// Stats computes counts per type and the node/link split.
func (s *Space) Stats() Stats {
	st := Stats{
		Atoms:  len(s.st.atoms),
		ByType: make(map[string]int, len(s.st.types)),
		NextID: s.st.nextID,
	}
	for typ, ids := range s.st.types {
		st.ByType[typ] = len(ids)
	}
	for _, a := range s.st.atoms {
		if a.IsLink() {
			st.Links++
		} else {
			st.Nodes++
		}
	}
	return st
}

func sortedKeys(m map[string]idSet) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
