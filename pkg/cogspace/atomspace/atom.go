package atomspace

import "slices"

// ID identifies an atom. IDs are positive and assigned monotonically.
type ID int64

// Well-known atom types used by the convenience constructors and default rules.
const (
	ConceptNode     = "ConceptNode"
	PredicateNode   = "PredicateNode"
	InheritanceLink = "InheritanceLink"
	EvaluationLink  = "EvaluationLink"
	ListLink        = "ListLink"
	ImplicationLink = "ImplicationLink"
	SimilarityLink  = "SimilarityLink"
)

// Atom is a typed, named node or hyperedge.
type Atom struct {
	ID       ID
	Type     string
	Name     string
	Truth    TruthValue
	Outgoing []ID
	Incoming []ID
}

// IsLink reports whether the atom has outgoing references.
func (a Atom) IsLink() bool { return len(a.Outgoing) > 0 }

func (a Atom) clone() Atom {
	a.Outgoing = slices.Clone(a.Outgoing)
	a.Incoming = slices.Clone(a.Incoming)
	return a
}

// AtomOption customises AddAtom and the convenience constructors.
type AtomOption func(*atomSpec)

type atomSpec struct {
	truth    TruthValue
	outgoing []ID
}

// WithTruth sets the truth value of a newly created atom.
// It has no effect when the atom already exists.
func WithTruth(tv TruthValue) AtomOption {
	return func(s *atomSpec) { s.truth = tv }
}

// WithOutgoing sets the ordered outgoing set, turning the atom into a link.
func WithOutgoing(ids ...ID) AtomOption {
	return func(s *atomSpec) { s.outgoing = append([]ID(nil), ids...) }
}

func buildSpec(opts []AtomOption) atomSpec {
	s := atomSpec{truth: DefaultTruth()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// truthOnly drops any outgoing option so node constructors cannot fail.
func truthOnly(opts []AtomOption) AtomOption {
	spec := buildSpec(opts)
	return WithTruth(spec.truth)
}
