package inference

import (
	"slices"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/pattern"
)

// solution is one consistent assignment for a conjunction of premises,
// with the atom that satisfied each premise.
type solution struct {
	bindings pattern.Bindings
	premises []atomspace.ID
}

func (s solution) extend(b pattern.Bindings, id atomspace.ID) (solution, bool) {
	merged, ok := s.bindings.Merge(b)
	if !ok {
		return solution{}, false
	}
	return solution{bindings: merged, premises: append(slices.Clone(s.premises), id)}, true
}

// toPattern converts a schema into a matcher pattern, substituting variables
// that are already bound.
func toPattern(s Schema, b pattern.Bindings) *pattern.Pattern {
	var name pattern.NameConstraint
	if v, ok := s.NameVar(); ok {
		if val, bound := b[v]; bound {
			if n, isName := val.Name(); isName {
				name = pattern.Literal(n)
			} else {
				// bound to an atom ID; the merge will reject the rebind
				name = pattern.Token("$" + v)
			}
		} else {
			name = pattern.Token("$" + v)
		}
	} else if s.Name != "" {
		name = pattern.Literal(s.Name)
	}

	var slots []pattern.Slot
	for _, t := range s.Outgoing {
		slots = append(slots, termSlot(t, b))
	}
	return pattern.New(s.Type, name, slots...)
}

func termSlot(t Term, b pattern.Bindings) pattern.Slot {
	if v, ok := t.Var(); ok {
		val, bound := b[v]
		if !bound {
			return pattern.Var(v)
		}
		if id, isID := val.ID(); isID {
			return pattern.AtomRef(id)
		}
		n, _ := val.Name()
		return pattern.NameRef(n)
	}
	if id, ok := t.ID(); ok {
		return pattern.AtomRef(id)
	}
	n, _ := t.Name()
	return pattern.NameRef(n)
}

// substitute replaces bound variables in s by literal terms.
func substitute(s Schema, b pattern.Bindings) Schema {
	out := Schema{Type: s.Type, Name: s.Name}
	if v, ok := s.NameVar(); ok {
		if val, bound := b[v]; bound {
			if n, isName := val.Name(); isName {
				out.Name = n
			}
		}
	}
	for _, t := range s.Outgoing {
		out.Outgoing = append(out.Outgoing, bindTerm(t, b))
	}
	return out
}

func bindTerm(t Term, b pattern.Bindings) Term {
	v, ok := t.Var()
	if !ok {
		return t
	}
	val, bound := b[v]
	if !bound {
		return t
	}
	if id, isID := val.ID(); isID {
		return Ref(id)
	}
	n, _ := val.Name()
	return N(n)
}

// solve computes every consistent joint binding for premises, left to right.
// With Options.MaxBindings set, the partial sets of each premise are capped
// and truncated reports whether any consistent extension was dropped.
func (e *Engine) solve(premises []Schema, seed pattern.Bindings) (sols []solution, truncated bool) {
	if seed == nil {
		seed = pattern.Bindings{}
	}
	limit := e.opts.MaxBindings
	partial := []solution{{bindings: seed}}
	for _, premise := range premises {
		var next []solution
	join:
		for _, sol := range partial {
			for _, r := range e.matcher.Match(toPattern(premise, sol.bindings)) {
				ext, ok := sol.extend(r.Bindings, r.AtomID)
				if !ok {
					continue
				}
				if limit > 0 && len(next) == limit {
					truncated = true
					break join
				}
				next = append(next, ext)
			}
		}
		if len(next) == 0 {
			return nil, truncated
		}
		partial = next
	}
	return partial, truncated
}

// grounded is a conclusion with every variable resolved. Outgoing holds ID
// terms for known atoms and name terms for concepts still to be created.
type grounded struct {
	typ      string
	name     string
	outgoing []Term
}

// ground instantiates a conclusion. It fails when a variable is unbound or
// an ID term does not resolve.
func (e *Engine) ground(s Schema, b pattern.Bindings) (grounded, bool) {
	g := grounded{typ: s.Type, name: s.Name}
	if v, ok := s.NameVar(); ok {
		val, bound := b[v]
		if !bound {
			return grounded{}, false
		}
		if n, isName := val.Name(); isName {
			g.name = n
		} else {
			id, _ := val.ID()
			a, exists := e.space.Get(id)
			if !exists {
				return grounded{}, false
			}
			g.name = a.Name
		}
	}

	for _, t := range s.Outgoing {
		t = bindTerm(t, b)
		if t.IsVar() {
			return grounded{}, false
		}
		if id, isID := t.ID(); isID {
			if !e.space.Has(id) {
				return grounded{}, false
			}
			g.outgoing = append(g.outgoing, t)
			continue
		}
		n, _ := t.Name()
		if id, found := e.resolveName(n); found {
			g.outgoing = append(g.outgoing, Ref(id))
		} else {
			g.outgoing = append(g.outgoing, t)
		}
	}
	return g, true
}

// resolveName maps a literal name to an atom, preferring a ConceptNode.
func (e *Engine) resolveName(name string) (atomspace.ID, bool) {
	ids := e.space.FindByName(name)
	if len(ids) == 0 {
		return 0, false
	}
	for _, id := range ids {
		if a, _ := e.space.Get(id); a.Type == atomspace.ConceptNode {
			return id, true
		}
	}
	return ids[0], true
}

// lookup reports whether the grounded atom already exists.
func (e *Engine) lookup(g grounded) (atomspace.ID, bool) {
	ids := make([]atomspace.ID, 0, len(g.outgoing))
	for _, t := range g.outgoing {
		id, ok := t.ID()
		if !ok {
			return 0, false
		}
		ids = append(ids, id)
	}
	return e.space.Lookup(g.typ, g.name, ids)
}

// materialize creates the grounded atom, creating concepts for unresolved names.
func (e *Engine) materialize(g grounded, confidence float64) (atomspace.ID, error) {
	ids := make([]atomspace.ID, 0, len(g.outgoing))
	for _, t := range g.outgoing {
		if id, ok := t.ID(); ok {
			ids = append(ids, id)
			continue
		}
		n, _ := t.Name()
		ids = append(ids, e.space.AddConcept(n))
	}
	tv, err := atomspace.NewTruthValue(1.0, confidence)
	if err != nil {
		return 0, err
	}
	return e.space.AddAtom(g.typ, g.name, atomspace.WithTruth(tv), atomspace.WithOutgoing(ids...))
}
