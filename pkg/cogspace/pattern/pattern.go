// Package pattern matches structural patterns with variables against an atomspace.
//
// A Pattern constrains an atom's type, its name and its ordered outgoing set.
// Name constraints and outgoing slots are closed sum types: the matcher switches
// over the concrete kinds rather than probing values at run time.
package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// Variable binds to whatever occupies its position in a match.
// Constraints are checked against the atom being bound.
type Variable struct {
	Name           string
	TypeConstraint string

	valueSrc string
	value    *regexp.Regexp
}

// NewVariable builds a variable. valueConstraint is a regular expression that
// must match at the start of the atom name; it is compiled here so that a bad
// expression fails at construction rather than during matching.
func NewVariable(name, typeConstraint, valueConstraint string) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: variable name is required", internalerr.ErrInvalidInput)
	}
	v := &Variable{Name: name, TypeConstraint: typeConstraint, valueSrc: valueConstraint}
	if valueConstraint != "" {
		re, err := regexp.Compile("^(?:" + valueConstraint + ")")
		if err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", internalerr.ErrInvalidInput, name, err)
		}
		v.value = re
	}
	return v, nil
}

// Var returns an unconstrained variable.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// ValueConstraint returns the source of the value regex, or "".
func (v *Variable) ValueConstraint() string { return v.valueSrc }

func (v *Variable) accepts(a atomspace.Atom) bool {
	if v.TypeConstraint != "" && a.Type != v.TypeConstraint {
		return false
	}
	if v.value != nil && !v.value.MatchString(a.Name) {
		return false
	}
	return true
}

func (v *Variable) String() string { return "$" + v.Name }

// NameConstraint is one of: nil (any name), Literal, Token or *Variable.
type NameConstraint interface {
	nameConstraint()
}

// Literal requires the atom name to equal (or, with fuzzy matching, resemble) the string.
type Literal string

// Token is a "$name" reference. It binds the atom name to the variable and
// applies the constraints of a variable registered under that name, if any.
type Token string

// VarName returns the variable name without the leading '$'.
func (t Token) VarName() string { return strings.TrimPrefix(string(t), "$") }

func (Literal) nameConstraint()   {}
func (Token) nameConstraint()     {}
func (*Variable) nameConstraint() {}

// Slot is one position of an outgoing constraint: AtomRef, NameRef, *Pattern or *Variable.
type Slot interface {
	slot()
}

// AtomRef requires the exact atom ID.
type AtomRef atomspace.ID

// NameRef requires the referenced atom to carry this name.
type NameRef string

func (AtomRef) slot()   {}
func (NameRef) slot()   {}
func (*Pattern) slot()  {}
func (*Variable) slot() {}

// Pattern describes a set of atoms. A nil Outgoing leaves the outgoing set
// unconstrained; a non-nil empty Outgoing requires a node.
type Pattern struct {
	Type      string
	Name      NameConstraint
	Outgoing  []Slot
	Variables map[string]*Variable
}

// New builds a pattern and registers every variable it mentions, including
// those of nested patterns.
func New(typ string, name NameConstraint, outgoing ...Slot) *Pattern {
	p := &Pattern{Type: typ, Name: name, Variables: make(map[string]*Variable)}
	if v, ok := name.(*Variable); ok {
		p.Variables[v.Name] = v
	}
	if len(outgoing) > 0 {
		p.Outgoing = outgoing
	}
	for _, s := range outgoing {
		switch s := s.(type) {
		case *Variable:
			p.Variables[s.Name] = s
		case *Pattern:
			for name, v := range s.Variables {
				p.Variables[name] = v
			}
		}
	}
	return p
}

// String renders the pattern in the Type:name(slot, ...) notation.
func (p *Pattern) String() string {
	var b strings.Builder
	b.WriteString(p.Type)
	switch n := p.Name.(type) {
	case Literal:
		fmt.Fprintf(&b, ":%q", string(n))
	case Token:
		b.WriteString(":$" + n.VarName())
	case *Variable:
		b.WriteString(":" + n.String())
	}
	if p.Outgoing != nil {
		parts := make([]string, len(p.Outgoing))
		for i, s := range p.Outgoing {
			switch s := s.(type) {
			case AtomRef:
				parts[i] = fmt.Sprintf("#%d", s)
			case NameRef:
				parts[i] = fmt.Sprintf("%q", string(s))
			case *Variable:
				parts[i] = s.String()
			case *Pattern:
				parts[i] = s.String()
			}
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}

// Value is a binding: either an atom ID (outgoing positions) or a name string.
type Value struct {
	id     atomspace.ID
	name   string
	isName bool
}

// IDValue binds an atom ID.
func IDValue(id atomspace.ID) Value { return Value{id: id} }

// NameValue binds an atom name.
func NameValue(name string) Value { return Value{name: name, isName: true} }

// ID returns the bound atom ID when the value is one.
func (v Value) ID() (atomspace.ID, bool) { return v.id, !v.isName }

// Name returns the bound name when the value is one.
func (v Value) Name() (string, bool) { return v.name, v.isName }

func (v Value) String() string {
	if v.isName {
		return fmt.Sprintf("%q", v.name)
	}
	return fmt.Sprintf("#%d", v.id)
}

// Bindings maps variable names to values.
type Bindings map[string]Value

// Clone returns an independent copy.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Merge combines two binding sets. It fails when a variable is bound to
// different values on each side.
func (b Bindings) Merge(other Bindings) (Bindings, bool) {
	out := b.Clone()
	for k, v := range other {
		if prev, ok := out[k]; ok && prev != v {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// Keys returns the bound variable names, sorted.
func (b Bindings) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// bind records a binding, rejecting a conflicting rebind within one match.
func (b Bindings) bind(name string, v Value) bool {
	if prev, ok := b[name]; ok {
		return prev == v
	}
	b[name] = v
	return true
}

// MatchResult is one atom satisfying a pattern.
type MatchResult struct {
	AtomID   atomspace.ID
	Bindings Bindings
	Score    float64
	// Depth is the hop count from the start atom; only FindConnected sets it.
	Depth int
}
