package inference

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

type termKind uint8

const (
	termName termKind = iota
	termVar
	termID
)

// Term is one element of a schema: a variable, a literal atom name or a literal atom ID.
type Term struct {
	kind  termKind
	value string
	id    atomspace.ID
}

// V is a variable term.
func V(name string) Term { return Term{kind: termVar, value: strings.TrimPrefix(name, "$")} }

// N is a literal name term.
func N(name string) Term { return Term{kind: termName, value: name} }

// Ref is a literal atom ID term.
func Ref(id atomspace.ID) Term { return Term{kind: termID, id: id} }

// T reads "$x" as a variable and anything else as a literal name.
func T(s string) Term {
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		return V(s)
	}
	return N(s)
}

func (t Term) IsVar() bool { return t.kind == termVar }

// Var returns the variable name for variable terms.
func (t Term) Var() (string, bool) { return t.value, t.kind == termVar }

// Name returns the literal name for name terms.
func (t Term) Name() (string, bool) { return t.value, t.kind == termName }

// ID returns the atom ID for ID terms.
func (t Term) ID() (atomspace.ID, bool) { return t.id, t.kind == termID }

func (t Term) String() string {
	switch t.kind {
	case termVar:
		return "$" + t.value
	case termID:
		return fmt.Sprintf("#%d", t.id)
	default:
		return quoteName(t.value)
	}
}

// quoteName quotes names the schema parser would otherwise misread.
func quoteName(s string) string {
	if s == "" || strings.TrimSpace(s) != s ||
		strings.ContainsAny(s, ",()\"&") || strings.Contains(s, "=>") ||
		strings.HasPrefix(s, "$") || strings.HasPrefix(s, "#") {
		return strconv.Quote(s)
	}
	return s
}

// Schema is the simplified pattern used by rules and goals: a type, a name
// that is a literal, empty or "$var", and an outgoing list of terms. An empty
// Outgoing leaves the outgoing set unconstrained when matching.
type Schema struct {
	Type     string
	Name     string
	Outgoing []Term
}

// S builds a schema from string terms, reading "$x" as a variable.
func S(typ string, outgoing ...string) Schema {
	sc := Schema{Type: typ}
	for _, o := range outgoing {
		sc.Outgoing = append(sc.Outgoing, T(o))
	}
	return sc
}

// NameVar returns the variable bound to the schema name, if the name is one.
func (s Schema) NameVar() (string, bool) {
	if strings.HasPrefix(s.Name, "$") && len(s.Name) > 1 {
		return s.Name[1:], true
	}
	return "", false
}

// Vars lists the variables the schema mentions, in order of appearance.
func (s Schema) Vars() []string {
	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if v, ok := s.NameVar(); ok {
		add(v)
	}
	for _, t := range s.Outgoing {
		if v, ok := t.Var(); ok {
			add(v)
		}
	}
	return out
}

// String renders Type[:name](term, ...). It doubles as the goal signature
// used for cycle detection.
func (s Schema) String() string {
	var b strings.Builder
	b.WriteString(s.Type)
	if _, isVar := s.NameVar(); isVar {
		b.WriteString(":" + s.Name)
	} else if s.Name != "" {
		b.WriteString(":" + quoteName(s.Name))
	}
	if len(s.Outgoing) > 0 {
		parts := make([]string, len(s.Outgoing))
		for i, t := range s.Outgoing {
			parts[i] = t.String()
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}

// Rule derives its conclusion whenever all premises hold under one
// consistent set of variable bindings.
type Rule struct {
	Name       string
	Premises   []Schema
	Conclusion Schema
	Confidence float64
}

func (r Rule) String() string {
	parts := make([]string, len(r.Premises))
	for i, p := range r.Premises {
		parts[i] = p.String()
	}
	conf := strconv.FormatFloat(r.Confidence, 'g', -1, 64)
	return fmt.Sprintf("%s %s: %s => %s", r.Name, conf, strings.Join(parts, " & "), r.Conclusion)
}

// Validate checks the rule is well formed: a name, typed schemas, a
// confidence in [0,1], and, for rules with premises, every conclusion
// variable bound by some premise. Premise-less rules may keep variables
// for backward chaining goals to bind.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule name is required", internalerr.ErrInvalidRule)
	}
	if r.Conclusion.Type == "" {
		return fmt.Errorf("%w: rule %s: conclusion type is required", internalerr.ErrInvalidRule, r.Name)
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: rule %s: confidence %v outside [0,1]", internalerr.ErrInvalidRule, r.Name, r.Confidence)
	}
	if len(r.Premises) == 0 {
		return nil
	}
	bound := map[string]bool{}
	for i, p := range r.Premises {
		if p.Type == "" {
			return fmt.Errorf("%w: rule %s: premise %d has no type", internalerr.ErrInvalidRule, r.Name, i)
		}
		for _, v := range p.Vars() {
			bound[v] = true
		}
	}
	for _, v := range r.Conclusion.Vars() {
		if !bound[v] {
			return fmt.Errorf("%w: rule %s: conclusion variable $%s is not bound by any premise", internalerr.ErrInvalidRule, r.Name, v)
		}
	}
	return nil
}

// Result records one derived atom.
type Result struct {
	AtomID     atomspace.ID
	RuleName   string
	PremiseIDs []atomspace.ID
	Confidence float64
}

// Proof is the outcome of backward chaining. Results lists every atom
// derived while searching, including those of sub-goals.
type Proof struct {
	Proved  bool
	Results []Result
}

// Step is one hop of a path between two concepts.
type Step struct {
	Relation string // link type
	From     string
	To       string
	Depth    int
	LinkID   atomspace.ID
	Rule     string
}

// Knowledge is one hit of QueryKnowledge.
type Knowledge struct {
	AtomID    atomspace.ID
	Type      string
	Name      string
	Truth     atomspace.TruthValue
	Relevance float64
}

// Explanation describes a stored atom. Derivation chains are not tracked.
type Explanation struct {
	AtomID   atomspace.ID
	Type     string
	Name     string
	Truth    atomspace.TruthValue
	Outgoing []atomspace.ID
	Text     string
}
