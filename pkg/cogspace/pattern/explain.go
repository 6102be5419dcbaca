package pattern

import (
	"fmt"
	"strings"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
)

// MatchExplanation is a presentation view of a MatchResult.
type MatchExplanation struct {
	AtomID   atomspace.ID
	Type     string
	Name     string
	Score    float64
	Bindings Bindings
	Summary  string
}

// Explain describes a match. It reports false when the atom no longer exists.
func (m *Matcher) Explain(r MatchResult) (MatchExplanation, bool) {
	a, ok := m.space.Get(r.AtomID)
	if !ok {
		return MatchExplanation{}, false
	}
	return MatchExplanation{
		AtomID:   r.AtomID,
		Type:     a.Type,
		Name:     a.Name,
		Score:    r.Score,
		Bindings: r.Bindings.Clone(),
		Summary:  fmt.Sprintf("Matched atom %s('%s') with score %.3f", a.Type, a.Name, r.Score),
	}, true
}

func (e MatchExplanation) String() string {
	var b strings.Builder
	b.WriteString(e.Summary)
	for _, k := range e.Bindings.Keys() {
		fmt.Fprintf(&b, "\n  $%s = %s", k, e.Bindings[k])
	}
	return b.String()
}
