package pattern

import (
	"math"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
)

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Equal strings score 1; an empty string against a non-empty one scores 0.
func (m *Matcher) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if b < a {
		a, b = b, a
	}
	key := [2]string{a, b}
	if m.cache != nil {
		if v, ok := m.cache.Get(key); ok {
			return v
		}
	}
	sim := stringSimilarity(a, b)
	if m.cache != nil {
		m.cache.Add(key, sim)
	}
	return sim
}

func stringSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein keeps a single row sized to the shorter input.
func levenshtein(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	row := make([]int, len(a)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(b); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}
	return row[len(a)]
}

// AtomSimilarity scores two atoms: 0 across types, otherwise
// 0.5·name + 0.3·structure + 0.2·truth.
func (m *Matcher) AtomSimilarity(a, b atomspace.Atom) float64 {
	if a.Type != b.Type {
		return 0.0
	}
	nameSim := m.Similarity(a.Name, b.Name)

	structSim := 1.0
	if len(a.Outgoing) != len(b.Outgoing) {
		structSim = 0.5
	}

	truthSim := 1.0 - (math.Abs(a.Truth.Strength()-b.Truth.Strength())+
		math.Abs(a.Truth.Confidence()-b.Truth.Confidence()))/2.0

	return 0.5*nameSim + 0.3*structSim + 0.2*truthSim
}

// FindSimilar scans every atom and returns those scoring at least threshold
// against target. The target itself is excluded.
func (m *Matcher) FindSimilar(target atomspace.ID, threshold float64) []MatchResult {
	t, ok := m.space.Get(target)
	if !ok {
		return nil
	}
	var results []MatchResult
	for _, id := range m.space.IDs() {
		if id == target {
			continue
		}
		a, _ := m.space.Get(id)
		if sim := m.AtomSimilarity(t, a); sim >= threshold {
			results = append(results, MatchResult{AtomID: id, Bindings: Bindings{}, Score: sim})
		}
	}
	return m.rank(results)
}
