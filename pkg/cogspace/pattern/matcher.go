package pattern

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
)

// Options configures a Matcher.
type Options struct {
	// MaxResults caps every result list; <= 0 means unlimited.
	MaxResults int
	// Fuzzy enables approximate matching of literal names.
	Fuzzy bool
	// FuzzyThreshold is the minimum accepted name similarity. Equality passes.
	FuzzyThreshold float64
	// MaxNesting bounds recursion into nested patterns.
	MaxNesting int
	// SimilarityCacheSize is the LRU capacity for name similarities; 0 disables it.
	SimilarityCacheSize int
	Logger              *zap.Logger
}

// DefaultOptions returns the standard matcher settings.
func DefaultOptions() Options {
	return Options{
		MaxResults:          100,
		Fuzzy:               true,
		FuzzyThreshold:      0.8,
		MaxNesting:          32,
		SimilarityCacheSize: 4096,
	}
}

// Matcher answers structural queries over one Space.
type Matcher struct {
	space  *atomspace.Space
	opts   Options
	cache  *lru.Cache[[2]string, float64]
	logger *zap.Logger
}

// NewMatcher creates a matcher reading from space.
func NewMatcher(space *atomspace.Space, opts Options) *Matcher {
	if opts.MaxNesting <= 0 {
		opts.MaxNesting = DefaultOptions().MaxNesting
	}
	m := &Matcher{space: space, opts: opts, logger: opts.Logger}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if opts.SimilarityCacheSize > 0 {
		// only fails for a non-positive size
		m.cache, _ = lru.New[[2]string, float64](opts.SimilarityCacheSize)
	}
	return m
}

// Options returns the matcher configuration.
func (m *Matcher) Options() Options { return m.opts }

// Space returns the atomspace the matcher reads.
func (m *Matcher) Space() *atomspace.Space { return m.space }

// Match returns every atom satisfying p, best score first.
func (m *Matcher) Match(p *Pattern) []MatchResult {
	if p == nil {
		return nil
	}

	var candidates []atomspace.ID
	if p.Type != "" {
		candidates = m.space.FindByType(p.Type)
	} else {
		candidates = m.space.IDs()
	}

	var results []MatchResult
	for _, id := range candidates {
		a, ok := m.space.Get(id)
		if !ok {
			continue
		}
		bindings := make(Bindings)
		score, ok := m.matchAtom(a, p, bindings, 0)
		if !ok {
			continue
		}
		results = append(results, MatchResult{AtomID: id, Bindings: bindings, Score: score})
	}

	results = m.rank(results)
	m.logger.Debug("pattern matched",
		zap.Stringer("pattern", p),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))
	return results
}

// Exists reports whether at least one atom satisfies p.
func (m *Matcher) Exists(p *Pattern) bool {
	if p == nil {
		return false
	}
	var candidates []atomspace.ID
	if p.Type != "" {
		candidates = m.space.FindByType(p.Type)
	} else {
		candidates = m.space.IDs()
	}
	for _, id := range candidates {
		a, ok := m.space.Get(id)
		if !ok {
			continue
		}
		if _, ok := m.matchAtom(a, p, make(Bindings), 0); ok {
			return true
		}
	}
	return false
}

// matchAtom checks a against p, accumulating bindings. Any failed check
// rejects the atom.
func (m *Matcher) matchAtom(a atomspace.Atom, p *Pattern, bindings Bindings, depth int) (float64, bool) {
	if depth > m.opts.MaxNesting {
		return 0, false
	}
	score := 1.0

	if p.Type != "" && a.Type != p.Type {
		return 0, false
	}

	switch n := p.Name.(type) {
	case nil:
	case *Variable:
		if !n.accepts(a) || !bindings.bind(n.Name, NameValue(a.Name)) {
			return 0, false
		}
	case Token:
		name := n.VarName()
		if v, ok := p.Variables[name]; ok && !v.accepts(a) {
			return 0, false
		}
		if !bindings.bind(name, NameValue(a.Name)) {
			return 0, false
		}
	case Literal:
		if m.opts.Fuzzy {
			sim := m.Similarity(string(n), a.Name)
			if sim < m.opts.FuzzyThreshold {
				return 0, false
			}
			score *= sim
		} else if a.Name != string(n) {
			return 0, false
		}
	default:
		return 0, false
	}

	if p.Outgoing == nil {
		return score, true
	}
	if len(p.Outgoing) != len(a.Outgoing) {
		return 0, false
	}
	for i, s := range p.Outgoing {
		outID := a.Outgoing[i]
		switch s := s.(type) {
		case AtomRef:
			if outID != atomspace.ID(s) {
				return 0, false
			}
		case NameRef:
			out, ok := m.space.Get(outID)
			if !ok || out.Name != string(s) {
				return 0, false
			}
		case *Variable:
			out, ok := m.space.Get(outID)
			if !ok || !s.accepts(out) || !bindings.bind(s.Name, IDValue(outID)) {
				return 0, false
			}
		case *Pattern:
			out, ok := m.space.Get(outID)
			if !ok {
				return 0, false
			}
			sub, ok := m.matchAtom(out, s, bindings, depth+1)
			if !ok {
				return 0, false
			}
			score *= sub
		default:
			return 0, false
		}
	}
	return score, true
}

// rank orders results by score (ties keep ascending ID order) and truncates.
func (m *Matcher) rank(results []MatchResult) []MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if m.opts.MaxResults > 0 && len(results) > m.opts.MaxResults {
		results = results[:m.opts.MaxResults]
	}
	return results
}
