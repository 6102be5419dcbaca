// Package inference implements rule-based forward and backward chaining over
// an atomspace, with confidence propagated from premises to conclusions.
//
// An Engine, like the Space it writes to, is single-writer: chaining must not
// run concurrently with other mutations of the same Space.
package inference

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/pattern"
)

// Options configures an Engine.
type Options struct {
	// MaxIterations bounds forward chaining rounds.
	MaxIterations int
	// MinConfidence discards weaker inferences.
	MinConfidence float64
	// MaxDepth is a ceiling on the depth requested from BackwardChain.
	MaxDepth int
	// MaxBindings bounds the partial binding sets kept per premise while
	// joining; <= 0 means unlimited. A capped join may miss conclusions.
	MaxBindings int
	Logger      *zap.Logger
}

// DefaultOptions returns the standard engine settings.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 100,
		MinConfidence: 0.1,
		MaxDepth:      16,
	}
}

// Engine holds a rule registry and chains over one Space.
type Engine struct {
	space   *atomspace.Space
	matcher *pattern.Matcher
	rules   []Rule
	opts    Options
	logger  *zap.Logger
}

// New creates an engine over space. Premises are matched with an exact,
// unbounded matcher so no binding is lost to fuzzy names or result caps.
func New(space *atomspace.Space, opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		space: space,
		matcher: pattern.NewMatcher(space, pattern.Options{
			MaxResults: 0,
			Fuzzy:      false,
			Logger:     logger,
		}),
		opts:   opts,
		logger: logger,
	}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

// AddRule validates and registers a rule.
func (e *Engine) AddRule(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, existing := range e.rules {
		if existing.Name == r.Name {
			return fmt.Errorf("%w: rule %s already registered", internalerr.ErrInvalidRule, r.Name)
		}
	}

	e.rules = append(e.rules, cloneRule(r))
	e.logger.Debug("added rule", zap.String("rule", r.Name))
	return nil
}

// AddDefaultRules registers inheritance transitivity, deduction and
// similarity symmetry. Rules already registered under those names are kept.
func (e *Engine) AddDefaultRules() {
	for _, r := range DefaultRules() {
		if e.hasRule(r.Name) {
			continue
		}
		e.rules = append(e.rules, r)
	}
	e.logger.Info("added default reasoning rules", zap.Int("rules", len(e.rules)))
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "inheritance_transitivity",
			Premises: []Schema{
				S(atomspace.InheritanceLink, "$A", "$B"),
				S(atomspace.InheritanceLink, "$B", "$C"),
			},
			Conclusion: S(atomspace.InheritanceLink, "$A", "$C"),
			Confidence: 0.9,
		},
		{
			Name: "deduction",
			Premises: []Schema{
				S(atomspace.ImplicationLink, "$A", "$B"),
				S(atomspace.EvaluationLink, "$A"),
			},
			Conclusion: S(atomspace.EvaluationLink, "$B"),
			Confidence: 0.8,
		},
		{
			Name:       "similarity_symmetry",
			Premises:   []Schema{S(atomspace.SimilarityLink, "$A", "$B")},
			Conclusion: S(atomspace.SimilarityLink, "$B", "$A"),
			Confidence: 1.0,
		},
	}
}

func (e *Engine) hasRule(name string) bool {
	for _, r := range e.rules {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Rules returns a copy of the registered rules in registration order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = cloneRule(r)
	}
	return out
}

func cloneRule(r Rule) Rule {
	premises := make([]Schema, len(r.Premises))
	for i, p := range r.Premises {
		premises[i] = cloneSchema(p)
	}
	r.Premises = premises
	r.Conclusion = cloneSchema(r.Conclusion)
	return r
}

func cloneSchema(s Schema) Schema {
	s.Outgoing = append([]Term(nil), s.Outgoing...)
	return s
}

// QueryKnowledge returns atoms whose name contains text, case-insensitively,
// in ascending ID order and capped at 10. Relevance is constant.
func (e *Engine) QueryKnowledge(text string) []Knowledge {
	const limit = 10
	needle := strings.ToLower(text)

	var out []Knowledge
	for _, id := range e.space.IDs() {
		a, _ := e.space.Get(id)
		if !strings.Contains(strings.ToLower(a.Name), needle) {
			continue
		}
		out = append(out, Knowledge{AtomID: id, Type: a.Type, Name: a.Name, Truth: a.Truth, Relevance: 1.0})
		if len(out) == limit {
			break
		}
	}
	return out
}

// ExplainInference reports the stored fields of an atom. How the atom came
// to exist is not recorded, so the text is a placeholder.
func (e *Engine) ExplainInference(id atomspace.ID) (Explanation, bool) {
	a, ok := e.space.Get(id)
	if !ok {
		return Explanation{}, false
	}
	return Explanation{
		AtomID:   id,
		Type:     a.Type,
		Name:     a.Name,
		Truth:    a.Truth,
		Outgoing: a.Outgoing,
		Text:     "Direct assertion or inference (derivation chain not tracked)",
	}, true
}

// confidence is ruleConfidence × the geometric mean of strength×confidence
// over the premise atoms.
func (e *Engine) confidence(ruleConfidence float64, premises []atomspace.ID) float64 {
	if len(premises) == 0 {
		return ruleConfidence
	}
	product := 1.0
	for _, id := range premises {
		w := 1.0
		if a, ok := e.space.Get(id); ok {
			w = a.Truth.Weight()
		}
		product *= w
	}
	return ruleConfidence * math.Pow(product, 1.0/float64(len(premises)))
}
