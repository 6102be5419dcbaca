package inference

import (
	"maps"

	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/pattern"
)

// BackwardChain tries to prove goal. A goal already present in the space is
// proved immediately, whatever maxDepth is. Otherwise rules concluding the
// goal's type are tried, their premises satisfied by existing atoms or proved
// recursively one level deeper. maxDepth is capped by Options.MaxDepth.
func (e *Engine) BackwardChain(goal Schema, maxDepth int) Proof {
	maxDepth = min(maxDepth, e.opts.MaxDepth)

	var results []Result
	proved := e.prove(goal, maxDepth, map[string]bool{}, &results)

	e.logger.Info("backward chaining completed",
		zap.Stringer("goal", goal),
		zap.Bool("proved", proved),
		zap.Int("inferences", len(results)))
	return Proof{Proved: proved, Results: results}
}

func (e *Engine) exists(goal Schema) bool {
	return e.matcher.Exists(toPattern(goal, nil))
}

// prove works on its own copy of the visited set so sibling premises do not
// prune each other; only ancestors on the current path count as cycles.
func (e *Engine) prove(goal Schema, depth int, visited map[string]bool, results *[]Result) bool {
	if e.exists(goal) {
		return true
	}
	if depth <= 0 {
		return false
	}
	sig := goal.String()
	if visited[sig] {
		return false
	}
	path := maps.Clone(visited)
	path[sig] = true

	for _, rule := range e.rules {
		if rule.Conclusion.Type != goal.Type {
			continue
		}
		seed, ok := e.unify(rule.Conclusion, goal)
		if !ok {
			continue
		}
		if e.applyBackward(rule, seed, depth, path, results) {
			return true
		}
	}
	return false
}

func (e *Engine) applyBackward(rule Rule, seed pattern.Bindings, depth int, path map[string]bool, results *[]Result) bool {
	sol, ok := e.provePremises(rule.Premises, solution{bindings: seed}, depth, path, results)
	if !ok {
		return false
	}
	g, ok := e.ground(rule.Conclusion, sol.bindings)
	if !ok {
		return false
	}
	if _, exists := e.lookup(g); exists {
		return true
	}
	conf := e.confidence(rule.Confidence, sol.premises)
	if conf < e.opts.MinConfidence {
		return false
	}
	id, err := e.materialize(g, conf)
	if err != nil {
		return false
	}
	*results = append(*results, Result{
		AtomID:     id,
		RuleName:   rule.Name,
		PremiseIDs: sol.premises,
		Confidence: conf,
	})
	e.logger.Debug("proved sub-goal",
		zap.String("rule", rule.Name),
		zap.Int64("id", int64(id)),
		zap.Float64("confidence", conf))
	return true
}

// provePremises satisfies premises left to right, backtracking over the
// existing atoms that match each one. A premise with no existing support is
// proved recursively and then matched again.
func (e *Engine) provePremises(premises []Schema, sol solution, depth int, path map[string]bool, results *[]Result) (solution, bool) {
	if len(premises) == 0 {
		return sol, true
	}
	premise, rest := premises[0], premises[1:]

	try := func() (solution, bool, bool) {
		candidates := e.matcher.Match(toPattern(premise, sol.bindings))
		for _, r := range candidates {
			next, ok := sol.extend(r.Bindings, r.AtomID)
			if !ok {
				continue
			}
			if done, ok := e.provePremises(rest, next, depth, path, results); ok {
				return done, true, true
			}
		}
		return solution{}, false, len(candidates) > 0
	}

	done, ok, supported := try()
	if ok {
		return done, true
	}
	if supported {
		return solution{}, false
	}

	if !e.prove(substitute(premise, sol.bindings), depth-1, path, results) {
		return solution{}, false
	}
	done, ok, _ = try()
	return done, ok
}

// unify binds the conclusion's variables to the literal parts of goal. Goal
// variables stay open. It fails on conflicting literals or arity.
func (e *Engine) unify(conclusion, goal Schema) (pattern.Bindings, bool) {
	b := pattern.Bindings{}
	bind := func(name string, v pattern.Value) bool {
		if prev, ok := b[name]; ok {
			return prev == v
		}
		b[name] = v
		return true
	}

	if goal.Name != "" {
		if _, goalVar := goal.NameVar(); !goalVar {
			if v, ok := conclusion.NameVar(); ok {
				if !bind(v, pattern.NameValue(goal.Name)) {
					return nil, false
				}
			} else if conclusion.Name != goal.Name {
				return nil, false
			}
		}
	}

	if len(goal.Outgoing) == 0 {
		return b, true
	}
	if len(conclusion.Outgoing) != len(goal.Outgoing) {
		return nil, false
	}
	for i, gt := range goal.Outgoing {
		if gt.IsVar() {
			continue
		}
		ct := conclusion.Outgoing[i]
		if v, ok := ct.Var(); ok {
			if !bind(v, termValue(gt)) {
				return nil, false
			}
			continue
		}
		if !e.sameAtom(ct, gt) {
			return nil, false
		}
	}
	return b, true
}

func termValue(t Term) pattern.Value {
	if id, ok := t.ID(); ok {
		return pattern.IDValue(id)
	}
	n, _ := t.Name()
	return pattern.NameValue(n)
}

// sameAtom compares two literal terms, resolving IDs to names when the kinds differ.
func (e *Engine) sameAtom(a, b Term) bool {
	if a == b {
		return true
	}
	an, aName := e.termName(a)
	bn, bName := e.termName(b)
	return aName && bName && an == bn
}

func (e *Engine) termName(t Term) (string, bool) {
	if n, ok := t.Name(); ok {
		return n, true
	}
	if id, ok := t.ID(); ok {
		if a, exists := e.space.Get(id); exists {
			return a.Name, true
		}
	}
	return "", false
}
