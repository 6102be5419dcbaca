package inference

import "go.uber.org/zap"

// ForwardChain applies every rule repeatedly until a round derives nothing
// new, MaxIterations rounds have run, or maxInferences results are collected.
func (e *Engine) ForwardChain(maxInferences int) []Result {
	if maxInferences <= 0 {
		return nil
	}

	var inferences []Result
	iteration := 0
	for iteration < e.opts.MaxIterations && len(inferences) < maxInferences {
		iteration++
		derived, truncated := 0, false
		for _, rule := range e.rules {
			results, cut := e.applyForward(rule, maxInferences-len(inferences))
			inferences = append(inferences, results...)
			derived += len(results)
			truncated = truncated || cut
			if len(inferences) >= maxInferences {
				break
			}
		}
		if derived == 0 {
			if truncated {
				// the dropped bindings are the same every round
				e.logger.Warn("forward chaining stopped on a truncated join; raise max_bindings for the full closure",
					zap.Int("max_bindings", e.opts.MaxBindings),
					zap.Int("iteration", iteration))
			}
			break
		}
	}

	e.logger.Info("forward chaining completed",
		zap.Int("inferences", len(inferences)),
		zap.Int("iterations", iteration))
	return inferences
}

// applyForward derives up to limit new conclusions of one rule. truncated
// reports that the join hit Options.MaxBindings.
func (e *Engine) applyForward(rule Rule, limit int) (results []Result, truncated bool) {
	sols, truncated := e.solve(rule.Premises, nil)
	for _, sol := range sols {
		g, ok := e.ground(rule.Conclusion, sol.bindings)
		if !ok {
			continue
		}
		if _, exists := e.lookup(g); exists {
			continue
		}
		conf := e.confidence(rule.Confidence, sol.premises)
		if conf < e.opts.MinConfidence {
			continue
		}
		id, err := e.materialize(g, conf)
		if err != nil {
			e.logger.Debug("conclusion not materialised", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		results = append(results, Result{
			AtomID:     id,
			RuleName:   rule.Name,
			PremiseIDs: sol.premises,
			Confidence: conf,
		})
		e.logger.Debug("inferred atom",
			zap.String("rule", rule.Name),
			zap.Int64("id", int64(id)),
			zap.Float64("confidence", conf))
		if len(results) >= limit {
			break
		}
	}
	return results, truncated
}
