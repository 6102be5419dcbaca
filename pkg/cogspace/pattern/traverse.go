package pattern

import "github.com/cognicore/cogspace/pkg/cogspace/atomspace"

// FindConnected walks incoming and outgoing edges breadth first from start,
// up to maxDepth hops. When allowedTypes is non-empty only atoms of those
// types are visited or expanded. Each atom is reported once, at its shortest
// depth, scored 1/depth. The start atom is never reported.
func (m *Matcher) FindConnected(start atomspace.ID, maxDepth int, allowedTypes []string) []MatchResult {
	if maxDepth <= 0 || !m.space.Has(start) {
		return nil
	}

	var allowed map[string]bool
	if len(allowedTypes) > 0 {
		allowed = make(map[string]bool, len(allowedTypes))
		for _, t := range allowedTypes {
			allowed[t] = true
		}
	}

	visited := map[atomspace.ID]bool{start: true}
	frontier := []atomspace.ID{start}
	var results []MatchResult

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []atomspace.ID
		for _, id := range frontier {
			a, ok := m.space.Get(id)
			if !ok {
				continue
			}
			for _, nb := range append(a.Incoming, a.Outgoing...) {
				if visited[nb] {
					continue
				}
				na, ok := m.space.Get(nb)
				if !ok {
					continue
				}
				if allowed != nil && !allowed[na.Type] {
					continue
				}
				visited[nb] = true
				results = append(results, MatchResult{
					AtomID:   nb,
					Bindings: Bindings{},
					Score:    1.0 / float64(depth),
					Depth:    depth,
				})
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return m.rank(results)
}
