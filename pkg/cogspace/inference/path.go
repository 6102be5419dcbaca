package inference

import (
	"fmt"
	"slices"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
)

type hop struct {
	prev atomspace.ID
	link atomspace.ID
}

// FindPath finds the shortest chain of binary links leading from the concept
// named source to the concept named target, following each link from its
// first outgoing atom to its second. linkTypes defaults to InheritanceLink.
// It returns nil when no chain of at most maxDepth links exists.
func (e *Engine) FindPath(source, target string, maxDepth int, linkTypes ...string) []Step {
	if len(linkTypes) == 0 {
		linkTypes = []string{atomspace.InheritanceLink}
	}

	from, ok := e.resolveName(source)
	if !ok {
		return nil
	}
	to, ok := e.resolveName(target)
	if !ok || from == to {
		return nil
	}

	parent := map[atomspace.ID]hop{from: {}}
	frontier := []atomspace.ID{from}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []atomspace.ID
		for _, id := range frontier {
			for _, linkID := range e.space.Incoming(id) {
				link, _ := e.space.Get(linkID)
				if !slices.Contains(linkTypes, link.Type) || len(link.Outgoing) != 2 || link.Outgoing[0] != id {
					continue
				}
				dst := link.Outgoing[1]
				if _, seen := parent[dst]; seen {
					continue
				}
				parent[dst] = hop{prev: id, link: linkID}
				if dst == to {
					return e.buildPath(parent, from, to)
				}
				next = append(next, dst)
			}
		}
		frontier = next
	}
	return nil
}

// buildPath walks parent pointers back from to and emits steps source first.
func (e *Engine) buildPath(parent map[atomspace.ID]hop, from, to atomspace.ID) []Step {
	var steps []Step
	for cur := to; cur != from; cur = parent[cur].prev {
		h := parent[cur]
		link, _ := e.space.Get(h.link)
		fromName, toName := e.nameOf(h.prev), e.nameOf(cur)
		steps = append(steps, Step{
			Relation: link.Type,
			From:     fromName,
			To:       toName,
			LinkID:   h.link,
			Rule:     fmt.Sprintf("%s(%s, %s)", link.Type, fromName, toName),
		})
	}
	slices.Reverse(steps)
	for i := range steps {
		steps[i].Depth = i
	}
	return steps
}

func (e *Engine) nameOf(id atomspace.ID) string {
	a, _ := e.space.Get(id)
	return a.Name
}
