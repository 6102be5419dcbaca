package pattern

import (
	"math"
	"testing"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
)

func TestFindConnectedZeroDepth(t *testing.T) {
	s, ids := animals(t)
	if got := exact(s).FindConnected(ids["Dog"], 0, nil); len(got) != 0 {
		t.Errorf("maxDepth 0 should return nothing, got %+v", got)
	}
}

func TestFindConnectedDepths(t *testing.T) {
	s, ids := animals(t)
	m := exact(s)

	got := m.FindConnected(ids["Dog"], 2, nil)
	depth := map[atomspace.ID]int{}
	for _, r := range got {
		depth[r.AtomID] = r.Depth
		if r.AtomID == ids["Dog"] {
			t.Error("start atom must be excluded")
		}
		if r.Score != 1.0/float64(r.Depth) {
			t.Errorf("score %v does not match depth %d", r.Score, r.Depth)
		}
	}
	if depth[ids["Dog<Animal"]] != 1 {
		t.Errorf("Dog<Animal should be one hop away, got %d", depth[ids["Dog<Animal"]])
	}
	if depth[ids["Animal"]] != 2 {
		t.Errorf("Animal should be two hops away, got %d", depth[ids["Animal"]])
	}
	if _, ok := depth[ids["Thing"]]; ok {
		t.Error("Thing is four hops away and must not be reached at depth 2")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Error("closer atoms must rank first")
		}
	}
}

func TestFindConnectedTypeFilter(t *testing.T) {
	s, ids := animals(t)
	got := exact(s).FindConnected(ids["Dog"], 5, []string{atomspace.InheritanceLink})
	if len(got) != 1 || got[0].AtomID != ids["Dog<Animal"] {
		t.Errorf("filter should stop at the first link, got %+v", got)
	}
}

func TestFindConnectedMissingStart(t *testing.T) {
	s, _ := animals(t)
	if got := exact(s).FindConnected(999, 3, nil); got != nil {
		t.Errorf("unknown start should yield nothing, got %+v", got)
	}
}

func TestFindSimilar(t *testing.T) {
	s := atomspace.New()
	dog := s.AddConcept("dog")
	dogs := s.AddConcept("dogs")
	s.AddConcept("zebra")
	s.AddPredicate("dog")
	m := exact(s)

	got := m.FindSimilar(dog, 0.7)
	if len(got) != 1 || got[0].AtomID != dogs {
		t.Fatalf("expected only 'dogs', got %+v", got)
	}
	// 0.5*0.75 + 0.3 + 0.2
	if want := 0.875; math.Abs(got[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}

	if got := m.FindSimilar(999, 0); got != nil {
		t.Errorf("unknown target should yield nothing, got %+v", got)
	}
}
