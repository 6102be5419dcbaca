package inference

import (
	"math"
	"testing"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
)

func chain(t *testing.T, names ...string) *atomspace.Space {
	t.Helper()
	s := atomspace.New()
	for i := 0; i+1 < len(names); i++ {
		s.AddInheritance(names[i], names[i+1])
	}
	return s
}

func TestBackwardChainExistingGoal(t *testing.T) {
	s := chain(t, "Dog", "Animal")
	e := newEngine(s)

	for _, depth := range []int{0, 1, 5} {
		proof := e.BackwardChain(S(atomspace.InheritanceLink, "Dog", "Animal"), depth)
		if !proof.Proved || len(proof.Results) != 0 {
			t.Errorf("depth %d: existing goal should be proved without derivation, got %+v", depth, proof)
		}
	}

	if !e.BackwardChain(S(atomspace.InheritanceLink, "Dog", "$X"), 0).Proved {
		t.Error("goal with an open variable should match the existing link")
	}
}

func TestBackwardChainDepthZero(t *testing.T) {
	s := chain(t, "Dog", "Animal", "Thing")
	e := newEngine(s)
	e.AddDefaultRules()

	if proof := e.BackwardChain(S(atomspace.InheritanceLink, "Dog", "Thing"), 0); proof.Proved {
		t.Errorf("depth 0 must not derive, got %+v", proof)
	}
}

func TestBackwardChainTransitive(t *testing.T) {
	s := chain(t, "Dog", "Mammal", "Animal", "Thing")
	e := newEngine(s)
	e.AddDefaultRules()
	goal := S(atomspace.InheritanceLink, "Dog", "Thing")

	if proof := e.BackwardChain(goal, 1); proof.Proved {
		t.Fatalf("one level is not enough for a three link chain, got %+v", proof)
	}

	proof := e.BackwardChain(goal, 2)
	if !proof.Proved {
		t.Fatal("expected Dog<Thing to be proved")
	}
	if len(proof.Results) != 2 {
		t.Fatalf("expected the sub-goal and the goal to be derived, got %+v", proof.Results)
	}

	sub, goalResult := proof.Results[0], proof.Results[1]
	if id, ok := inheritanceID(t, s, "Mammal", "Thing"); !ok || sub.AtomID != id {
		t.Errorf("first derivation should be Mammal<Thing, got %+v", sub)
	}
	if id, ok := inheritanceID(t, s, "Dog", "Thing"); !ok || goalResult.AtomID != id {
		t.Errorf("second derivation should be Dog<Thing, got %+v", goalResult)
	}
	if !approx(sub.Confidence, 0.9) {
		t.Errorf("sub-goal confidence = %v, want 0.9", sub.Confidence)
	}
	if want := 0.9 * math.Sqrt(0.9); !approx(goalResult.Confidence, want) {
		t.Errorf("goal confidence = %v, want %v", goalResult.Confidence, want)
	}

	// Now stored, the goal is proved directly.
	if again := e.BackwardChain(goal, 0); !again.Proved || len(again.Results) != 0 {
		t.Errorf("derived goal should now exist, got %+v", again)
	}
}

func TestBackwardChainDepthCappedByOptions(t *testing.T) {
	s := chain(t, "Dog", "Mammal", "Animal", "Thing")
	opts := DefaultOptions()
	opts.MaxDepth = 1
	e := New(s, opts)
	e.AddDefaultRules()

	if proof := e.BackwardChain(S(atomspace.InheritanceLink, "Dog", "Thing"), 10); proof.Proved {
		t.Errorf("requested depth should be capped at 1, got %+v", proof)
	}
}

func TestBackwardChainCycles(t *testing.T) {
	s := atomspace.New()
	s.AddConcept("x")
	s.AddConcept("y")
	e := newEngine(s)
	e.AddDefaultRules()

	// similarity symmetry points straight back at the goal
	if proof := e.BackwardChain(S(atomspace.SimilarityLink, "x", "y"), 10); proof.Proved {
		t.Errorf("symmetric cycle must not prove anything, got %+v", proof)
	}

	s.AddInheritance("a", "b")
	s.AddInheritance("b", "a")
	s.AddConcept("c")
	before := s.Size()
	if proof := e.BackwardChain(S(atomspace.InheritanceLink, "a", "c"), 10); proof.Proved {
		t.Errorf("a<c is not derivable, got %+v", proof)
	}
	if s.Size() != before {
		t.Errorf("failed proof created atoms: %d -> %d", before, s.Size())
	}
}

func TestBackwardChainNoApplicableRule(t *testing.T) {
	s := chain(t, "Dog", "Animal")
	e := newEngine(s)
	e.AddDefaultRules()

	if proof := e.BackwardChain(S(atomspace.ListLink, "Dog", "Animal"), 5); proof.Proved {
		t.Errorf("no rule concludes ListLink, got %+v", proof)
	}
}

func TestBackwardChainBacktracks(t *testing.T) {
	// Dog has two parents; only the second leads to Thing.
	s := atomspace.New()
	s.AddInheritance("Dog", "Pet")
	s.AddInheritance("Dog", "Animal")
	s.AddInheritance("Animal", "Thing")
	e := newEngine(s)
	e.AddDefaultRules()

	proof := e.BackwardChain(S(atomspace.InheritanceLink, "Dog", "Thing"), 1)
	if !proof.Proved || len(proof.Results) != 1 {
		t.Fatalf("expected a single derivation through Animal, got %+v", proof)
	}
}
