package inference

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

func TestParseSchema(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"InheritanceLink($A, Animal)", "InheritanceLink($A, Animal)"},
		{"  EvaluationLink( #3 , $x ) ", "EvaluationLink(#3, $x)"},
		{"ConceptNode:Dog", "ConceptNode:Dog"},
		{"PredicateNode:$p", "PredicateNode:$p"},
		{`ConceptNode:"New York"`, "ConceptNode:New York"},
		{`EvaluationLink("likes, a lot", $x)`, `EvaluationLink("likes, a lot", $x)`},
		{"ListLink()", "ListLink"},
		{`ConceptNode:"a(b"`, `ConceptNode:"a(b"`},
		{`ConceptNode:"a)b"`, `ConceptNode:"a)b"`},
		{`EvaluationLink:"f(x)"(#1, "g(y)")`, `EvaluationLink:"f(x)"(#1, "g(y)")`},
	}
	for _, tt := range tests {
		got, err := ParseSchema(tt.in)
		if err != nil {
			t.Errorf("ParseSchema(%q) error: %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseSchema(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseSchemaTerms(t *testing.T) {
	sc := MustSchema(`EvaluationLink(#7, $who, "a b")`)
	if len(sc.Outgoing) != 3 {
		t.Fatalf("expected 3 terms, got %d", len(sc.Outgoing))
	}
	if id, ok := sc.Outgoing[0].ID(); !ok || id != atomspace.ID(7) {
		t.Errorf("term 0 = %v", sc.Outgoing[0])
	}
	if v, ok := sc.Outgoing[1].Var(); !ok || v != "who" {
		t.Errorf("term 1 = %v", sc.Outgoing[1])
	}
	if n, ok := sc.Outgoing[2].Name(); !ok || n != "a b" {
		t.Errorf("term 2 = %v", sc.Outgoing[2])
	}
	if got := sc.Vars(); len(got) != 1 || got[0] != "who" {
		t.Errorf("Vars() = %v", got)
	}
}

func TestParseSchemaErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"InheritanceLink($A, Animal",
		"InheritanceLink)",
		"(A, B)",
		"$x(A)",
		"EvaluationLink(A, , B)",
		"EvaluationLink($)",
		"EvaluationLink(#0)",
		"EvaluationLink(#abc)",
		`EvaluationLink("open, B)`,
	} {
		if _, err := ParseSchema(in); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("ParseSchema(%q) err = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("transitivity 0.9: InheritanceLink($A, $B) & InheritanceLink($B, $C) => InheritanceLink($A, $C)")
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "transitivity" || r.Confidence != 0.9 || len(r.Premises) != 2 {
		t.Errorf("unexpected rule %+v", r)
	}
	if r.Conclusion.String() != "InheritanceLink($A, $C)" {
		t.Errorf("conclusion = %s", r.Conclusion)
	}

	r, err = ParseRule("axiom: => ConceptNode:Everything")
	if err != nil {
		t.Fatal(err)
	}
	if r.Confidence != 1.0 || len(r.Premises) != 0 || r.Conclusion.Name != "Everything" {
		t.Errorf("unexpected rule %+v", r)
	}
}

func TestParseRuleErrors(t *testing.T) {
	for _, in := range []string{
		"no colon here",
		"a b c: ConceptNode:x => ConceptNode:y",
		"bad x: ConceptNode:x => ConceptNode:y",
		"noarrow: ConceptNode:x",
		"badpremise: Foo( => ConceptNode:y",
		"badconclusion: ConceptNode:x => ",
	} {
		if _, err := ParseRule(in); !errors.Is(err, internalerr.ErrInvalidRule) {
			t.Errorf("ParseRule(%q) err = %v, want ErrInvalidRule", in, err)
		}
	}
}

func TestParseRules(t *testing.T) {
	text := `
# symmetric relations
sym: SimilarityLink($A, $B) => SimilarityLink($B, $A)

trans 0.8: InheritanceLink($A, $B) & InheritanceLink($B, $C) => InheritanceLink($A, $C)
`
	rules, err := ParseRules(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 || rules[0].Name != "sym" || rules[1].Confidence != 0.8 {
		t.Errorf("unexpected rules %+v", rules)
	}

	_, err = ParseRules("ok: => ConceptNode:x\n\nbroken rule\n")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error on line 3, got %v", err)
	}
	if !errors.Is(err, internalerr.ErrInvalidRule) {
		t.Errorf("line error should wrap ErrInvalidRule: %v", err)
	}
}

func TestParsedRulesDrive(t *testing.T) {
	rules, err := ParseRules("trans 0.9: InheritanceLink($A, $B) & InheritanceLink($B, $C) => InheritanceLink($A, $C)")
	if err != nil {
		t.Fatal(err)
	}
	s := chain(t, "Dog", "Animal", "Thing")
	e := newEngine(s)
	for _, r := range rules {
		if err := e.AddRule(r); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.ForwardChain(10); len(got) != 1 {
		t.Errorf("expected one inference from the parsed rule, got %+v", got)
	}
}
