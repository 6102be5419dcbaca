package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// Knowledge is the seed content added to a fresh atomspace.
//
//	knowledge:
//	  concepts: [Dog, {name: Cat, truth: {strength: 0.9, confidence: 0.8}}]
//	  inheritance:
//	    - [Dog, Animal]
//	    - {from: Cat, to: Animal, truth: {strength: 1, confidence: 0.7}}
//	  evaluations:
//	    - {predicate: likes, args: [alice, bob]}
type Knowledge struct {
	Concepts     []Node       `yaml:"concepts"`
	Predicates   []Node       `yaml:"predicates"`
	Inheritance  []Pair       `yaml:"inheritance"`
	Similarity   []Pair       `yaml:"similarity"`
	Implications []Pair       `yaml:"implications"`
	Evaluations  []Evaluation `yaml:"evaluations"`
}

// Node is a named node. In YAML it is either a bare name or a mapping.
type Node struct {
	Name  string `yaml:"name"`
	Truth *Truth `yaml:"truth,omitempty"`
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		n.Name = value.Value
		return nil
	}
	type plain Node
	return value.Decode((*plain)(n))
}

// Pair is a binary link between two concepts, written as [from, to] or as a mapping.
type Pair struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Truth *Truth `yaml:"truth,omitempty"`
}

func (p *Pair) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []string
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: expected [from, to], got %d items", value.Line, len(pair))
		}
		p.From, p.To = pair[0], pair[1]
		return nil
	}
	type plain Pair
	return value.Decode((*plain)(p))
}

// Evaluation asserts a predicate over one or more concepts.
type Evaluation struct {
	Predicate string   `yaml:"predicate"`
	Args      []string `yaml:"args"`
	Truth     *Truth   `yaml:"truth,omitempty"`
}

// Empty reports whether there is nothing to seed.
func (k Knowledge) Empty() bool {
	return len(k.Concepts)+len(k.Predicates)+len(k.Inheritance)+
		len(k.Similarity)+len(k.Implications)+len(k.Evaluations) == 0
}

func (k Knowledge) validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: knowledge."+format, append([]any{internalerr.ErrInvalidConfig}, args...)...))
	}
	checkTruth := func(where string, i int, t *Truth) {
		if err := t.check(); err != nil {
			bad("%s[%d]: %v", where, i, err)
		}
	}

	for i, n := range k.Concepts {
		if n.Name == "" {
			bad("concepts[%d]: name is required", i)
		}
		checkTruth("concepts", i, n.Truth)
	}
	for i, n := range k.Predicates {
		if n.Name == "" {
			bad("predicates[%d]: name is required", i)
		}
		checkTruth("predicates", i, n.Truth)
	}
	pairs := []struct {
		where string
		list  []Pair
	}{
		{"inheritance", k.Inheritance},
		{"similarity", k.Similarity},
		{"implications", k.Implications},
	}
	for _, group := range pairs {
		where := group.where
		for i, p := range group.list {
			if p.From == "" || p.To == "" {
				bad("%s[%d]: from and to are required", where, i)
			}
			checkTruth(where, i, p.Truth)
		}
	}
	for i, ev := range k.Evaluations {
		if ev.Predicate == "" || len(ev.Args) == 0 {
			bad("evaluations[%d]: predicate and args are required", i)
		}
		checkTruth("evaluations", i, ev.Truth)
	}
	return errors.Join(errs...)
}

// Apply adds the seed knowledge to space. Atoms already present are kept, but
// an explicit truth value overwrites theirs.
func (k Knowledge) Apply(space *atomspace.Space) error {
	if err := k.validate(); err != nil {
		return err
	}
	for _, n := range k.Concepts {
		n.Truth.set(space, space.AddConcept(n.Name))
	}
	for _, n := range k.Predicates {
		n.Truth.set(space, space.AddPredicate(n.Name))
	}
	binary := []struct {
		pairs []Pair
		add   func(a, b string, opts ...atomspace.AtomOption) atomspace.ID
	}{
		{k.Inheritance, space.AddInheritance},
		{k.Similarity, space.AddSimilarity},
		{k.Implications, space.AddImplication},
	}
	for _, b := range binary {
		for _, p := range b.pairs {
			p.Truth.set(space, b.add(p.From, p.To))
		}
	}
	for _, ev := range k.Evaluations {
		ev.Truth.set(space, space.AddEvaluation(ev.Predicate, ev.Args))
	}
	return nil
}
