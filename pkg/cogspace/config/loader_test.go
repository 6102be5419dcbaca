package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Config == nil || !comp.Config.DefaultRules {
		t.Errorf("Should fall back to the default config, got %+v", comp.Config)
	}
	if len(comp.Rules) != 0 {
		t.Errorf("Rules should be empty, got %d", len(comp.Rules))
	}
}

func TestLoaderFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cogspace.yaml")
	rulesPath := filepath.Join(dir, "rules.txt")

	if err := os.WriteFile(cfgPath, []byte("default_rules: false\nrules:\n  - \"sym: SimilarityLink($A, $B) => SimilarityLink($B, $A)\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rules := `# taxonomy rules
trans 0.9: InheritanceLink($A, $B) & InheritanceLink($B, $C) => InheritanceLink($A, $C)
`
	if err := os.WriteFile(rulesPath, []byte(rules), 0644); err != nil {
		t.Fatal(err)
	}

	comp, err := (&Loader{ConfigPath: cfgPath, RulesPath: rulesPath}).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if comp.Config.DefaultRules {
		t.Error("default_rules should be false")
	}
	if len(comp.Config.Rules) != 1 {
		t.Errorf("inline rules = %v", comp.Config.Rules)
	}
	if len(comp.Rules) != 1 || comp.Rules[0].Name != "trans" {
		t.Errorf("file rules = %+v", comp.Rules)
	}
}

func TestLoaderNonExistent(t *testing.T) {
	for _, l := range []Loader{
		{ConfigPath: "/nonexistent/cogspace.yaml"},
		{RulesPath: "/nonexistent/rules.txt"},
	} {
		if _, err := l.Load(); err == nil {
			t.Errorf("Should error on %+v", l)
		}
	}
}

func TestLoaderBadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.txt")
	if err := os.WriteFile(path, []byte("ok: => ConceptNode:x\nnot a rule\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := (&Loader{RulesPath: path}).Load()
	if !errors.Is(err, internalerr.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}
