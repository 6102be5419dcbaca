// Package config loads cogspace settings and seed knowledge from YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/inference"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/pattern"
)

// Snapshot backends.
const (
	BackendNone   = ""
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the top-level configuration file.
type Config struct {
	Matcher      MatcherConfig  `yaml:"matcher"`
	Engine       EngineConfig   `yaml:"engine"`
	DefaultRules bool           `yaml:"default_rules"`
	Rules        []string       `yaml:"rules"`
	Knowledge    Knowledge      `yaml:"knowledge"`
	Snapshot     SnapshotConfig `yaml:"snapshot"`
}

type MatcherConfig struct {
	MaxResults          int     `yaml:"max_results"`
	Fuzzy               bool    `yaml:"fuzzy"`
	FuzzyThreshold      float64 `yaml:"fuzzy_threshold"`
	MaxNesting          int     `yaml:"max_nesting"`
	SimilarityCacheSize int     `yaml:"similarity_cache_size"`
}

type EngineConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxDepth      int     `yaml:"max_depth"`
	MaxBindings   int     `yaml:"max_bindings"`
}

// SnapshotConfig selects where checkpoints go. An empty backend disables them.
type SnapshotConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	m := pattern.DefaultOptions()
	e := inference.DefaultOptions()
	return &Config{
		Matcher: MatcherConfig{
			MaxResults:          m.MaxResults,
			Fuzzy:               m.Fuzzy,
			FuzzyThreshold:      m.FuzzyThreshold,
			MaxNesting:          m.MaxNesting,
			SimilarityCacheSize: m.SimilarityCacheSize,
		},
		Engine: EngineConfig{
			MaxIterations: e.MaxIterations,
			MinConfidence: e.MinConfidence,
			MaxDepth:      e.MaxDepth,
			MaxBindings:   e.MaxBindings,
		},
		DefaultRules: true,
	}
}

// Load reads and validates a YAML config file. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges, backend names, inline rules and seed knowledge.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{internalerr.ErrInvalidConfig}, args...)...))
	}

	if c.Matcher.MaxResults < 0 {
		bad("matcher.max_results must be >= 0, got %d", c.Matcher.MaxResults)
	}
	if !inUnit(c.Matcher.FuzzyThreshold) {
		bad("matcher.fuzzy_threshold must be in [0,1], got %v", c.Matcher.FuzzyThreshold)
	}
	if c.Matcher.MaxNesting < 0 {
		bad("matcher.max_nesting must be >= 0, got %d", c.Matcher.MaxNesting)
	}
	if c.Matcher.SimilarityCacheSize < 0 {
		bad("matcher.similarity_cache_size must be >= 0, got %d", c.Matcher.SimilarityCacheSize)
	}
	if c.Engine.MaxIterations < 1 {
		bad("engine.max_iterations must be >= 1, got %d", c.Engine.MaxIterations)
	}
	if !inUnit(c.Engine.MinConfidence) {
		bad("engine.min_confidence must be in [0,1], got %v", c.Engine.MinConfidence)
	}
	if c.Engine.MaxDepth < 1 {
		bad("engine.max_depth must be >= 1, got %d", c.Engine.MaxDepth)
	}

	switch c.Snapshot.Backend {
	case BackendNone, BackendMemory:
	case BackendSQLite:
		if c.Snapshot.Path == "" {
			bad("snapshot.path is required for the sqlite backend")
		}
	case BackendBadger:
		if c.Snapshot.Path == "" && !c.Snapshot.InMemory {
			bad("snapshot.path or snapshot.in_memory is required for the badger backend")
		}
	default:
		bad("unknown snapshot.backend %q", c.Snapshot.Backend)
	}

	for i, line := range c.Rules {
		r, err := inference.ParseRule(line)
		if err == nil {
			err = r.Validate()
		}
		if err != nil {
			bad("rules[%d]: %v", i, err)
		}
	}
	if err := c.Knowledge.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParsedRules parses the inline rule definitions.
func (c *Config) ParsedRules() ([]inference.Rule, error) {
	rules := make([]inference.Rule, 0, len(c.Rules))
	for i, line := range c.Rules {
		r, err := inference.ParseRule(line)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// MatcherOptions converts the matcher section.
func (c *Config) MatcherOptions(logger *zap.Logger) pattern.Options {
	return pattern.Options{
		MaxResults:          c.Matcher.MaxResults,
		Fuzzy:               c.Matcher.Fuzzy,
		FuzzyThreshold:      c.Matcher.FuzzyThreshold,
		MaxNesting:          c.Matcher.MaxNesting,
		SimilarityCacheSize: c.Matcher.SimilarityCacheSize,
		Logger:              logger,
	}
}

// EngineOptions converts the engine section.
func (c *Config) EngineOptions(logger *zap.Logger) inference.Options {
	return inference.Options{
		MaxIterations: c.Engine.MaxIterations,
		MinConfidence: c.Engine.MinConfidence,
		MaxDepth:      c.Engine.MaxDepth,
		MaxBindings:   c.Engine.MaxBindings,
		Logger:        logger,
	}
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Truth is an optional truth value on a seeded atom.
type Truth struct {
	Strength   float64 `yaml:"strength"`
	Confidence float64 `yaml:"confidence"`
}

func (t *Truth) check() error {
	if t == nil {
		return nil
	}
	_, err := atomspace.NewTruthValue(t.Strength, t.Confidence)
	return err
}

// set overwrites the truth of id when t is given.
func (t *Truth) set(space *atomspace.Space, id atomspace.ID) {
	if t == nil {
		return
	}
	space.UpdateTruthValue(id, atomspace.MustTruthValue(t.Strength, t.Confidence))
}
