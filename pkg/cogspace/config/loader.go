package config

import (
	"fmt"
	"os"

	"github.com/cognicore/cogspace/pkg/cogspace/inference"
)

// Loader loads a config file and an optional rules file.
type Loader struct {
	ConfigPath string
	RulesPath  string
}

// Components holds everything the loader produced.
type Components struct {
	Config *Config
	// Rules come from the rules file. Inline rules stay in Config.Rules.
	Rules []inference.Rule
}

// Load reads both files. An empty ConfigPath yields Default().
func (l *Loader) Load() (*Components, error) {
	comp := &Components{Config: Default()}

	if l.ConfigPath != "" {
		cfg, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		comp.Config = cfg
	}

	if l.RulesPath != "" {
		data, err := os.ReadFile(l.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		fileRules, err := inference.ParseRules(string(data))
		if err != nil {
			return nil, fmt.Errorf("load rules %s: %w", l.RulesPath, err)
		}
		comp.Rules = fileRules
	}

	return comp, nil
}
