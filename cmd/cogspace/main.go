// Command cogspace loads a knowledge base and reasons over it from the shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/cogspace/pkg/cogspace"
	"github.com/cognicore/cogspace/pkg/cogspace/config"
)

// app holds the global flags and the logger shared by all subcommands.
type app struct {
	configPath string
	rulesPath  string
	backend    string
	dbPath     string
	restore    bool
	verbose    bool

	logger *zap.Logger
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cogspace",
		Short: "Hypergraph knowledge store with pattern matching and rule-based inference",
		Long: `cogspace seeds an atomspace from a YAML config and rule file, then
forward chains, proves goals, matches patterns and navigates the graph.

Snapshots of the atomspace can be saved to memory, SQLite or BadgerDB and
restored with --restore.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			if a.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.rulesPath, "rules", "", "rule file, one rule per line")
	flags.StringVar(&a.backend, "backend", "", "snapshot backend: memory, sqlite or badger (overrides config)")
	flags.StringVar(&a.dbPath, "db", "", "snapshot database path (overrides config)")
	flags.BoolVar(&a.restore, "restore", false, "restore the latest snapshot before running")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(a),
		newQueryCmd(a),
		newMatchCmd(a),
		newProveCmd(a),
		newSimilarCmd(a),
		newPathCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newSnapshotsCmd(a),
		newRulesCmd(a),
		newReplCmd(a),
	)
	return root
}

// open builds a CogSpace from the flags. The caller must Close it.
func (a *app) open(ctx context.Context) (*cogspace.CogSpace, error) {
	loader := config.Loader{ConfigPath: a.configPath, RulesPath: a.rulesPath}
	comp, err := loader.Load()
	if err != nil {
		return nil, err
	}
	cfg := comp.Config
	if a.backend != "" {
		cfg.Snapshot.Backend = a.backend
	}
	if a.dbPath != "" {
		cfg.Snapshot.Path = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := cogspace.OpenStore(ctx, cfg.Snapshot, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cs, err := cogspace.New(cogspace.Options{
		Config: cfg,
		Rules:  comp.Rules,
		Store:  st,
		Logger: a.logger,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	if a.restore {
		snap, ok, err := cs.RestoreLatest(ctx)
		if err != nil {
			cs.Close()
			return nil, err
		}
		if ok {
			a.logger.Info("restored snapshot", zap.String("id", snap.ID), zap.String("label", snap.Label))
		}
	}
	return cs, nil
}
