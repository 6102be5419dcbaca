// Package cogspace wires an atomspace, a pattern matcher and an inference
// engine together behind one facade, with optional snapshot persistence.
package cogspace

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/config"
	"github.com/cognicore/cogspace/pkg/cogspace/inference"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/pattern"
	"github.com/cognicore/cogspace/pkg/cogspace/store"
	"github.com/cognicore/cogspace/pkg/cogspace/store/badgerstore"
	"github.com/cognicore/cogspace/pkg/cogspace/store/memstore"
	"github.com/cognicore/cogspace/pkg/cogspace/store/sqlite"
)

// CogSpace is the main reasoning facade
type CogSpace struct {
	space   *atomspace.Space
	matcher *pattern.Matcher
	engine  *inference.Engine
	store   store.SnapshotStore
	logger  *zap.Logger
}

// Options configures a CogSpace instance
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Rules are registered after the configured ones.
	Rules []inference.Rule
	// Store enables Checkpoint and Restore. Closed by Close.
	Store  store.SnapshotStore
	Logger *zap.Logger
}

// New builds the space, matcher and engine, then seeds rules and knowledge.
func New(opts Options) (*CogSpace, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	space := atomspace.New(atomspace.WithLogger(logger.Named("atomspace")))
	c := &CogSpace{
		space:   space,
		matcher: pattern.NewMatcher(space, cfg.MatcherOptions(logger.Named("matcher"))),
		engine:  inference.New(space, cfg.EngineOptions(logger.Named("inference"))),
		store:   opts.Store,
		logger:  logger,
	}

	if cfg.DefaultRules {
		c.engine.AddDefaultRules()
	}
	rules, err := cfg.ParsedRules()
	if err != nil {
		return nil, err
	}
	for _, r := range append(rules, opts.Rules...) {
		if err := c.engine.AddRule(r); err != nil {
			return nil, err
		}
	}
	if err := cfg.Knowledge.Apply(space); err != nil {
		return nil, err
	}

	logger.Info("cogspace ready",
		zap.Int("atoms", space.Size()),
		zap.Int("rules", len(c.engine.Rules())),
		zap.Bool("snapshots", c.store != nil))
	return c, nil
}

// Close cleanly shuts down the snapshot store, if any
func (c *CogSpace) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *CogSpace) Space() *atomspace.Space    { return c.space }
func (c *CogSpace) Matcher() *pattern.Matcher  { return c.matcher }
func (c *CogSpace) Engine() *inference.Engine  { return c.engine }
func (c *CogSpace) Store() store.SnapshotStore { return c.store }

// Think forward chains until nothing new is derived or maxInferences is reached.
func (c *CogSpace) Think(maxInferences int) []inference.Result {
	return c.engine.ForwardChain(maxInferences)
}

// Prove parses goal in schema notation and backward chains to depth.
func (c *CogSpace) Prove(goal string, depth int) (inference.Proof, error) {
	sc, err := inference.ParseSchema(goal)
	if err != nil {
		return inference.Proof{}, err
	}
	return c.engine.BackwardChain(sc, depth), nil
}

// Ask returns atoms whose names contain text.
func (c *CogSpace) Ask(text string) []inference.Knowledge {
	return c.engine.QueryKnowledge(text)
}

// Match runs a query such as "ConceptNode($x)" or a bare name.
func (c *CogSpace) Match(query string) []pattern.MatchResult {
	return c.matcher.MatchQuery(query)
}

// Similar finds atoms resembling the atom called name.
func (c *CogSpace) Similar(name string, threshold float64) ([]pattern.MatchResult, error) {
	ids := c.space.FindByName(name)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no atom named %q", internalerr.ErrNotFound, name)
	}
	return c.matcher.FindSimilar(ids[0], threshold), nil
}

// Path finds the shortest inheritance chain from one concept to another.
func (c *CogSpace) Path(from, to string, maxDepth int) []inference.Step {
	return c.engine.FindPath(from, to, maxDepth)
}

// Checkpoint saves the current space to the snapshot store.
func (c *CogSpace) Checkpoint(ctx context.Context, label string) (store.Snapshot, error) {
	if c.store == nil {
		return store.Snapshot{}, fmt.Errorf("%w: no snapshot store configured", internalerr.ErrStoreUnavailable)
	}
	snap, err := c.store.Save(ctx, label, c.space.Export())
	if err != nil {
		return store.Snapshot{}, err
	}
	c.logger.Info("checkpoint saved", zap.String("id", snap.ID), zap.String("label", label), zap.Int("atoms", c.space.Size()))
	return snap, nil
}

// Restore replaces the space with a saved snapshot. On error the space is
// left untouched.
func (c *CogSpace) Restore(ctx context.Context, id string) error {
	if c.store == nil {
		return fmt.Errorf("%w: no snapshot store configured", internalerr.ErrStoreUnavailable)
	}
	snap, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: snapshot %s", internalerr.ErrNotFound, id)
	}
	return c.load(snap)
}

// RestoreLatest restores the newest snapshot. It reports false when the
// store is empty.
func (c *CogSpace) RestoreLatest(ctx context.Context) (store.Snapshot, bool, error) {
	if c.store == nil {
		return store.Snapshot{}, false, fmt.Errorf("%w: no snapshot store configured", internalerr.ErrStoreUnavailable)
	}
	snap, ok, err := c.store.Latest(ctx)
	if err != nil || !ok {
		return store.Snapshot{}, false, err
	}
	if err := c.load(snap); err != nil {
		return store.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (c *CogSpace) load(snap store.Snapshot) error {
	if err := c.space.Import(snap.Structure); err != nil {
		return fmt.Errorf("restore snapshot %s: %w", snap.ID, err)
	}
	c.logger.Info("snapshot restored", zap.String("id", snap.ID), zap.Int("atoms", c.space.Size()))
	return nil
}

// OpenStore opens the backend named in cfg. It returns nil for BackendNone.
func OpenStore(ctx context.Context, cfg config.SnapshotConfig, logger *zap.Logger) (store.SnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return memstore.New(), nil
	case config.BackendSQLite:
		return sqlite.OpenSQLite(ctx, cfg.Path, logger.Named("sqlite"))
	case config.BackendBadger:
		st, err := badgerstore.Open(badgerstore.Options{
			Dir:      cfg.Path,
			InMemory: cfg.InMemory,
			Logger:   logger.Named("badger"),
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown snapshot backend %q", internalerr.ErrInvalidConfig, cfg.Backend)
	}
}
