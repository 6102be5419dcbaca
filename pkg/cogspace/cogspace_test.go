package cogspace

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/config"
	"github.com/cognicore/cogspace/pkg/cogspace/inference"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/store/memstore"
)

const taxonomy = `
knowledge:
  inheritance:
    - [Dog, Mammal]
    - [Mammal, Animal]
  similarity:
    - [Dog, Wolf]
`

func newTaxonomy(t *testing.T) *CogSpace {
	t.Helper()
	cfg, err := config.Parse([]byte(taxonomy))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	c, err := New(Options{Config: cfg, Store: memstore.New()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.Space().Size() != 0 {
		t.Errorf("fresh space should be empty, has %d atoms", c.Space().Size())
	}
	if got := len(c.Engine().Rules()); got != 3 {
		t.Errorf("expected the 3 default rules, got %d", got)
	}
	if c.Store() != nil {
		t.Error("no store was configured")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.MaxDepth = 0
	if _, err := New(Options{Config: cfg}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("invalid config err = %v", err)
	}

	dup := inference.DefaultRules()[0]
	if _, err := New(Options{Rules: []inference.Rule{dup}}); !errors.Is(err, internalerr.ErrInvalidRule) {
		t.Errorf("duplicate rule err = %v", err)
	}
}

func TestThinkAndProve(t *testing.T) {
	c := newTaxonomy(t)

	results := c.Think(10)
	// Dog<Animal by transitivity, Wolf~Dog by symmetry
	if len(results) != 2 {
		t.Fatalf("expected 2 inferences, got %+v", results)
	}

	proof, err := c.Prove("InheritanceLink(Dog, Animal)", 0)
	if err != nil || !proof.Proved {
		t.Errorf("derived link should be proved directly: %+v, %v", proof, err)
	}
	if _, err := c.Prove("InheritanceLink(Dog", 1); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("malformed goal err = %v", err)
	}
}

func TestQueries(t *testing.T) {
	c := newTaxonomy(t)

	if got := c.Ask("mam"); len(got) != 1 || got[0].Name != "Mammal" {
		t.Errorf("Ask(mam) = %+v", got)
	}
	if got := c.Match("ConceptNode($x)"); len(got) != 4 {
		t.Errorf("expected 4 concepts, got %d", len(got))
	}
	if got := c.Path("Dog", "Animal", 3); len(got) != 2 {
		t.Errorf("Path = %+v", got)
	}
	if _, err := c.Similar("Unicorn", 0.5); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Similar on unknown name err = %v", err)
	}
	similar, err := c.Similar("Dog", 0.1)
	if err != nil || len(similar) == 0 {
		t.Errorf("Similar(Dog) = %+v, %v", similar, err)
	}
}

func TestCheckpointRestore(t *testing.T) {
	ctx := context.Background()
	c := newTaxonomy(t)

	if _, ok, err := c.RestoreLatest(ctx); err != nil || ok {
		t.Fatalf("RestoreLatest on an empty store = %v, %v", ok, err)
	}

	before := c.Space().Export()
	snap, err := c.Checkpoint(ctx, "seeded")
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	c.Think(10)
	c.Space().AddConcept("Cat")
	if c.Space().Size() == len(before.Atoms) {
		t.Fatal("space should have grown")
	}

	if err := c.Restore(ctx, snap.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if c.Space().Size() != len(before.Atoms) || c.Space().NextID() != before.NextID {
		t.Errorf("restored %d atoms next %d, want %d next %d",
			c.Space().Size(), c.Space().NextID(), len(before.Atoms), before.NextID)
	}
	if len(c.Space().FindByName("Cat")) != 0 {
		t.Error("Cat was added after the checkpoint")
	}

	if err := c.Restore(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Restore of unknown id err = %v", err)
	}

	c.Space().AddConcept("Cat")
	latest, ok, err := c.RestoreLatest(ctx)
	if err != nil || !ok || latest.ID != snap.ID {
		t.Errorf("RestoreLatest = %s, %v, %v", latest.ID, ok, err)
	}
}

func TestCheckpointWithoutStore(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := c.Checkpoint(ctx, ""); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("Checkpoint err = %v", err)
	}
	if err := c.Restore(ctx, "x"); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("Restore err = %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.SnapshotConfig
		none bool
	}{
		{name: "none", cfg: config.SnapshotConfig{}, none: true},
		{name: "memory", cfg: config.SnapshotConfig{Backend: config.BackendMemory}},
		{name: "sqlite", cfg: config.SnapshotConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "s.db")}},
		{name: "badger", cfg: config.SnapshotConfig{Backend: config.BackendBadger, InMemory: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := OpenStore(ctx, tt.cfg, nil)
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			if tt.none {
				if st != nil {
					t.Error("expected no store")
				}
				return
			}
			defer st.Close()

			snap, err := st.Save(ctx, tt.name, atomspace.New().Export())
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if _, ok, err := st.Get(ctx, snap.ID); err != nil || !ok {
				t.Errorf("Get = %v, %v", ok, err)
			}
		})
	}

	if _, err := OpenStore(ctx, config.SnapshotConfig{Backend: "etcd"}, nil); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("unknown backend err = %v", err)
	}
}
