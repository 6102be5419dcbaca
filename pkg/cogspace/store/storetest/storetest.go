// Package storetest is a behaviour suite shared by every SnapshotStore backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/store"
)

// Sample builds a small space and returns its export.
func Sample(t *testing.T) atomspace.Structure {
	t.Helper()
	s := atomspace.New()
	s.AddInheritance("Dog", "Animal", atomspace.WithTruth(atomspace.MustTruthValue(0.9, 0.8)))
	s.AddSimilarity("Cat", "Lion")
	s.AddEvaluation("likes", []string{"alice", "bob"})
	return s.Export()
}

// Run exercises a fresh, empty store returned by open. open is called once
// per subtest and the store is closed afterwards.
func Run(t *testing.T, open func(t *testing.T) store.SnapshotStore) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		st := open(t)
		defer st.Close()

		if _, ok, err := st.Latest(ctx); err != nil || ok {
			t.Errorf("Latest on empty store = %v, %v", ok, err)
		}
		infos, err := st.List(ctx, 0)
		if err != nil || len(infos) != 0 {
			t.Errorf("List on empty store = %v, %v", infos, err)
		}
		if _, ok, err := st.Get(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); err != nil || ok {
			t.Errorf("Get of unknown id = %v, %v", ok, err)
		}
	})

	t.Run("SaveGetRoundTrip", func(t *testing.T) {
		st := open(t)
		defer st.Close()

		data := Sample(t)
		saved, err := st.Save(ctx, "first", data)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if !store.ValidID(saved.ID) || saved.Label != "first" || saved.CreatedAt.IsZero() {
			t.Errorf("unexpected snapshot header %+v", saved.Info())
		}

		got, ok, err := st.Get(ctx, saved.ID)
		if err != nil || !ok {
			t.Fatalf("Get = %v, %v", ok, err)
		}
		if diff := cmp.Diff(data, got.Structure); diff != "" {
			t.Errorf("structure mismatch (-want +got):\n%s", diff)
		}
		if !got.CreatedAt.Equal(saved.CreatedAt) {
			t.Errorf("created_at %v != %v", got.CreatedAt, saved.CreatedAt)
		}

		restored := atomspace.New()
		if err := restored.Import(got.Structure); err != nil {
			t.Fatalf("restored structure does not import: %v", err)
		}
		if restored.Size() != len(data.Atoms) {
			t.Errorf("restored %d atoms, want %d", restored.Size(), len(data.Atoms))
		}
	})

	t.Run("SnapshotIsolated", func(t *testing.T) {
		st := open(t)
		defer st.Close()

		data := Sample(t)
		saved, err := st.Save(ctx, "", data)
		if err != nil {
			t.Fatal(err)
		}
		for k := range data.Atoms {
			delete(data.Atoms, k)
		}
		got, _, err := st.Get(ctx, saved.ID)
		if err != nil || len(got.Structure.Atoms) == 0 {
			t.Errorf("stored snapshot changed with the caller's map: %d atoms, %v", len(got.Structure.Atoms), err)
		}
	})

	t.Run("LatestAndList", func(t *testing.T) {
		st := open(t)
		defer st.Close()

		var ids []string
		for _, label := range []string{"a", "b", "c"} {
			snap, err := st.Save(ctx, label, Sample(t))
			if err != nil {
				t.Fatal(err)
			}
			ids = append(ids, snap.ID)
		}

		latest, ok, err := st.Latest(ctx)
		if err != nil || !ok || latest.ID != ids[2] || latest.Label != "c" {
			t.Errorf("Latest = %s %q (%v, %v), want %s", latest.ID, latest.Label, ok, err, ids[2])
		}

		infos, err := st.List(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, info := range infos {
			got = append(got, info.ID)
		}
		if diff := cmp.Diff([]string{ids[2], ids[1], ids[0]}, got); diff != "" {
			t.Errorf("List should be newest first (-want +got):\n%s", diff)
		}
		if infos[0].Atoms == 0 || infos[0].NextID == 0 {
			t.Errorf("info missing counts: %+v", infos[0])
		}

		limited, err := st.List(ctx, 2)
		if err != nil || len(limited) != 2 || limited[0].ID != ids[2] {
			t.Errorf("List(2) = %+v, %v", limited, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		st := open(t)
		defer st.Close()

		first, err := st.Save(ctx, "keep", Sample(t))
		if err != nil {
			t.Fatal(err)
		}
		second, err := st.Save(ctx, "drop", Sample(t))
		if err != nil {
			t.Fatal(err)
		}

		if err := st.Delete(ctx, second.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok, _ := st.Get(ctx, second.ID); ok {
			t.Error("deleted snapshot still readable")
		}
		latest, ok, err := st.Latest(ctx)
		if err != nil || !ok || latest.ID != first.ID {
			t.Errorf("Latest after delete = %s, want %s", latest.ID, first.ID)
		}
		if infos, _ := st.List(ctx, 0); len(infos) != 1 {
			t.Errorf("List after delete has %d entries", len(infos))
		}
		if err := st.Delete(ctx, second.ID); !errors.Is(err, internalerr.ErrNotFound) {
			t.Errorf("second Delete err = %v, want ErrNotFound", err)
		}
	})
}
