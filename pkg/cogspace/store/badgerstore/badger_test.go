package badgerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
	"github.com/cognicore/cogspace/pkg/cogspace/store"
	"github.com/cognicore/cogspace/pkg/cogspace/store/storetest"
)

func TestBadgerStoreInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.SnapshotStore {
		st, err := OpenInMemory()
		if err != nil {
			t.Fatalf("OpenInMemory: %v", err)
		}
		return st
	})
}

func TestBadgerStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	saved, err := st.Save(ctx, "disk", storetest.Sample(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, ok, err := st.Get(ctx, saved.ID)
	if err != nil || !ok || got.Label != "disk" {
		t.Fatalf("Get after reopen = %+v, %v, %v", got.Info(), ok, err)
	}
}

func TestBadgerStoreClosed(t *testing.T) {
	st, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := st.Save(context.Background(), "", atomspace.New().Export()); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("Save after Close err = %v", err)
	}
}
