package atomspace

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

func populated() *Space {
	s := New()
	s.AddInheritance("Dog", "Animal", WithTruth(MustTruthValue(0.9, 0.8)))
	s.AddInheritance("Animal", "Thing")
	s.AddEvaluation("likes", []string{"Dog", "Bone"})
	s.AddSimilarity("Dog", "Wolf")
	s.AddPredicate("barks")
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	src := populated()
	data := src.Export()

	dst := New()
	if err := dst.Import(data); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if dst.Size() != src.Size() {
		t.Errorf("size mismatch: %d vs %d", dst.Size(), src.Size())
	}
	if dst.NextID() != src.NextID() {
		t.Errorf("next id mismatch: %d vs %d", dst.NextID(), src.NextID())
	}
	for _, typ := range src.Types() {
		if diff := cmp.Diff(src.FindByType(typ), dst.FindByType(typ)); diff != "" {
			t.Errorf("FindByType(%s) mismatch (-src +dst):\n%s", typ, diff)
		}
	}
	for _, name := range src.Names() {
		if diff := cmp.Diff(src.FindByName(name), dst.FindByName(name)); diff != "" {
			t.Errorf("FindByName(%q) mismatch (-src +dst):\n%s", name, diff)
		}
	}
	if diff := cmp.Diff(data, dst.Export()); diff != "" {
		t.Errorf("re-export differs (-want +got):\n%s", diff)
	}

	// Dedup keeps working against imported atoms.
	before := dst.Size()
	dst.AddInheritance("Dog", "Animal")
	if dst.Size() != before {
		t.Error("imported atoms are not visible to dedup")
	}
}

func TestImportJSONRoundTrip(t *testing.T) {
	src := populated()
	raw, err := src.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	dst := New()
	if err := dst.ImportJSON(raw); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}
	if diff := cmp.Diff(src.Export(), dst.Export()); diff != "" {
		t.Errorf("json round trip mismatch:\n%s", diff)
	}
}

func TestImportRejectsInvalidAndKeepsState(t *testing.T) {
	good := populated().Export()

	tests := []struct {
		name   string
		mutate func(*Structure)
	}{
		{"dangling outgoing", func(d *Structure) {
			d.Atoms["1000"] = AtomRecord{Type: "ListLink", Outgoing: []ID{1, 999}}
			d.NextID = 1001
		}},
		{"bad key", func(d *Structure) {
			d.Atoms["abc"] = AtomRecord{Type: "ConceptNode", Name: "z"}
		}},
		{"next id too small", func(d *Structure) {
			d.NextID = 2
		}},
		{"truth out of range", func(d *Structure) {
			rec := d.Atoms["1"]
			rec.TruthValue.Strength = 2
			d.Atoms["1"] = rec
		}},
		{"duplicate structure", func(d *Structure) {
			rec := d.Atoms["1"]
			d.Atoms["500"] = rec
			d.NextID = 501
		}},
		{"missing type", func(d *Structure) {
			d.Atoms["500"] = AtomRecord{Name: "untyped"}
			d.NextID = 501
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.AddConcept("existing")
			before := s.Export()

			data := populated().Export()
			tt.mutate(&data)
			err := s.Import(data)
			if !errors.Is(err, internalerr.ErrDeserialize) {
				t.Fatalf("expected ErrDeserialize, got %v", err)
			}
			if diff := cmp.Diff(before, s.Export()); diff != "" {
				t.Errorf("failed import changed the store:\n%s", diff)
			}
		})
	}

	// Sanity: the unmodified structure is accepted.
	if err := New().Import(good); err != nil {
		t.Fatalf("valid structure rejected: %v", err)
	}
}

func TestImportJSONMalformed(t *testing.T) {
	s := New()
	if err := s.ImportJSON([]byte("{not json")); !errors.Is(err, internalerr.ErrDeserialize) {
		t.Errorf("expected ErrDeserialize, got %v", err)
	}
}
