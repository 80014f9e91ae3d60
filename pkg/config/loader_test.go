package config_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/config"
)

func TestDefaultsMatchBuiltinSchemas(t *testing.T) {
	store := config.Default()

	if diff := cmp.Diff([]string{"days", "participants"}, store.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	for _, want := range []collection.Schema{collection.Participants(), collection.Days()} {
		got, err := store.Collection(want.Name)
		if err != nil {
			t.Fatalf("collection %s: %v", want.Name, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", want.Name, diff)
		}
	}
}

func TestLoadFSParsesYAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"stops.yml": {Data: []byte(`
collections:
  stops:
    containerId: stops-container
    itemClass: stop-row
    fields: [city, nights]
`)},
		"nested/guests.json": {Data: []byte(`{"collections":{"guests":{"containerId":"guests-container","itemClass":"guest","fields":["email"]}}}`)},
		"README.md":          {Data: []byte("ignored")},
	}
	store, err := config.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"guests", "stops"}, store.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	stops, err := store.Collection("stops")
	if err != nil {
		t.Fatalf("stops: %v", err)
	}
	if stops.Name != "stops" || stops.FieldName(1, "city") != "stops[1].city" {
		t.Fatalf("unexpected stops schema: %+v", stops)
	}
	if got := store.Source("guests"); got != "nested/guests.json" {
		t.Fatalf("source = %q", got)
	}
}

func TestLoadFSRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]struct {
		files fstest.MapFS
		want  string
	}{
		"empty file": {
			files: fstest.MapFS{"a.yaml": {Data: []byte("  ")}},
			want:  "is empty",
		},
		"invalid schema": {
			files: fstest.MapFS{"a.yaml": {Data: []byte("collections:\n  stops:\n    itemClass: stop\n")}},
			want:  "at least one field",
		},
		"duplicate": {
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("collections:\n  stops:\n    itemClass: s\n    fields: [a]\n")},
				"b.yaml": {Data: []byte("collections:\n  stops:\n    itemClass: s\n    fields: [a]\n")},
			},
			want: "duplicate collection",
		},
		"mismatched name": {
			files: fstest.MapFS{"a.yaml": {Data: []byte("collections:\n  stops:\n    name: legs\n    itemClass: s\n    fields: [a]\n")}},
			want:  "mismatched name",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadFS(tc.files)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestMergeOverridesAndUnknownLookup(t *testing.T) {
	store := config.Default()
	override, err := config.LoadFS(fstest.MapFS{"days.yaml": {Data: []byte(`
collections:
  days:
    containerId: days-container
    itemClass: day-card
    fields: [title, description, dayNumber]
    ordinalField: dayNumber
    ordinalLabelFormat: "Day %d"
`)}})
	if err != nil {
		t.Fatalf("load override: %v", err)
	}
	store.Merge(override)

	days, err := store.Collection("days")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if got := days.OrdinalLabel(0); got != "Day 1" {
		t.Fatalf("expected override label, got %q", got)
	}

	if _, err := store.Collection("rooms"); !errors.Is(err, config.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestLoadFSNil(t *testing.T) {
	store, err := config.LoadFS(nil)
	if err != nil {
		t.Fatalf("load nil: %v", err)
	}
	if len(store.Names()) != 0 {
		t.Fatalf("expected empty store")
	}
}
