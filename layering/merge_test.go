package layering

import (
	"reflect"
	"testing"
)

type samplePatch struct {
	Search  *string  `json:"search,omitempty"`
	Page    *int     `json:"page,omitempty"`
	Hidden  []string `json:"hiddenColumns"`
	Labels  map[string]string
	Comment string
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestMergeStrongestPresentFieldWins(t *testing.T) {
	url := NewLayer(LevelURL, samplePatch{Page: intPtr(3)})
	persisted := NewLayer(LevelPersisted, samplePatch{Page: intPtr(2), Hidden: []string{"email"}})
	defaults := NewLayer(LevelDefaults, samplePatch{Search: strPtr(""), Page: intPtr(1), Hidden: []string{}, Comment: "defaults"})

	got, prov := Merge(defaults, persisted, url)

	if got.Page == nil || *got.Page != 3 {
		t.Fatalf("expected url page 3, got %v", got.Page)
	}
	if !reflect.DeepEqual(got.Hidden, []string{"email"}) {
		t.Fatalf("expected persisted hidden columns, got %#v", got.Hidden)
	}
	if got.Comment != "defaults" {
		t.Fatalf("expected defaults comment, got %q", got.Comment)
	}
	if prov.Source("page") != LevelURL {
		t.Fatalf("expected page provenance url, got %s", prov.Source("page"))
	}
	if prov.Source("hiddenColumns") != LevelPersisted {
		t.Fatalf("expected hiddenColumns provenance persisted, got %s", prov.Source("hiddenColumns"))
	}
	if prov.Source("Comment") != LevelDefaults {
		t.Fatalf("expected Comment provenance defaults, got %s", prov.Source("Comment"))
	}
	if prov.Source("Labels") != LevelUnknown {
		t.Fatalf("expected Labels to have no provenance, got %s", prov.Source("Labels"))
	}
}

func TestMergeEmptySliceIsPresent(t *testing.T) {
	url := NewLayer(LevelURL, samplePatch{Hidden: []string{}})
	persisted := NewLayer(LevelPersisted, samplePatch{Hidden: []string{"email"}})

	got, prov := Merge(url, persisted)
	if got.Hidden == nil || len(got.Hidden) != 0 {
		t.Fatalf("expected explicit empty slice to win, got %#v", got.Hidden)
	}
	if !prov.Has("hiddenColumns", LevelURL) {
		t.Fatalf("expected url provenance, got %s", prov.Source("hiddenColumns"))
	}
}

func TestMergeClonesValues(t *testing.T) {
	hidden := []string{"email"}
	layer := NewLayer(LevelPersisted, samplePatch{Hidden: hidden, Labels: map[string]string{"a": "b"}})
	hidden[0] = "mutated"

	got, _ := Merge(layer)
	if got.Hidden[0] != "email" {
		t.Fatalf("expected layer to be detached from caller slice, got %q", got.Hidden[0])
	}
	got.Labels["a"] = "changed"
	if layer.Patch.Labels["a"] != "b" {
		t.Fatalf("mutating merged map should not affect layer, got %q", layer.Patch.Labels["a"])
	}
}

func TestMergeZeroInput(t *testing.T) {
	got, prov := Merge[samplePatch]()
	if !reflect.DeepEqual(got, samplePatch{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
	if len(prov) != 0 {
		t.Fatalf("expected empty provenance, got %v", prov)
	}
}

func TestOrderDropsUnknownAndDuplicates(t *testing.T) {
	layers := Order(
		Layer[int]{Level: LevelDefaults, Patch: 1},
		Layer[int]{Level: LevelUnknown, Patch: 2},
		Layer[int]{Level: LevelURL, Patch: 3},
		Layer[int]{Level: LevelURL, Patch: 4},
		Layer[int]{Level: LevelHydrated, Patch: 5},
	)
	want := []Level{LevelURL, LevelHydrated, LevelDefaults}
	if len(layers) != len(want) {
		t.Fatalf("expected %d layers, got %d", len(want), len(layers))
	}
	for i, level := range want {
		if layers[i].Level != level {
			t.Fatalf("layer[%d] expected %s got %s", i, level, layers[i].Level)
		}
	}
	if layers[0].Patch != 3 {
		t.Fatalf("expected first url layer to be kept, got %d", layers[0].Patch)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"url":       LevelURL,
		"Persisted": LevelPersisted,
		"hydrated":  LevelHydrated,
		"defaults":  LevelDefaults,
		"bogus":     LevelUnknown,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
		if want != LevelUnknown && ParseLevel(want.String()) != want {
			t.Fatalf("String/ParseLevel round trip failed for %s", want)
		}
	}
}
