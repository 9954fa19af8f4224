package state_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-datagrid/pkg/state"
)

type snapshot struct {
	Hidden []string `json:"hidden"`
	Mode   string   `json:"mode"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[snapshot]()
	ref := state.Ref{Panel: "users"}

	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%t err=%v", ok, err)
	}

	input := snapshot{Hidden: []string{"email"}, Mode: "grouped"}
	meta, err := store.Save(ctx, ref, input, state.Meta{SnapshotID: "snap-1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID != "snap-1" || meta.UpdatedAt.IsZero() {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	input.Hidden[0] = "mutated"
	got, gotMeta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if got.Hidden[0] != "email" || got.Mode != "grouped" {
		t.Fatalf("expected stored copy to be detached, got %+v", got)
	}
	if gotMeta.SnapshotID != "snap-1" {
		t.Fatalf("expected snapshot id to persist, got %q", gotMeta.SnapshotID)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", store.Saves())
	}
}

func TestMemoryStoreKeepsPanelsApart(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[snapshot]()
	if _, err := store.Save(ctx, state.Ref{Panel: "users"}, snapshot{Mode: "flat"}, state.Meta{}); err != nil {
		t.Fatalf("save users: %v", err)
	}
	if _, err := store.Save(ctx, state.Ref{Panel: "orders"}, snapshot{Mode: "grouped"}, state.Meta{}); err != nil {
		t.Fatalf("save orders: %v", err)
	}
	got, _, _, _ := store.Load(ctx, state.Ref{Panel: "users"})
	if got.Mode != "flat" {
		t.Fatalf("expected users panel to keep its own snapshot, got %q", got.Mode)
	}
}

func TestMemoryStoreLegacyEntries(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[snapshot]()
	ref := state.Ref{Panel: "users"}

	if err := store.PutLegacy(ref, "viewMode", []byte("grouped")); err != nil {
		t.Fatalf("put legacy: %v", err)
	}
	raw, ok, err := store.LoadLegacy(ctx, ref, "viewMode")
	if err != nil || !ok || string(raw) != "grouped" {
		t.Fatalf("unexpected legacy load: raw=%q ok=%t err=%v", raw, ok, err)
	}
	if err := store.EraseLegacy(ctx, ref, "viewMode"); err != nil {
		t.Fatalf("erase legacy: %v", err)
	}
	if _, ok, _ := store.LoadLegacy(ctx, ref, "viewMode"); ok {
		t.Fatalf("expected legacy entry to be erased")
	}
}
