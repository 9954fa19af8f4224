package datagrid

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-datagrid/layering"
	"github.com/goliatone/go-datagrid/pkg/state"
)

// Field names of the per-field persistence scheme that predates Snapshot.
const (
	legacyViewMode      = "viewMode"
	legacyExpandState   = "expandState"
	legacyHiddenColumns = "hiddenColumns"
	legacyColumnOrder   = "columnOrder"
)

var legacyFields = []string{legacyViewMode, legacyExpandState, legacyHiddenColumns, legacyColumnOrder}

type legacyExpand struct {
	Mode   ExpandMode `json:"mode"`
	Groups []string   `json:"groups"`
}

// migrateLegacy folds per-field legacy entries into the unified snapshot,
// saves the unified shape and erases the legacy entries. Fields present in
// unified win over legacy ones. It reports whether anything was migrated.
func migrateLegacy(
	ctx context.Context,
	store state.Store[Snapshot],
	legacy state.LegacyStore,
	ref state.Ref,
	unified *Snapshot,
	logger Logger,
) (*Snapshot, bool) {
	var found []string
	var old Snapshot
	for _, field := range legacyFields {
		raw, ok, err := legacy.LoadLegacy(ctx, ref, field)
		if err != nil {
			logger.Warn("datagrid: read legacy state failed", "panel", ref.Panel, "field", field, "error", err)
			continue
		}
		if !ok {
			continue
		}
		found = append(found, field)
		if err := decodeLegacyField(&old, field, raw); err != nil {
			logger.Warn("datagrid: ignoring malformed legacy state",
				"panel", ref.Panel, "error", &DecodeError{Source: "legacy", Key: field, Err: err})
		}
	}
	if len(found) == 0 {
		return unified, false
	}

	layers := []layering.Layer[Snapshot]{layering.NewLayer(layering.LevelDefaults, old)}
	if unified != nil {
		layers = append(layers, layering.NewLayer(layering.LevelPersisted, *unified))
	}
	merged, _ := layering.Merge(layers...)

	if _, err := store.Save(ctx, ref, merged, state.Meta{}); err != nil {
		logger.Warn("datagrid: save migrated state failed", "panel", ref.Panel, "error", err)
		return &merged, false
	}
	for _, field := range found {
		if err := legacy.EraseLegacy(ctx, ref, field); err != nil {
			logger.Warn("datagrid: erase legacy state failed", "panel", ref.Panel, "field", field, "error", err)
		}
	}
	logger.Info("datagrid: migrated legacy state", "panel", ref.Panel, "fields", strings.Join(found, ","))
	return &merged, true
}

func decodeLegacyField(target *Snapshot, field string, raw []byte) error {
	switch field {
	case legacyViewMode:
		mode := ViewMode(unquote(raw))
		if !mode.Valid() {
			return fmt.Errorf("unknown view mode %q", raw)
		}
		target.ViewMode = &mode
	case legacyExpandState:
		var expand legacyExpand
		if err := json.Unmarshal(raw, &expand); err != nil {
			return err
		}
		if expand.Mode.Valid() {
			target.ExpandMode = ptr(expand.Mode)
		}
		if expand.Groups == nil {
			expand.Groups = []string{}
		}
		target.ExpandedGroups = cleanStrings(expand.Groups)
	case legacyHiddenColumns:
		var hidden []string
		if err := decodeJSONArray(string(raw), &hidden); err != nil {
			return err
		}
		target.HiddenColumns = cleanStrings(hidden)
	case legacyColumnOrder:
		var order []string
		if err := decodeJSONArray(string(raw), &order); err != nil {
			return err
		}
		target.ColumnOrder = cleanStrings(order)
	}
	return nil
}

// unquote accepts both a JSON string and a bare value.
func unquote(raw []byte) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(raw))
}
