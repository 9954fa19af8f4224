package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotImplemented = errors.New("state: not implemented")

var ErrPanelRequired = errors.New("state: panel is required")

// Ref identifies one persisted snapshot for one grid panel.
type Ref struct {
	Panel string
	Owner string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single panel reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Hydrator is implemented by stores that can refresh their local copy from a
// slower source. After Hydrate returns nil, Load must return the hydrated value.
type Hydrator interface {
	Hydrate(ctx context.Context, ref Ref) error
}

// LegacyStore exposes raw per-field entries written by older persistence
// schemes. Field names are free-form (e.g. "viewMode", "expandState").
type LegacyStore interface {
	LoadLegacy(ctx context.Context, ref Ref, field string) ([]byte, bool, error)
	EraseLegacy(ctx context.Context, ref Ref, field string) error
}

// Identifier returns the deterministic storage key for r.
func (r Ref) Identifier() (string, error) {
	panel := strings.TrimSpace(r.Panel)
	if panel == "" {
		return "", ErrPanelRequired
	}
	if strings.ContainsAny(panel, "/.") {
		return "", fmt.Errorf("state: panel %q must not contain '/' or '.'", panel)
	}
	owner := strings.TrimSpace(r.Owner)
	if owner == "" {
		return fmt.Sprintf("panel/%s", panel), nil
	}
	if strings.Contains(owner, "/") {
		return "", fmt.Errorf("state: owner %q must not contain '/'", owner)
	}
	return fmt.Sprintf("user/%s/%s", owner, panel), nil
}

// LegacyIdentifier returns the storage key of a legacy per-field entry.
func (r Ref) LegacyIdentifier(field string) (string, error) {
	id, err := r.Identifier()
	if err != nil {
		return "", err
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return "", fmt.Errorf("state: legacy field is required")
	}
	return id + "." + field, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
