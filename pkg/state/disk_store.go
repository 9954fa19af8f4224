package state

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"
)

// DiskStore persists snapshots as JSON files using diskv. Keys are the
// base64url encoded Ref identifiers so every snapshot maps to a flat file.
type DiskStore[T any] struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

type diskRecord[T any] struct {
	Snapshot T    `json:"snapshot"`
	Meta     Meta `json:"meta"`
}

// NewDiskStore opens (creating if needed) a diskv store rooted at basePath.
// A leading "~" is expanded to the user's home directory.
func NewDiskStore[T any](basePath string) (*DiskStore[T], error) {
	trimmed := strings.TrimSpace(basePath)
	if trimmed == "" {
		return nil, fmt.Errorf("state: disk store base path is required")
	}
	expanded, err := homedir.Expand(trimmed)
	if err != nil {
		return nil, fmt.Errorf("state: expand base path: %w", err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("state: ensure base path: %w", err)
	}
	return &DiskStore[T]{d: diskv.New(diskv.Options{
		BasePath:          expanded,
		AdvancedTransform: flatTransform,
		InverseTransform:  flatInverseTransform,
		CacheSizeMax:      256 * 1024,
	})}, nil
}

func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

func flatInverseTransform(pk *diskv.PathKey) string {
	return pk.FileName
}

func diskKey(identifier string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(identifier))
}

func (s *DiskStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	id, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}
	key := diskKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(key) {
		return zero, Meta{}, false, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: read %q: %w", id, err)
	}
	var record diskRecord[T]
	if err := json.Unmarshal(raw, &record); err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: decode %q: %w", id, err)
	}
	return record.Snapshot, record.Meta, true, nil
}

func (s *DiskStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	id, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(diskRecord[T]{Snapshot: snapshot, Meta: meta})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.Write(diskKey(id), raw); err != nil {
		return Meta{}, fmt.Errorf("state: write %q: %w", id, err)
	}
	return cloneMeta(meta), nil
}

// PutLegacy writes a legacy per-field entry, mainly for migrations tests and
// tooling that imports old data.
func (s *DiskStore[T]) PutLegacy(ref Ref, field string, raw []byte) error {
	id, err := ref.LegacyIdentifier(field)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Write(diskKey(id), raw)
}

func (s *DiskStore[T]) LoadLegacy(_ context.Context, ref Ref, field string) ([]byte, bool, error) {
	id, err := ref.LegacyIdentifier(field)
	if err != nil {
		return nil, false, err
	}
	key := diskKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(key) {
		return nil, false, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return nil, false, fmt.Errorf("state: read legacy %q: %w", id, err)
	}
	return raw, true, nil
}

func (s *DiskStore[T]) EraseLegacy(_ context.Context, ref Ref, field string) error {
	id, err := ref.LegacyIdentifier(field)
	if err != nil {
		return err
	}
	key := diskKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(key) {
		return nil
	}
	return s.d.Erase(key)
}

var (
	_ Store[struct{}] = (*DiskStore[struct{}])(nil)
	_ LegacyStore     = (*DiskStore[struct{}])(nil)
)
