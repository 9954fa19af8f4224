package state

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-datagrid/layering"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. It also implements LegacyStore so migrations can be exercised.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	legacy  map[string][]byte
	saves   int
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		records: map[string]memoryRecord[T]{},
		legacy:  map[string][]byte{},
	}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return layering.Clone(record.snapshot), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	previous := s.records[key].meta
	stored := mergeMeta(previous, meta)
	s.records[key] = memoryRecord[T]{snapshot: layering.Clone(snapshot), meta: cloneMeta(stored)}
	s.saves++
	s.mu.Unlock()
	return cloneMeta(stored), nil
}

// Saves reports how many times Save succeeded.
func (s *MemoryStore[T]) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// PutLegacy seeds a legacy per-field entry.
func (s *MemoryStore[T]) PutLegacy(ref Ref, field string, raw []byte) error {
	key, err := ref.LegacyIdentifier(field)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.legacy[key] = append([]byte(nil), raw...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[T]) LoadLegacy(_ context.Context, ref Ref, field string) ([]byte, bool, error) {
	key, err := ref.LegacyIdentifier(field)
	if err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	raw, ok := s.legacy[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (s *MemoryStore[T]) EraseLegacy(_ context.Context, ref Ref, field string) error {
	key, err := ref.LegacyIdentifier(field)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.legacy, key)
	s.mu.Unlock()
	return nil
}

var (
	_ Store[struct{}] = (*MemoryStore[struct{}])(nil)
	_ LegacyStore     = (*MemoryStore[struct{}])(nil)
)
