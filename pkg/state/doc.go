// Package state defines persistence-facing contracts for loading and saving
// per-panel grid snapshots.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - Hydrator is an optional capability for stores backed by a slower or
//     remote source; after Hydrate returns, Load must return the hydrated value.
//   - LegacyStore is an optional capability exposing per-field entries written
//     by older persistence schemes so callers can migrate them once.
//
// Deterministic keys:
//
//	Ref.Identifier() provides the canonical storage key: `panel/<panel>` for
//	shared panels and `user/<owner>/<panel>` when an owner is set. Legacy
//	entries live next to it as `<identifier>.<field>`.
//
// Implementations shipped here: MemoryStore (tests, examples), DiskStore
// (diskv-backed local persistence) and RemoteStore (local store hydrated from
// an HTTP endpoint).
package state
