package layering

import (
	"slices"
	"strings"
)

// Level identifies the precedence of a state source. Higher levels override
// lower levels when layering.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelDefaults represents the weakest layer (configured defaults).
	LevelDefaults
	// LevelPersisted represents a snapshot read from the persisted store.
	LevelPersisted
	// LevelHydrated represents a snapshot delivered by asynchronous hydration.
	LevelHydrated
	// LevelURL represents state decoded from the address bar query string.
	LevelURL
)

func (l Level) String() string {
	switch l {
	case LevelDefaults:
		return "defaults"
	case LevelPersisted:
		return "persisted"
	case LevelHydrated:
		return "hydrated"
	case LevelURL:
		return "url"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string representation into the corresponding Level.
// Returns LevelUnknown for unrecognised values.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "defaults", "default":
		return LevelDefaults
	case "persisted", "store":
		return LevelPersisted
	case "hydrated":
		return LevelHydrated
	case "url", "query":
		return LevelURL
	default:
		return LevelUnknown
	}
}

// Layer pairs a source level with the partial state it contributes.
type Layer[T any] struct {
	Level Level
	Patch T
}

// NewLayer constructs a Layer holding a deep copy of patch.
func NewLayer[T any](level Level, patch T) Layer[T] {
	return Layer[T]{Level: level, Patch: Clone(patch)}
}

// Order sorts layers from strongest to weakest, dropping unknown levels and
// keeping only the first layer seen for each level.
func Order[T any](layers ...Layer[T]) []Layer[T] {
	filtered := make([]Layer[T], 0, len(layers))
	seen := map[Level]struct{}{}
	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		if _, ok := seen[layer.Level]; ok {
			continue
		}
		seen[layer.Level] = struct{}{}
		filtered = append(filtered, layer)
	}
	slices.SortStableFunc(filtered, func(a, b Layer[T]) int {
		switch {
		case a.Level == b.Level:
			return 0
		case a.Level > b.Level:
			return -1
		default:
			return 1
		}
	})
	return filtered
}
