package datagrid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-datagrid/internal/hydrate"
)

// fetchResult is one decoded response: rows for flat mode, groups for grouped mode.
type fetchResult struct {
	Rows   []Row
	Total  *int
	Groups *GroupedData
}

type flatPayload struct {
	Data  []Row `json:"data"`
	Total *int  `json:"total"`
}

type groupPayload struct {
	ID       any    `json:"id"`
	Key      any    `json:"key"`
	Label    string `json:"label"`
	Count    *int   `json:"count"`
	Expanded bool   `json:"expanded"`
	Rows     []Row  `json:"rows"`
	Data     []Row  `json:"data"`
}

type groupedPayload struct {
	Groups []groupPayload `json:"groups"`
	Total  *int           `json:"total"`
}

var (
	flatDecoder = hydrate.NewDecoder[flatPayload](
		hydrate.WithPreHook[flatPayload](normalizeTotal),
		hydrate.WithPreHook[flatPayload](requireKey("data", ErrInvalidEnvelope)),
	)
	groupedDecoder = hydrate.NewDecoder[groupedPayload](
		hydrate.WithPreHook[groupedPayload](normalizeTotal),
		hydrate.WithPreHook[groupedPayload](requireKey("groups", ErrGroupedUnsupported)),
	)
)

// decodePage turns a response body into a fetchResult. In grouped mode a body
// without a groups array yields ErrGroupedUnsupported.
func decodePage(panel string, mode ViewMode, raw []byte) (fetchResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if mode == ViewGrouped {
			return fetchResult{}, fmt.Errorf("%w: response is a bare array", ErrGroupedUnsupported)
		}
		var rows []Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fetchResult{}, &DecodeError{Source: "response", Err: err}
		}
		return fetchResult{Rows: nonNilRows(rows)}, nil
	}

	ctx := hydrate.Context{Source: "response", Panel: panel}
	if mode != ViewGrouped {
		payload, err := flatDecoder.DecodeBytes(ctx, raw)
		if err != nil {
			return fetchResult{}, err
		}
		return fetchResult{Rows: nonNilRows(payload.Data), Total: payload.Total}, nil
	}

	payload, err := groupedDecoder.DecodeBytes(ctx, raw)
	if err != nil {
		return fetchResult{}, err
	}
	grouped := &GroupedData{Groups: make([]Group, 0, len(payload.Groups)), Total: payload.Total}
	var rows []Row
	sum := 0
	for i, entry := range payload.Groups {
		group := Group{
			ID:       stringify(entry.ID),
			Label:    entry.Label,
			Expanded: entry.Expanded,
			Rows:     entry.Rows,
		}
		if group.ID == "" {
			group.ID = stringify(entry.Key)
		}
		if group.ID == "" {
			group.ID = strconv.Itoa(i)
		}
		if group.Label == "" {
			group.Label = group.ID
		}
		if group.Rows == nil {
			group.Rows = entry.Data
		}
		group.Rows = nonNilRows(group.Rows)
		group.Count = len(group.Rows)
		if entry.Count != nil {
			group.Count = *entry.Count
		}
		sum += group.Count
		rows = append(rows, group.Rows...)
		grouped.Groups = append(grouped.Groups, group)
	}
	if grouped.Total == nil {
		grouped.Total = ptr(sum)
	}
	return fetchResult{Rows: nonNilRows(rows), Total: grouped.Total, Groups: grouped}, nil
}

// normalizeTotal copies the first present of total, count, meta.count and
// meta.total into "total" as a number.
func normalizeTotal(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	candidates := []any{payload["total"], payload["count"]}
	if meta, ok := payload["meta"].(map[string]any); ok {
		candidates = append(candidates, meta["count"], meta["total"])
	}
	delete(payload, "total")
	for _, candidate := range candidates {
		if total, ok := asCount(candidate); ok {
			payload["total"] = total
			break
		}
	}
	return payload, nil
}

func asCount(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func requireKey(key string, sentinel error) hydrate.PreHook {
	return func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
		if _, ok := payload[key].([]any); !ok {
			return nil, fmt.Errorf("%w: missing %q array", sentinel, key)
		}
		return payload, nil
	}
}

func nonNilRows(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}
