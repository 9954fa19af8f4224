package datagrid

import (
	"encoding/json"
	"sort"
)

// Trace records which source supplied each reconciled field.
type Trace struct {
	Panel           string       `json:"panel"`
	HasURLOverrides bool         `json:"has_url_overrides"`
	Fields          []FieldTrace `json:"fields"`
}

// FieldTrace names the source ("url", "hydrated", "persisted", "defaults")
// of one field.
type FieldTrace struct {
	Field  string `json:"field"`
	Source string `json:"source"`
}

// Trace returns the provenance of the last reconciliation, sorted by field.
func (g *Grid) Trace() Trace {
	g.mu.Lock()
	defer g.mu.Unlock()
	trace := Trace{Panel: g.cfg.PanelID, HasURLOverrides: g.hasURLOverrides}
	for field, level := range g.provenance {
		trace.Fields = append(trace.Fields, FieldTrace{Field: field, Source: level.String()})
	}
	sort.Slice(trace.Fields, func(i, j int) bool { return trace.Fields[i].Field < trace.Fields[j].Field })
	return trace
}

// Source returns the source recorded for field, or "" when untracked.
func (t Trace) Source(field string) string {
	for _, entry := range t.Fields {
		if entry.Field == field {
			return entry.Source
		}
	}
	return ""
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
