package hydrate

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type envelope struct {
	Data  []map[string]any `json:"data"`
	Total *int             `json:"total"`
	Tags  []string         `json:"tags"`
}

func countToTotal(_ Context, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["total"]; ok {
		return payload, nil
	}
	if count, ok := payload["count"]; ok {
		payload["total"] = count
		delete(payload, "count")
	}
	return payload, nil
}

func tagWithSource(ctx Context, out *envelope) error {
	if out == nil {
		return errors.New("envelope is nil")
	}
	if len(out.Tags) == 0 {
		out.Tags = []string{ctx.Source}
	}
	return nil
}

func TestDecoderHooks(t *testing.T) {
	cases := []struct {
		name      string
		input     map[string]any
		options   []DecoderOption[envelope]
		wantTotal int
		wantTags  []string
		wantErr   string
	}{
		{
			name:      "pre hook maps count to total",
			input:     map[string]any{"data": []any{}, "count": 4},
			options:   []DecoderOption[envelope]{WithPreHook[envelope](countToTotal)},
			wantTotal: 4,
		},
		{
			name:      "total wins over count",
			input:     map[string]any{"data": []any{}, "count": 4, "total": 9},
			options:   []DecoderOption[envelope]{WithPreHook[envelope](countToTotal)},
			wantTotal: 9,
		},
		{
			name:      "post hook tags source",
			input:     map[string]any{"total": 1},
			options:   []DecoderOption[envelope]{WithPostHook[envelope](tagWithSource)},
			wantTotal: 1,
			wantTags:  []string{"response"},
		},
		{
			name:    "unknown fields rejected",
			input:   map[string]any{"total": 1, "extra": true},
			options: []DecoderOption[envelope]{WithDisallowUnknownFields[envelope]()},
			wantErr: "unknown field",
		},
		{
			name:  "pre hook failure wrapped",
			input: map[string]any{"total": 1},
			options: []DecoderOption[envelope]{WithPreHook[envelope](func(Context, map[string]any) (map[string]any, error) {
				return nil, errors.New("boom")
			})},
			wantErr: "pre-hook for response@users failed: boom",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder(tc.options...)
			got, err := decoder.Decode(Context{Source: "response", Panel: "users"}, tc.input)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if got.Total == nil || *got.Total != tc.wantTotal {
				t.Fatalf("expected total %d, got %v", tc.wantTotal, got.Total)
			}
			if tc.wantTags != nil && !reflect.DeepEqual(got.Tags, tc.wantTags) {
				t.Fatalf("expected tags %v, got %v", tc.wantTags, got.Tags)
			}
		})
	}
}

func TestDecoderDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"count": 2}
	decoder := NewDecoder(WithPreHook[envelope](countToTotal))
	if _, err := decoder.Decode(Context{}, input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := input["total"]; ok {
		t.Fatalf("expected caller payload to remain untouched, got %v", input)
	}
}

func TestDecodeBytes(t *testing.T) {
	decoder := NewDecoder[envelope]()

	if _, err := decoder.DecodeBytes(Context{Source: "response"}, []byte(`[1,2]`)); err == nil {
		t.Fatalf("expected non-object payload to fail")
	}
	if _, err := decoder.DecodeBytes(Context{Source: "response"}, []byte("  ")); err == nil {
		t.Fatalf("expected empty payload to fail")
	}

	raw, _ := json.Marshal(map[string]any{"data": []any{map[string]any{"id": "1"}}, "total": 1})
	got, err := decoder.DecodeBytes(Context{Source: "response"}, raw)
	if err != nil {
		t.Fatalf("decode bytes: %v", err)
	}
	if len(got.Data) != 1 || got.Data[0]["id"] != "1" {
		t.Fatalf("unexpected data: %#v", got.Data)
	}
}

func TestCustomDecoder(t *testing.T) {
	decoder := NewDecoder(WithCustomDecoder[envelope](func(ctx Context, payload map[string]any) (envelope, error) {
		total := len(payload)
		return envelope{Total: &total, Tags: []string{ctx.Panel}}, nil
	}))
	got, err := decoder.Decode(Context{Panel: "orders"}, map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got.Total != 2 || got.Tags[0] != "orders" {
		t.Fatalf("unexpected custom decode result: %+v", got)
	}
}
