package datagrid

import (
	"errors"
	"testing"
)

func TestDecodePageTotals(t *testing.T) {
	cases := map[string]struct {
		body string
		want int
	}{
		"total":      {`{"data":[{"id":1}],"total":7}`, 7},
		"count":      {`{"data":[{"id":1}],"count":8}`, 8},
		"meta count": {`{"data":[{"id":1}],"meta":{"count":9}}`, 9},
		"meta total": {`{"data":[{"id":1}],"meta":{"total":11}}`, 11},
		"total wins": {`{"data":[],"total":3,"count":4}`, 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := decodePage("users", ViewFlat, []byte(tc.body))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.Total == nil || *result.Total != tc.want {
				t.Fatalf("expected total %d, got %v", tc.want, result.Total)
			}
		})
	}
}

func TestDecodePageFlatShapes(t *testing.T) {
	result, err := decodePage("users", ViewFlat, []byte(` [{"id":"a"},{"id":"b"}]`))
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	if len(result.Rows) != 2 || result.Total != nil {
		t.Fatalf("bare arrays carry rows without a total, got %+v", result)
	}

	result, err = decodePage("users", ViewFlat, []byte(`{"data":[],"total":0}`))
	if err != nil {
		t.Fatalf("empty data: %v", err)
	}
	if result.Rows == nil || *result.Total != 0 {
		t.Fatalf("rows must never be nil, got %+v", result)
	}
	if _, err := decodePage("users", ViewFlat, []byte(`{"data":null}`)); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("null data is not an envelope, got %v", err)
	}

	if _, err := decodePage("users", ViewFlat, []byte(`{"items":[]}`)); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
	if _, err := decodePage("users", ViewFlat, []byte(`not json`)); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestDecodePageGrouped(t *testing.T) {
	body := `{"groups":[
		{"id":"sales","label":"Sales","count":5,"expanded":true,"rows":[{"id":1}]},
		{"key":42,"data":[{"id":2},{"id":3}]},
		{"rows":[]}
	]}`
	result, err := decodePage("users", ViewGrouped, []byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	groups := result.Groups.Groups
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].ID != "sales" || groups[0].Count != 5 || !groups[0].Expanded {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].ID != "42" || groups[1].Label != "42" || groups[1].Count != 2 || len(groups[1].Rows) != 2 {
		t.Fatalf("key and data fallbacks not applied: %+v", groups[1])
	}
	if groups[2].ID != "2" {
		t.Fatalf("expected index fallback id, got %q", groups[2].ID)
	}
	if result.Total == nil || *result.Total != 7 {
		t.Fatalf("expected summed total 7, got %v", result.Total)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("expected flattened rows, got %d", len(result.Rows))
	}
}

func TestDecodePageGroupedUnsupported(t *testing.T) {
	for name, body := range map[string]string{
		"flat envelope": `{"data":[{"id":1}],"total":1}`,
		"bare array":    `[{"id":1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodePage("users", ViewGrouped, []byte(body))
			if !errors.Is(err, ErrGroupedUnsupported) || !IsUnsupported(err) {
				t.Fatalf("expected ErrGroupedUnsupported, got %v", err)
			}
		})
	}
}
