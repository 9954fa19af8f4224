package datagrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// PagePagination emits page and page size. Empty keys use "page" and
// "per_page".
type PagePagination struct {
	PageKey    string
	PerPageKey string
}

func (p PagePagination) BuildPaginationQuery(page, perPage int) QueryParams {
	return QueryParams{
		orDefault(p.PageKey, "page"):        strconv.Itoa(page),
		orDefault(p.PerPageKey, "per_page"): strconv.Itoa(perPage),
	}
}

// OffsetPagination emits limit/offset. Empty keys use "limit" and "offset".
type OffsetPagination struct {
	LimitKey  string
	OffsetKey string
}

func (p OffsetPagination) BuildPaginationQuery(page, perPage int) QueryParams {
	if page < 1 {
		page = 1
	}
	return QueryParams{
		orDefault(p.LimitKey, "limit"):   strconv.Itoa(perPage),
		orDefault(p.OffsetKey, "offset"): strconv.Itoa((page - 1) * perPage),
	}
}

// TermSearch emits the search term under Key ("search" when empty). An
// empty term contributes nothing.
type TermSearch struct {
	Key string
}

func (s TermSearch) BuildSearchQuery(term string) QueryParams {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	return QueryParams{orDefault(s.Key, "search"): term}
}

// OperatorFilter emits "<column>" for eq and "<column>__<op>" otherwise.
// Slice values are comma joined. A later filter on the same key wins.
type OperatorFilter struct{}

func (OperatorFilter) BuildFilterQuery(filters []Filter) QueryParams {
	if len(filters) == 0 {
		return nil
	}
	params := QueryParams{}
	for _, filter := range filters {
		key := filter.Column
		if op := strings.ToLower(filter.Operator); op != "" && op != "eq" {
			key += "__" + op
		}
		params[key] = filterValue(filter.Value)
	}
	return params
}

// OrderSort emits order=<field> <dir>,... under Key ("order" when empty).
type OrderSort struct {
	Key string
}

func (s OrderSort) BuildSortQuery(sort []SortField) QueryParams {
	if len(sort) == 0 {
		return nil
	}
	parts := make([]string, 0, len(sort))
	for _, entry := range sort {
		direction := entry.Direction
		if !direction.Valid() {
			direction = SortAsc
		}
		parts = append(parts, entry.Field+" "+string(direction))
	}
	return QueryParams{orDefault(s.Key, "order"): strings.Join(parts, ",")}
}

// FieldsColumns emits the visible columns as fields=<a>,<b>.
type FieldsColumns struct {
	Key string
}

func (c FieldsColumns) BuildColumnsQuery(visible []string) QueryParams {
	if len(visible) == 0 {
		return nil
	}
	return QueryParams{orDefault(c.Key, "fields"): strings.Join(visible, ",")}
}

// LinkExport builds <endpoint>/export?format=<format>&<params>.
type LinkExport struct {
	Path string
}

func (e LinkExport) ExportURL(endpoint, format string, params QueryParams) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "", fmt.Errorf("datagrid: export format is required")
	}
	values := params.Values()
	values.Set("format", format)
	return strings.TrimRight(endpoint, "/") + "/" + strings.Trim(orDefault(e.Path, "export"), "/") + "?" + values.Encode(), nil
}

// TransportBulkAction posts {"ids": [...]} to <endpoint>/bulk/<action>.
type TransportBulkAction struct {
	Endpoint  string
	Transport Transport
}

func (b TransportBulkAction) ExecuteBulkAction(ctx context.Context, action string, ids []string) error {
	if b.Transport == nil {
		return fmt.Errorf("datagrid: bulk action %q has no transport", action)
	}
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return fmt.Errorf("datagrid: encode bulk payload: %w", err)
	}
	target := strings.TrimRight(b.Endpoint, "/") + "/bulk/" + url.PathEscape(action)
	_, err = b.Transport.Do(ctx, Request{Method: http.MethodPost, URL: target, Body: body})
	return err
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func filterValue(value any) string {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return stringify(value)
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
