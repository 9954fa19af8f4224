package memsource

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query is a parsed list request.
type Query struct {
	Offset  int
	Limit   int
	Search  string
	Filters []Condition
	Order   []SortKey
	GroupBy string
}

// Condition is one <field>[__<op>]=<value> filter. Repeated keys yield
// one condition per value.
type Condition struct {
	Field    string
	Operator string
	Value    string
}

// SortKey is one entry of order=<field> <dir>.
type SortKey struct {
	Field string
	Desc  bool
}

var reserved = map[string]struct{}{
	"page": {}, "per_page": {}, "limit": {}, "offset": {}, "search": {},
	"order": {}, "view_mode": {}, "group_by": {}, "fields": {}, "format": {},
}

// ParseQuery reads the default dialect from values.
func ParseQuery(values url.Values) (Query, error) {
	var q Query
	perPage, err := intParam(values, "per_page", 0)
	if err != nil {
		return q, err
	}
	page, err := intParam(values, "page", 1)
	if err != nil {
		return q, err
	}
	if page < 1 {
		page = 1
	}
	q.Limit = perPage
	if perPage > 0 {
		q.Offset = (page - 1) * perPage
	}
	if values.Has("limit") {
		if q.Limit, err = intParam(values, "limit", 0); err != nil {
			return q, err
		}
		if q.Offset, err = intParam(values, "offset", 0); err != nil {
			return q, err
		}
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	if values.Get("view_mode") == "grouped" {
		q.GroupBy = strings.TrimSpace(values.Get("group_by"))
	}

	for _, part := range strings.Split(values.Get("order"), ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		key := SortKey{Field: fields[0]}
		if len(fields) > 1 {
			key.Desc = strings.EqualFold(fields[1], "desc")
		}
		q.Order = append(q.Order, key)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		list := values[key]
		if _, skip := reserved[key]; skip || len(list) == 0 {
			continue
		}
		field, op, found := strings.Cut(key, "__")
		if !found {
			op = "eq"
		}
		if _, ok := operators[op]; !ok {
			return q, fmt.Errorf("%w: %q", errUnknownOperator, op)
		}
		for _, value := range list {
			q.Filters = append(q.Filters, Condition{Field: field, Operator: op, Value: value})
		}
	}
	return q, nil
}

func intParam(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("memsource: invalid %s %q", key, raw)
	}
	return n, nil
}
