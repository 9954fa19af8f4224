package memsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-datagrid/pkg/rules"
)

// Grouping controls how a Source answers grouped requests.
type Grouping int

const (
	// GroupingSupported answers with a groups envelope.
	GroupingSupported Grouping = iota
	// GroupingNotImplemented answers grouped requests with 501.
	GroupingNotImplemented
	// GroupingIgnored answers grouped requests with a flat payload.
	GroupingIgnored
)

// TotalStyle selects where the total count is reported.
type TotalStyle int

const (
	TotalKey TotalStyle = iota
	CountKey
	MetaCount
)

// Record is one stored row.
type Record map[string]any

// BulkFunc runs a custom bulk action.
type BulkFunc func(ids []string) error

// Option configures a Source.
type Option func(*Source)

// WithGrouping sets the grouped request behavior.
func WithGrouping(grouping Grouping) Option {
	return func(s *Source) {
		s.grouping = grouping
	}
}

// WithTotalStyle sets the total key of responses.
func WithTotalStyle(style TotalStyle) Option {
	return func(s *Source) {
		s.totalStyle = style
	}
}

// WithSearchFields restricts free-text search to fields. Default: every
// string field.
func WithSearchFields(fields ...string) Option {
	return func(s *Source) {
		s.searchFields = append([]string(nil), fields...)
	}
}

// WithLatency delays every list response, honoring request cancellation.
func WithLatency(latency time.Duration) Option {
	return func(s *Source) {
		s.latency = latency
	}
}

// WithBulkAction registers a custom bulk action handler.
func WithBulkAction(name string, fn BulkFunc) Option {
	return func(s *Source) {
		s.bulk[name] = fn
	}
}

// WithBasePath strips prefix from request paths.
func WithBasePath(prefix string) Option {
	return func(s *Source) {
		s.base = "/" + strings.Trim(prefix, "/")
	}
}

// Source is a thread-safe in-memory collection served over HTTP.
type Source struct {
	mu           sync.RWMutex
	idField      string
	records      []Record
	grouping     Grouping
	totalStyle   TotalStyle
	searchFields []string
	latency      time.Duration
	base         string
	bulk         map[string]BulkFunc
	requests     []*http.Request
	failures     []int
	runner       *rules.Runner
}

var _ http.Handler = (*Source)(nil)

// New returns a Source holding copies of records, identified by idField.
func New(idField string, records []Record, opts ...Option) *Source {
	if strings.TrimSpace(idField) == "" {
		idField = "id"
	}
	s := &Source{
		idField: idField,
		bulk:    map[string]BulkFunc{},
		runner:  rules.NewRunner(rules.WithProgramCache(rules.NewProgramCache()), rules.WithScopeName("memsource")),
	}
	for _, record := range records {
		s.records = append(s.records, cloneRecord(record))
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FailNext makes the next list requests answer with the given statuses, in
// order.
func (s *Source) FailNext(statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, statuses...)
}

// Requests returns the requests received so far.
func (s *Source) Requests() []*http.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*http.Request(nil), s.requests...)
}

// Records returns a copy of the stored rows.
func (s *Source) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, cloneRecord(record))
	}
	return out
}

func (s *Source) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	s.mu.Unlock()

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, s.base), "/")
	switch {
	case r.Method == http.MethodGet && path == "":
		s.serveList(w, r)
	case r.Method == http.MethodGet && path == "export":
		s.serveExport(w, r)
	case r.Method == http.MethodPost && strings.HasPrefix(path, "bulk/"):
		s.serveBulk(w, r, strings.TrimPrefix(path, "bulk/"))
	case r.Method == http.MethodDelete && path != "" && !strings.Contains(path, "/"):
		s.serveDelete(w, path)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Source) serveList(w http.ResponseWriter, r *http.Request) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-r.Context().Done():
			return
		}
	}
	if status := s.nextFailure(); status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	matched, err := s.query(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total := len(matched)
	window := paginate(matched, q.Offset, q.Limit)

	if q.GroupBy != "" {
		switch s.grouping {
		case GroupingNotImplemented:
			writeError(w, http.StatusNotImplemented, "grouping is not supported")
			return
		case GroupingSupported:
			writeJSON(w, http.StatusOK, s.withTotal(map[string]any{"groups": groupRecords(matched, window, q.GroupBy)}, total))
			return
		}
	}
	writeJSON(w, http.StatusOK, s.withTotal(map[string]any{"data": window}, total))
}

func (s *Source) nextFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return 0
	}
	status := s.failures[0]
	s.failures = s.failures[1:]
	return status
}

func (s *Source) withTotal(body map[string]any, total int) map[string]any {
	switch s.totalStyle {
	case CountKey:
		body["count"] = total
	case MetaCount:
		body["meta"] = map[string]any{"count": total}
	default:
		body["total"] = total
	}
	return body
}

// query filters, searches and sorts a snapshot of the records.
func (s *Source) query(q Query) ([]Record, error) {
	s.mu.RLock()
	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, cloneRecord(record))
	}
	s.mu.RUnlock()

	var out []Record
	for _, record := range records {
		if q.Search != "" && !s.matchesSearch(record, q.Search) {
			continue
		}
		ok, err := s.matchesFilters(record, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, record)
		}
	}
	sortRecords(out, q.Order)
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

func (s *Source) matchesSearch(record Record, term string) bool {
	term = strings.ToLower(term)
	fields := s.searchFields
	if len(fields) == 0 {
		for field := range record {
			fields = append(fields, field)
		}
	}
	for _, field := range fields {
		if text, ok := record[field].(string); ok && strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}

func (s *Source) matchesFilters(record Record, filters []Condition) (bool, error) {
	for _, filter := range filters {
		ok, err := s.match(record[filter.Field], filter)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Source) serveDelete(w http.ResponseWriter, id string) {
	if !s.remove([]string{id}) {
		writeError(w, http.StatusNotFound, "row not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Source) serveBulk(w http.ResponseWriter, r *http.Request, action string) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if fn, ok := s.bulk[action]; ok {
		if err := fn(body.IDs); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"affected": len(body.IDs)})
		return
	}
	if action != "delete" {
		writeError(w, http.StatusNotFound, "unknown bulk action")
		return
	}
	s.remove(body.IDs)
	writeJSON(w, http.StatusOK, map[string]any{"affected": len(body.IDs)})
}

func (s *Source) remove(ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := map[string]struct{}{}
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.records[:0]
	removed := false
	for _, record := range s.records {
		if _, ok := drop[text(record[s.idField])]; ok {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return removed
}

func paginate(records []Record, offset, limit int) []Record {
	if offset >= len(records) {
		return []Record{}
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end]
}

// groupRecords groups the page window by field, in order of first
// appearance. Counts cover every matched record.
func groupRecords(matched, window []Record, field string) []map[string]any {
	counts := map[string]int{}
	for _, record := range matched {
		counts[text(record[field])]++
	}
	var order []string
	rows := map[string][]Record{}
	for _, record := range window {
		key := text(record[field])
		if _, ok := rows[key]; !ok {
			order = append(order, key)
		}
		rows[key] = append(rows[key], record)
	}
	groups := make([]map[string]any, 0, len(order))
	for _, key := range order {
		label := key
		if label == "" {
			label = "(none)"
		}
		groups = append(groups, map[string]any{
			"id":    key,
			"label": label,
			"count": counts[key],
			"rows":  rows[key],
		})
	}
	return groups
}

func sortRecords(records []Record, order []SortKey) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range order {
			cmp := compare(records[i][key.Field], records[j][key.Field])
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compare(a, b any) int {
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(text(a), text(b))
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func cloneRecord(record Record) Record {
	out := make(Record, len(record))
	for key, value := range record {
		out[key] = value
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

var errUnknownOperator = errors.New("memsource: unknown filter operator")
