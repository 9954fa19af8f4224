package datagrid

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// URL keys managed by the codec. Every other key in the query string is left
// untouched.
const (
	KeySearch         = "search"
	KeyPage           = "page"
	KeyPerPage        = "perPage"
	KeyFilters        = "filters"
	KeySort           = "sort"
	KeyHiddenColumns  = "hiddenColumns"
	KeyViewMode       = "viewMode"
	KeyExpandedGroups = "expandedGroups"
)

var managedKeys = []string{
	KeySearch, KeyPage, KeyPerPage, KeyFilters, KeySort,
	KeyHiddenColumns, KeyViewMode, KeyExpandedGroups,
}

// URLCodec maps the URL-mirrored subset of GridState to and from a query
// string. Keys equal to their default are omitted. When the individual keys
// exceed the configured limits the state is packed into a single base64url
// JSON blob under StateKey.
type URLCodec struct {
	stateKey         string
	perPage          int
	viewMode         ViewMode
	hidden           StringSet
	maxURLLength     int
	maxFiltersLength int
}

// NewURLCodec builds a codec from cfg's defaults and limits.
func NewURLCodec(cfg Config) *URLCodec {
	cfg = cfg.withDefaults()
	return &URLCodec{
		stateKey:         cfg.StateKey,
		perPage:          cfg.PerPage,
		viewMode:         cfg.DefaultViewMode,
		hidden:           cfg.DefaultHidden(),
		maxURLLength:     cfg.MaxURLLength,
		maxFiltersLength: cfg.MaxFiltersLength,
	}
}

// StateKey returns the reserved blob key.
func (c *URLCodec) StateKey() string {
	return c.stateKey
}

// Encode returns the query string fragment (without "?") for state. Output is
// deterministic: identical state always yields identical bytes.
//
// Non-default fields are written as individual keys, or as one blob under
// the state key when those exceed MaxURLLength or MaxFiltersLength. When the
// blob is also too long the result is lossy: only search, page, perPage and
// viewMode are kept, and filters, sort and column and group state decode as
// defaults.
func (c *URLCodec) Encode(state GridState) string {
	return c.values(state).Encode()
}

// Apply replaces the managed keys of current with the encoding of state and
// returns the new query string. Unmanaged keys are preserved.
func (c *URLCodec) Apply(current string, state GridState) string {
	values, _ := url.ParseQuery(strings.TrimPrefix(current, "?"))
	if values == nil {
		values = url.Values{}
	}
	for _, key := range managedKeys {
		values.Del(key)
	}
	values.Del(c.stateKey)
	for key, list := range c.values(state) {
		values[key] = list
	}
	return values.Encode()
}

func (c *URLCodec) values(state GridState) url.Values {
	patch := c.nonDefault(state)
	individual := patchValues(patch)
	filtersLen := len(url.QueryEscape(individual.Get(KeyFilters)))
	if len(individual.Encode()) <= c.maxURLLength && filtersLen <= c.maxFiltersLength {
		return individual
	}

	if blob, err := encodeBlob(patch); err == nil {
		values := url.Values{c.stateKey: {blob}}
		if len(values.Encode()) <= c.maxURLLength {
			return values
		}
	}

	scalars := url.Values{}
	for _, key := range []string{KeySearch, KeyPage, KeyPerPage, KeyViewMode} {
		if value, ok := individual[key]; ok {
			scalars[key] = value
		}
	}
	if len(scalars.Encode()) <= c.maxURLLength {
		return scalars
	}
	return url.Values{}
}

// nonDefault projects state onto a patch holding only non-default URL keys.
func (c *URLCodec) nonDefault(state GridState) StatePatch {
	var patch StatePatch
	if state.Search != "" {
		patch.Search = ptr(state.Search)
	}
	if state.CurrentPage > 1 {
		patch.Page = ptr(state.CurrentPage)
	}
	if state.PerPage > 0 && state.PerPage != c.perPage {
		patch.PerPage = ptr(state.PerPage)
	}
	if len(state.Filters) > 0 {
		patch.Filters = slices.Clone(state.Filters)
	}
	if len(state.Sort) > 0 {
		patch.Sort = slices.Clone(state.Sort)
	}
	hidden := state.HiddenColumns
	if hidden == nil {
		hidden = StringSet{}
	}
	if !hidden.Equal(c.hidden) {
		patch.HiddenColumns = hidden.Sorted()
	}
	if state.ViewMode != "" && state.ViewMode != c.viewMode {
		patch.ViewMode = ptr(state.ViewMode)
	}
	if len(state.ExpandedGroups) > 0 {
		patch.ExpandedGroups = state.ExpandedGroups.Sorted()
	}
	return patch
}

func patchValues(patch StatePatch) url.Values {
	values := url.Values{}
	if patch.Search != nil {
		values.Set(KeySearch, *patch.Search)
	}
	if patch.Page != nil {
		values.Set(KeyPage, strconv.Itoa(*patch.Page))
	}
	if patch.PerPage != nil {
		values.Set(KeyPerPage, strconv.Itoa(*patch.PerPage))
	}
	setJSON := func(key string, value any) {
		raw, err := json.Marshal(value)
		if err == nil {
			values.Set(key, string(raw))
		}
	}
	if patch.Filters != nil {
		setJSON(KeyFilters, patch.Filters)
	}
	if patch.Sort != nil {
		setJSON(KeySort, patch.Sort)
	}
	if patch.HiddenColumns != nil {
		setJSON(KeyHiddenColumns, patch.HiddenColumns)
	}
	if patch.ViewMode != nil {
		values.Set(KeyViewMode, string(*patch.ViewMode))
	}
	if patch.ExpandedGroups != nil {
		setJSON(KeyExpandedGroups, patch.ExpandedGroups)
	}
	return values
}

func encodeBlob(patch StatePatch) (string, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses a query string into a patch. Malformed keys are left absent
// and reported through the returned error, which joins one *DecodeError per
// bad key; the patch is usable even when the error is non-nil.
func (c *URLCodec) Decode(query string) (StatePatch, error) {
	values, parseErr := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(query), "?"))
	var errs []error
	if parseErr != nil {
		errs = append(errs, &DecodeError{Source: "url", Err: parseErr})
	}

	var patch StatePatch
	if raw, ok := lookup(values, c.stateKey); ok {
		blob, err := decodeBlob(raw)
		if err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: c.stateKey, Err: err})
		} else {
			patch = blob
		}
	}

	if raw, ok := lookup(values, KeySearch); ok {
		patch.Search = ptr(raw)
	}
	if raw, ok := lookup(values, KeyPage); ok {
		if page, err := parsePositive(raw); err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: KeyPage, Err: err})
		} else {
			patch.Page = ptr(page)
		}
	}
	if raw, ok := lookup(values, KeyPerPage); ok {
		if perPage, err := parsePositive(raw); err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: KeyPerPage, Err: err})
		} else {
			patch.PerPage = ptr(perPage)
		}
	}
	if raw, ok := lookup(values, KeyFilters); ok {
		var filters []Filter
		if err := decodeJSONArray(raw, &filters); err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: KeyFilters, Err: err})
		} else {
			patch.Filters = filters
		}
	}
	if raw, ok := lookup(values, KeySort); ok {
		var sort []SortField
		if err := decodeJSONArray(raw, &sort); err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: KeySort, Err: err})
		} else {
			patch.Sort = sort
		}
	}
	if raw, ok := lookup(values, KeyHiddenColumns); ok {
		var hidden []string
		if err := decodeJSONArray(raw, &hidden); err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: KeyHiddenColumns, Err: err})
		} else {
			patch.HiddenColumns = hidden
		}
	}
	if raw, ok := lookup(values, KeyViewMode); ok {
		mode := ViewMode(strings.TrimSpace(raw))
		if !mode.Valid() {
			errs = append(errs, &DecodeError{Source: "url", Key: KeyViewMode, Err: fmt.Errorf("unknown view mode %q", raw)})
		} else {
			patch.ViewMode = ptr(mode)
		}
	}
	if raw, ok := lookup(values, KeyExpandedGroups); ok {
		var groups []string
		if err := decodeJSONArray(raw, &groups); err != nil {
			errs = append(errs, &DecodeError{Source: "url", Key: KeyExpandedGroups, Err: err})
		} else {
			patch.ExpandedGroups = groups
		}
	}

	return sanitizeURLPatch(patch), errors.Join(errs...)
}

// HasOverrides reports whether query carries any managed key, including the
// blob key. Malformed values still count as present.
func (c *URLCodec) HasOverrides(query string) bool {
	values, _ := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(query), "?"))
	for _, key := range append([]string{c.stateKey}, managedKeys...) {
		if _, ok := values[key]; ok {
			return true
		}
	}
	return false
}

func lookup(values url.Values, key string) (string, bool) {
	list, ok := values[key]
	if !ok || len(list) == 0 {
		return "", false
	}
	return list[len(list)-1], true
}

func parsePositive(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if value < 1 {
		return 0, fmt.Errorf("must be >= 1, got %d", value)
	}
	return value, nil
}

// decodeJSONArray requires raw to be a JSON array; the target is left
// non-nil on success so an explicit [] stays present.
func decodeJSONArray[T any](raw string, target *[]T) error {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return fmt.Errorf("expected JSON array")
	}
	var out []T
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return err
	}
	if out == nil {
		out = []T{}
	}
	*target = out
	return nil
}

func decodeBlob(raw string) (StatePatch, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(raw), "="))
	if err != nil {
		return StatePatch{}, fmt.Errorf("invalid base64: %w", err)
	}
	var patch StatePatch
	if err := json.Unmarshal(decoded, &patch); err != nil {
		return StatePatch{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if patch.Page != nil && *patch.Page < 1 {
		patch.Page = nil
	}
	if patch.PerPage != nil && *patch.PerPage < 1 {
		patch.PerPage = nil
	}
	if patch.ViewMode != nil && !patch.ViewMode.Valid() {
		patch.ViewMode = nil
	}
	return patch, nil
}

// sanitizeURLPatch drops fields the URL does not manage, repairs entries and
// derives expandMode=explicit from an explicit expandedGroups key.
func sanitizeURLPatch(patch StatePatch) StatePatch {
	patch.ColumnOrder = nil
	patch.ExpandMode = nil
	patch.Filters = sanitizeFilters(patch.Filters)
	patch.Sort = sanitizeSort(patch.Sort)
	patch.HiddenColumns = cleanStrings(patch.HiddenColumns)
	patch.ExpandedGroups = cleanStrings(patch.ExpandedGroups)
	if patch.ExpandedGroups != nil {
		patch.ExpandMode = ptr(ExpandExplicit)
	}
	return patch
}

func sanitizeFilters(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, 0, len(filters))
	for _, filter := range filters {
		filter.Column = strings.TrimSpace(filter.Column)
		filter.Operator = strings.ToLower(strings.TrimSpace(filter.Operator))
		if filter.Column == "" {
			continue
		}
		if filter.Operator == "" {
			filter.Operator = "eq"
		}
		out = append(out, filter)
	}
	return out
}

func sanitizeSort(sort []SortField) []SortField {
	if sort == nil {
		return nil
	}
	out := make([]SortField, 0, len(sort))
	seen := map[string]struct{}{}
	for _, entry := range sort {
		entry.Field = strings.TrimSpace(entry.Field)
		if entry.Field == "" {
			continue
		}
		if _, dup := seen[entry.Field]; dup {
			continue
		}
		seen[entry.Field] = struct{}{}
		entry.Direction = SortDirection(strings.ToLower(strings.TrimSpace(string(entry.Direction))))
		if !entry.Direction.Valid() {
			entry.Direction = SortAsc
		}
		out = append(out, entry)
	}
	return out
}
