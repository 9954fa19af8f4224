package datagrid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-datagrid/internal/hydrate"
	"github.com/goliatone/go-datagrid/pkg/activity"
	"github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultPerPage          = 10
	DefaultSearchDebounce   = 300 * time.Millisecond
	DefaultMaxURLLength     = 1800
	DefaultMaxFiltersLength = 600
	DefaultStateKey         = "state"
	DefaultIDField          = "id"
)

// Duration is a time.Duration that decodes from "300ms" style strings in
// TOML and JSON, or from a JSON number of nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("datagrid: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalJSON(raw []byte) error {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		*d = Duration(time.Duration(number))
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return fmt.Errorf("datagrid: duration must be a string or number: %w", err)
	}
	return d.UnmarshalText([]byte(text))
}

// Config is the single, typed configuration of one grid instance.
type Config struct {
	PanelID     string   `json:"panel_id" toml:"panel_id"`
	OwnerID     string   `json:"owner_id,omitempty" toml:"owner_id"`
	APIEndpoint string   `json:"api_endpoint" toml:"api_endpoint"`
	Columns     []Column `json:"columns" toml:"columns"`
	IDField     string   `json:"id_field,omitempty" toml:"id_field"`

	PerPage           int        `json:"per_page,omitempty" toml:"per_page"`
	DefaultViewMode   ViewMode   `json:"default_view_mode,omitempty" toml:"default_view_mode"`
	DefaultExpandMode ExpandMode `json:"default_expand_mode,omitempty" toml:"default_expand_mode"`
	GroupBy           string     `json:"group_by,omitempty" toml:"group_by"`

	SearchDebounce   Duration `json:"search_debounce,omitempty" toml:"search_debounce"`
	MaxURLLength     int      `json:"max_url_length,omitempty" toml:"max_url_length"`
	MaxFiltersLength int      `json:"max_filters_length,omitempty" toml:"max_filters_length"`
	StateKey         string   `json:"state_key,omitempty" toml:"state_key"`

	Activity activity.Config `json:"activity" toml:"activity"`
}

// Validate checks the fields that have no usable default.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PanelID) == "" {
		errs = append(errs, ErrPanelRequired)
	}
	if strings.ContainsAny(c.PanelID, "/.") {
		errs = append(errs, fmt.Errorf("datagrid: panel id %q must not contain '/' or '.'", c.PanelID))
	}
	if strings.TrimSpace(c.APIEndpoint) == "" {
		errs = append(errs, ErrEndpointRequired)
	}
	if len(c.Columns) == 0 {
		errs = append(errs, ErrNoColumns)
	}
	seen := map[string]struct{}{}
	for i, column := range c.Columns {
		field := strings.TrimSpace(column.Field)
		if field == "" {
			errs = append(errs, fmt.Errorf("datagrid: column %d has no field", i))
			continue
		}
		if _, dup := seen[field]; dup {
			errs = append(errs, fmt.Errorf("datagrid: duplicate column %q", field))
		}
		seen[field] = struct{}{}
	}
	if c.PerPage < 0 {
		errs = append(errs, fmt.Errorf("datagrid: per page must be positive, got %d", c.PerPage))
	}
	if c.DefaultViewMode != "" && !c.DefaultViewMode.Valid() {
		errs = append(errs, fmt.Errorf("datagrid: unknown view mode %q", c.DefaultViewMode))
	}
	if c.DefaultExpandMode != "" && !c.DefaultExpandMode.Valid() {
		errs = append(errs, fmt.Errorf("datagrid: unknown expand mode %q", c.DefaultExpandMode))
	}
	if c.DefaultViewMode == ViewGrouped && strings.TrimSpace(c.GroupBy) == "" {
		errs = append(errs, fmt.Errorf("datagrid: grouped view requires group_by"))
	}
	return errors.Join(errs...)
}

func (c Config) withDefaults() Config {
	out := c
	out.PanelID = strings.TrimSpace(c.PanelID)
	out.OwnerID = strings.TrimSpace(c.OwnerID)
	out.APIEndpoint = strings.TrimRight(strings.TrimSpace(c.APIEndpoint), "/")
	out.Columns = make([]Column, len(c.Columns))
	for i, column := range c.Columns {
		column.Field = strings.TrimSpace(column.Field)
		if column.Label == "" {
			column.Label = column.Field
		}
		out.Columns[i] = column
	}
	if strings.TrimSpace(out.IDField) == "" {
		out.IDField = DefaultIDField
	}
	if out.PerPage == 0 {
		out.PerPage = DefaultPerPage
	}
	if out.DefaultViewMode == "" {
		out.DefaultViewMode = ViewFlat
	}
	if out.DefaultExpandMode == "" {
		out.DefaultExpandMode = ExpandExplicit
	}
	if out.SearchDebounce == 0 {
		out.SearchDebounce = Duration(DefaultSearchDebounce)
	}
	if out.MaxURLLength <= 0 {
		out.MaxURLLength = DefaultMaxURLLength
	}
	if out.MaxFiltersLength <= 0 {
		out.MaxFiltersLength = DefaultMaxFiltersLength
	}
	if strings.TrimSpace(out.StateKey) == "" {
		out.StateKey = DefaultStateKey
	}
	return out
}

// Fields returns the configured column fields in configured order.
func (c Config) Fields() []string {
	fields := make([]string, 0, len(c.Columns))
	for _, column := range c.Columns {
		fields = append(fields, column.Field)
	}
	return fields
}

// DefaultHidden returns the columns hidden by default.
func (c Config) DefaultHidden() StringSet {
	hidden := StringSet{}
	for _, column := range c.Columns {
		if column.Hidden {
			hidden.Add(column.Field)
		}
	}
	return hidden
}

// Column returns the column definition for field.
func (c Config) Column(field string) (Column, bool) {
	for _, column := range c.Columns {
		if column.Field == field {
			return column, true
		}
	}
	return Column{}, false
}

// DecodeConfig turns a loosely structured map into a validated Config.
// Unknown keys are rejected.
func DecodeConfig(payload map[string]any) (Config, error) {
	decoder := hydrate.NewDecoder[Config](
		hydrate.WithDisallowUnknownFields[Config](),
		hydrate.WithPostHook[Config](func(_ hydrate.Context, cfg *Config) error {
			return cfg.Validate()
		}),
	)
	panel, _ := payload["panel_id"].(string)
	cfg, err := decoder.Decode(hydrate.Context{Source: "config", Panel: panel}, payload)
	if err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

// LoadConfigFile reads a TOML grid configuration. A leading "~" in path is
// expanded to the home directory.
func LoadConfigFile(path string) (Config, error) {
	resolved, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return Config{}, fmt.Errorf("datagrid: resolve config path: %w", err)
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("datagrid: read config: %w", err)
	}
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("datagrid: parse config %s: %w", resolved, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}
