package openapi

import (
	"strings"

	datagrid "github.com/goliatone/go-datagrid"
)

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	operation      operationConfig
	behaviors      datagrid.Behaviors
	exportFormats  []string
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

type operationConfig struct {
	OperationID string
	Summary     string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: openapiInfo{
			Title:   "Data Grid",
			Version: "1.0.0",
		},
		behaviors:     datagrid.DefaultBehaviors(),
		exportFormats: []string{"csv", "json"},
	}
}

// GeneratorOption configures the OpenAPI generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version == "" {
			return
		}
		cfg.openAPIVersion = version
	}
}

// InfoOption configures optional fields on the OpenAPI info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the optional description field for the info section.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo configures the OpenAPI info block. Empty strings retain the
// existing values.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// OperationOption configures optional operation metadata.
type OperationOption func(*operationConfig)

// WithOperationSummary attaches a summary to the list operation.
func WithOperationSummary(summary string) OperationOption {
	return func(operation *operationConfig) {
		operation.Summary = summary
	}
}

// WithOperation sets the operationId of the list operation. The default is
// "list:<panel>".
func WithOperation(operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if operationID != "" {
			cfg.operation.OperationID = operationID
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.operation)
			}
		}
	}
}

// WithBehaviors describes the query dialect produced by behaviors instead of
// the default REST conventions.
func WithBehaviors(behaviors datagrid.Behaviors) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.behaviors = behaviors
	}
}

// WithExportFormats lists the formats accepted by the export endpoint.
func WithExportFormats(formats ...string) GeneratorOption {
	return func(cfg *generatorConfig) {
		out := make([]string, 0, len(formats))
		for _, format := range formats {
			if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
				out = append(out, format)
			}
		}
		if len(out) > 0 {
			cfg.exportFormats = out
		}
	}
}
