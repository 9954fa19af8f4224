package activity

import (
	"strings"
	"time"
)

// Verbs emitted by a grid instance.
const (
	VerbBulkAction     = "grid.bulk_action.executed"
	VerbRowDeleted     = "grid.row.deleted"
	VerbViewDemoted    = "grid.view_mode.demoted"
	VerbColumnsReset   = "grid.columns.reset"
	VerbStateMigrated  = "grid.state.migrated"
	ObjectTypeGrid     = "grid"
	ObjectTypeGridRow  = "grid.row"
	ObjectTypeGridRows = "grid.rows"
)

// GridEventInput carries the fields shared by grid lifecycle events.
type GridEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Panel      string
	GridID     string
	ObjectID   string
	Action     string
	Rows       []string
	Reason     string
	Recipients []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildBulkActionEvent describes a bulk action run over a captured selection.
func BuildBulkActionEvent(input GridEventInput) Event {
	event := buildGridEvent(VerbBulkAction, ObjectTypeGridRows, input)
	event.DefinitionCode = "datagrid:bulk:" + strings.TrimSpace(input.Action)
	return event
}

// BuildRowDeletedEvent describes the deletion of one row; ObjectID is the row id.
func BuildRowDeletedEvent(input GridEventInput) Event {
	return buildGridEvent(VerbRowDeleted, ObjectTypeGridRow, input)
}

// BuildViewDemotedEvent describes an automatic grouped to flat fallback.
func BuildViewDemotedEvent(input GridEventInput) Event {
	return buildGridEvent(VerbViewDemoted, ObjectTypeGrid, input)
}

// BuildColumnsResetEvent describes a reset of column order and visibility.
func BuildColumnsResetEvent(input GridEventInput) Event {
	return buildGridEvent(VerbColumnsReset, ObjectTypeGrid, input)
}

// BuildStateMigratedEvent describes a one-time legacy state migration.
func BuildStateMigratedEvent(input GridEventInput) Event {
	return buildGridEvent(VerbStateMigrated, ObjectTypeGrid, input)
}

func buildGridEvent(verb, objectType string, input GridEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if panel := strings.TrimSpace(input.Panel); panel != "" {
		set("panel", panel)
	}
	if gridID := strings.TrimSpace(input.GridID); gridID != "" {
		set("grid_id", gridID)
	}
	if action := strings.TrimSpace(input.Action); action != "" {
		set("action", action)
	}
	if input.Rows != nil {
		set("rows", append([]string{}, input.Rows...))
		set("count", len(input.Rows))
	}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		set("reason", reason)
	}

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Panel)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.GridID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Recipients: recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
