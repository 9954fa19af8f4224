package datagrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrPanelRequired       = errors.New("datagrid: panel id is required")
	ErrEndpointRequired    = errors.New("datagrid: api endpoint is required")
	ErrNoColumns           = errors.New("datagrid: at least one column is required")
	ErrDuplicatePanel      = errors.New("datagrid: panel already registered")
	ErrGridClosed          = errors.New("datagrid: grid is closed")
	ErrUnknownBulkAction   = errors.New("datagrid: unknown bulk action")
	ErrBulkActionDisabled  = errors.New("datagrid: bulk action disabled for current selection")
	ErrEmptySelection      = errors.New("datagrid: no rows selected")
	ErrGroupedUnsupported  = errors.New("datagrid: grouped view not supported by backend")
	ErrInvalidEnvelope     = errors.New("datagrid: response envelope is invalid")
	ErrExportNotConfigured = errors.New("datagrid: export behavior not configured")
)

// StatusError reports a non-2xx response from the data endpoint.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body != "" {
		return fmt.Sprintf("datagrid: %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("datagrid: %s %s returned %d", e.Method, e.URL, e.StatusCode)
}

// Unsupported reports whether the status means the backend lacks the
// requested capability (not found or not implemented).
func (e *StatusError) Unsupported() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusNotImplemented
}

// DecodeError wraps a malformed URL key, persisted field or response body.
type DecodeError struct {
	Source string
	Key    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Key == "" {
		return fmt.Sprintf("datagrid: decode %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("datagrid: decode %s key %q: %v", e.Source, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsCancellation reports whether err comes from a superseded or torn down
// fetch. Such errors are never reported to the user.
func IsCancellation(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsUnsupported reports whether err signals a capability mismatch that
// should demote a grouped view to flat.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrGroupedUnsupported) {
		return true
	}
	var status *StatusError
	return errors.As(err, &status) && status.Unsupported()
}
