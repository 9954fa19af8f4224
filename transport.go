package datagrid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const defaultUserAgent = "go-datagrid/0.1"

// maxErrorBody bounds how much of a failed response body ends up in a
// StatusError.
const maxErrorBody = 512

// Request is one outbound call to the data endpoint.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// ID correlates the request in logs. Transports may forward it.
	ID string
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs requests with cooperative cancellation through ctx.
// Implementations return *StatusError for non-2xx replies.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

func (fn TransportFunc) Do(ctx context.Context, req Request) (Response, error) {
	if fn == nil {
		return Response{}, fmt.Errorf("datagrid: transport func is nil")
	}
	return fn(ctx, req)
}

// HTTPTransport is the default Transport backed by net/http. It sends
// Accept: application/json and an X-Request-ID header on every request.
type HTTPTransport struct {
	Client    *http.Client
	Header    http.Header
	UserAgent string
}

var _ Transport = (*HTTPTransport)(nil)

func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	client := http.DefaultClient
	if t != nil && t.Client != nil {
		client = t.Client
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("datagrid: create request: %w", err)
	}
	if t != nil {
		for key, values := range t.Header {
			for _, value := range values {
				httpReq.Header.Add(key, value)
			}
		}
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	agent := defaultUserAgent
	if t != nil && t.UserAgent != "" {
		agent = t.UserAgent
	}
	httpReq.Header.Set("User-Agent", agent)
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", id)

	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("datagrid: execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("datagrid: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		text := strings.TrimSpace(string(raw))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return Response{}, &StatusError{Method: method, URL: req.URL, StatusCode: resp.StatusCode, Body: text}
	}
	return Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: raw}, nil
}
