package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRemoteTimeout = 5 * time.Second

// RemoteStore keeps a local Store as the synchronous source of truth and
// hydrates it from an HTTP endpoint. Snapshots are addressed as
// `<Endpoint>/<Ref.Identifier()>`.
type RemoteStore[T any] struct {
	Local    Store[T]
	Endpoint string
	Client   *http.Client
	Header   http.Header
}

func (s *RemoteStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if s == nil || s.Local == nil {
		return zero, Meta{}, false, fmt.Errorf("state: remote store requires a local store")
	}
	return s.Local.Load(ctx, ref)
}

// Save writes the local copy first, then pushes the snapshot upstream. A
// remote failure is returned after the local write already succeeded.
func (s *RemoteStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	if s == nil || s.Local == nil {
		return Meta{}, fmt.Errorf("state: remote store requires a local store")
	}
	saved, err := s.Local.Save(ctx, ref, snapshot, meta)
	if err != nil {
		return Meta{}, err
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return saved, nil
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return saved, fmt.Errorf("state: encode remote snapshot: %w", err)
	}
	resp, err := s.do(ctx, http.MethodPut, ref, bytes.NewReader(body), saved.ETag)
	if err != nil {
		return saved, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return saved, fmt.Errorf("state: remote save returned status %d", resp.StatusCode)
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		saved.ETag = etag
	}
	return saved, nil
}

// Hydrate fetches the remote snapshot and stores it locally. A missing remote
// snapshot (404) leaves the local copy untouched.
func (s *RemoteStore[T]) Hydrate(ctx context.Context, ref Ref) error {
	if s == nil || s.Local == nil {
		return fmt.Errorf("state: remote store requires a local store")
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return nil
	}
	resp, err := s.do(ctx, http.MethodGet, ref, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("state: remote hydrate returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("state: read remote snapshot: %w", err)
	}
	var snapshot T
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("state: decode remote snapshot: %w", err)
	}
	meta := Meta{ETag: resp.Header.Get("ETag"), UpdatedAt: time.Now().UTC()}
	if _, err := s.Local.Save(ctx, ref, snapshot, meta); err != nil {
		return fmt.Errorf("state: store hydrated snapshot: %w", err)
	}
	return nil
}

func (s *RemoteStore[T]) do(ctx context.Context, method string, ref Ref, body io.Reader, etag string) (*http.Response, error) {
	id, err := ref.Identifier()
	if err != nil {
		return nil, err
	}
	target := strings.TrimRight(s.Endpoint, "/") + "/" + id
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("state: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if etag != "" {
		req.Header.Set("If-Match", etag)
	}
	for key, values := range s.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("state: %s %s: %w", method, id, err)
	}
	return resp, nil
}

var (
	_ Store[struct{}] = (*RemoteStore[struct{}])(nil)
	_ Hydrator        = (*RemoteStore[struct{}])(nil)
)
