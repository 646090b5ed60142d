// Package backend implements driven.BackendFeed against the caching backend's
// /api/github-repos endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BackendFeed = (*Client)(nil)

const (
	sourceName   = "backend"
	maxBodyBytes = 4 << 20
)

// Client fetches the repository feed from the caching backend. It applies no
// deadline of its own; the caller bounds each request through ctx.
type Client struct {
	httpClient *http.Client
	url        string
	envelope   *jsonschema.Schema
	entry      *jsonschema.Schema
}

// NewClient creates a backend client for the given endpoint URL. A nil
// httpClient falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, url string) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	envelope, err := compileSchema(envelopeSchemaURL, envelopeSchema)
	if err != nil {
		return nil, err
	}
	entry, err := compileSchema(entrySchemaURL, entrySchema)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: httpClient,
		url:        url,
		envelope:   envelope,
		entry:      entry,
	}, nil
}

// rawPayload defers decoding of individual entries until each one has been
// validated on its own.
type rawPayload struct {
	Success bool              `json:"success"`
	Repos   []json.RawMessage `json:"repos"`
	Source  string            `json:"source"`
	Error   string            `json:"error"`
}

// FetchRepos performs one GET against the backend. Any non-200 status, an
// envelope that does not validate, or success=false is reported as a
// *driven.SourceError. Individual entries that fail validation are dropped.
func (c *Client) FetchRepos(ctx context.Context) (*model.BackendPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "repofeed")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable("reading backend response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, malformed("backend returned invalid JSON", err)
	}
	if err := c.envelope.Validate(inst); err != nil {
		return nil, malformed("backend payload does not match envelope schema", err)
	}

	var raw rawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed("decoding backend payload", err)
	}

	if !raw.Success {
		msg := raw.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, unavailable(msg, nil)
	}

	payload := &model.BackendPayload{
		Success: true,
		Repos:   c.decodeEntries(raw.Repos),
		Source:  model.BackendSource(raw.Source),
	}

	slog.Debug("backend feed fetched", "count", len(payload.Repos), "source", payload.Source)

	return payload, nil
}

// decodeEntries validates and decodes each entry independently.
func (c *Client) decodeEntries(entries []json.RawMessage) []model.BackendRepo {
	repos := make([]model.BackendRepo, 0, len(entries))
	for i, entry := range entries {
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(entry))
		if err != nil {
			slog.Warn("skipping backend entry", "index", i, "error", err)
			continue
		}
		if err := c.entry.Validate(inst); err != nil {
			slog.Warn("skipping backend entry", "index", i, "error", err)
			continue
		}

		var repo model.BackendRepo
		if err := json.Unmarshal(entry, &repo); err != nil {
			slog.Warn("skipping backend entry", "index", i, "error", err)
			continue
		}
		if repo.Topics == nil {
			repo.Topics = []string{}
		}
		repos = append(repos, repo)
	}
	return repos
}

func unavailable(message string, err error) *driven.SourceError {
	return &driven.SourceError{Source: sourceName, Message: message, Kind: driven.ErrSourceUnavailable, Err: err}
}

func malformed(message string, err error) *driven.SourceError {
	return &driven.SourceError{Source: sourceName, Message: message, Kind: driven.ErrMalformedPayload, Err: err}
}
