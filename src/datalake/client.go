// Package datalake is a client for the entity-data API: entity set lookups,
// constraint search and neighbor search.
package datalake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cwp_reporting/src/model"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 2 * time.Minute
	searchPageSize = 10000
)

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the entity-data API over HTTP
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client from config
func NewClient(config model.DataLakeConfig, log zerolog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(config.BaseURL, "/"),
		Token:      config.Token,
		HTTPClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// EntitySetIDs resolves entity set names to ids.
func (c *Client) EntitySetIDs(ctx context.Context, names ...string) (map[string]string, error) {
	var ids map[string]string
	if err := c.do(ctx, http.MethodPost, "/datastore/edm/ids/entity/set", names, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// PropertyTypeIDs resolves property type FQNs to ids.
func (c *Client) PropertyTypeIDs(ctx context.Context, fqns ...string) (map[string]string, error) {
	var ids map[string]string
	if err := c.do(ctx, http.MethodPost, "/datastore/edm/ids/property/type", fqns, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetEntitySetData returns every entity in the set.
func (c *Client) GetEntitySetData(ctx context.Context, entitySetID string) ([]model.Entity, error) {
	var raw []map[string][]any
	path := "/datastore/data/" + url.PathEscape(entitySetID)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return toEntities(raw)
}

// SearchEntitySetData pages through every hit matching query. A MaxHits of
// zero means "all hits".
func (c *Client) SearchEntitySetData(ctx context.Context, entitySetID string, query SearchQuery) ([]model.Entity, error) {
	limit := query.MaxHits
	start := query.Start
	var out []model.Entity

	for {
		pageSize := searchPageSize
		if limit > 0 && limit-len(out) < pageSize {
			pageSize = limit - len(out)
		}

		req := wireSearchRequest{
			EntitySetIDs: []string{entitySetID},
			Start:        start,
			MaxHits:      pageSize,
			Constraints:  []wireConstraintGroup{},
		}
		for _, cons := range query.Constraints {
			req.Constraints = append(req.Constraints, wireConstraintGroup{Min: 1, Constraints: []Constraint{cons}})
		}

		var resp wireSearchResponse
		if err := c.do(ctx, http.MethodPost, "/datastore/search", req, &resp); err != nil {
			return nil, err
		}

		page, err := toEntities(resp.Hits)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		start += len(page)

		if len(page) == 0 || start >= resp.NumHits || (limit > 0 && len(out) >= limit) {
			break
		}
	}

	c.log.Debug().Str("entity_set_id", entitySetID).Int("hits", len(out)).Msg("search complete")
	return out, nil
}

// SearchNeighbors returns the neighbors of filter.EntityKeyIDs in entitySetID
// keyed by root entity key id.
func (c *Client) SearchNeighbors(ctx context.Context, entitySetID string, filter NeighborFilter) (model.NeighborResult, error) {
	if len(filter.EntityKeyIDs) == 0 {
		return model.NeighborResult{}, nil
	}

	var raw map[string][]wireNeighbor
	path := "/datastore/search/" + url.PathEscape(entitySetID) + "/neighbors/advanced"
	if err := c.do(ctx, http.MethodPost, path, filter, &raw); err != nil {
		return nil, err
	}

	result := make(model.NeighborResult, len(raw))
	for rootID, edges := range raw {
		for _, edge := range edges {
			if n, ok := toNeighbor(edge); ok {
				result[rootID] = append(result[rootID], n)
			}
		}
	}
	return result, nil
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("data lake request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseError(method, path string, status int, data []byte) error {
	apiErr := &APIError{StatusCode: status, Method: method, Path: path}
	var errResp errorResponse
	if err := sonic.Unmarshal(data, &errResp); err == nil {
		apiErr.Message = errResp.Error
		if apiErr.Message == "" {
			apiErr.Message = errResp.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
