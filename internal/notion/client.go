// internal/notion/client.go
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Version string
}

// Client is a minimal Notion REST API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a client. Empty BaseURL and Version fall back to the
// public API defaults.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Version == "" {
		config.Version = DefaultVersion
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error (status %d): %s: %s", e.Status, e.Code, e.Message)
}

// Filter is a database query filter object.
type Filter map[string]any

// EqualsFilter matches rows whose property equals value. Kind is the
// property's type: "title", "rich_text", "number" and so on.
func EqualsFilter(property, kind string, value any) Filter {
	return Filter{
		"property": property,
		kind:       map[string]any{"equals": value},
	}
}

// OrFilter matches rows matching any of filters.
func OrFilter(filters ...Filter) Filter {
	return Filter{"or": filters}
}

type queryRequest struct {
	Filter      Filter  `json:"filter,omitempty"`
	StartCursor *string `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryDatabase returns every page of the database matching filter,
// following pagination cursors.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter Filter) ([]Page, error) {
	var pages []Page
	req := queryRequest{Filter: filter, PageSize: 100}
	for {
		var resp queryResponse
		path := "/databases/" + url.PathEscape(databaseID) + "/query"
		if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// RelationUpdate sets a relation property to exactly the given page ids.
func RelationUpdate(ids []string) map[string]any {
	refs := make([]Reference, len(ids))
	for i, id := range ids {
		refs[i] = Reference{ID: id}
	}
	return map[string]any{"relation": refs}
}

// UpdatePage patches the named properties of a page and returns the
// updated page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) (*Page, error) {
	var page Page
	body := map[string]any{"properties": properties}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RetrievePage fetches a page by id.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Notion-Version", c.config.Version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
