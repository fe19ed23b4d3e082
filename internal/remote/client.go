// Package remote is the HTTP gateway to the FieldTime server. It is
// pure transport: one request per call, no retries, no queue knowledge.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldtime/fieldtime/internal/models"
)

const defaultTimeout = 30 * time.Second

// Error is a non-2xx server response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the error is a 401/403 server response.
// Those are identity problems; replaying the request cannot fix them.
func IsAuthError(err error) bool {
	var serr *Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.StatusCode == http.StatusUnauthorized || serr.StatusCode == http.StatusForbidden
}

// Client talks to the FieldTime server API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. token is sent as a bearer
// credential on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// ServerTimeEntry is the wire shape of a time entry as the server
// returns it. Timestamps are RFC 3339; participants come as sub-records.
type ServerTimeEntry struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	TimeStarted  string `json:"timeStarted"`
	TimeEnded    string `json:"timeEnded"`
	Studies      []struct {
		Name string `json:"name"`
	} `json:"studies"`
	Participated bool   `json:"participated"`
	Comments     string `json:"comments"`
}

// ToTimeEntry converts the wire shape into a local record for the
// given owner. Server wall-clock timestamps become unix milliseconds.
func (s *ServerTimeEntry) ToTimeEntry(userID string) (*models.TimeEntry, error) {
	started, err := time.Parse(time.RFC3339, s.TimeStarted)
	if err != nil {
		return nil, fmt.Errorf("bad server start time %q: %w", s.TimeStarted, err)
	}
	ended, err := time.Parse(time.RFC3339, s.TimeEnded)
	if err != nil {
		return nil, fmt.Errorf("bad server end time %q: %w", s.TimeEnded, err)
	}

	studies := make([]string, 0, len(s.Studies))
	for _, st := range s.Studies {
		studies = append(studies, st.Name)
	}

	return &models.TimeEntry{
		UserID:       userID,
		Date:         s.Date,
		TimeStarted:  started.UnixMilli(),
		TimeEnded:    ended.UnixMilli(),
		Studies:      studies,
		Participated: s.Participated,
		Comments:     s.Comments,
	}, nil
}

// CreateEntry uploads a new time entry.
func (c *Client) CreateEntry(ctx context.Context, payload *models.CreateEntryPayload) error {
	return c.send(ctx, http.MethodPost, "/sync/time-entry", payload)
}

// UpdateEntry uploads the changed fields of an existing entry.
func (c *Client) UpdateEntry(ctx context.Context, id string, payload *models.UpdateEntryPayload) error {
	return c.send(ctx, http.MethodPut, "/sync/time-entry/"+url.PathEscape(id), payload)
}

// DeleteEntry removes an entry on the server.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/sync/time-entry/"+url.PathEscape(id), nil)
}

// monthlyResponse is the server response for a monthly fetch.
type monthlyResponse struct {
	Entries []ServerTimeEntry `json:"entries"`
}

// FetchMonth downloads all of the authenticated user's entries for one
// calendar month.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month) ([]ServerTimeEntry, error) {
	endpoint := fmt.Sprintf("%s/entries/monthly?year=%d&month=%d", c.baseURL, year, int(month))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var page monthlyResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding server response: %w", err)
	}
	return page.Entries, nil
}

// send performs a JSON request that returns no body of interest.
func (c *Client) send(ctx context.Context, method, path string, payload interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, data)
	}

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeError builds an *Error from a non-2xx response body. The server
// reports failures as {"message": "..."}; anything else falls back to
// the raw body.
func decodeError(status int, body []byte) error {
	var wire struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Message != "" {
		return &Error{StatusCode: status, Message: wire.Message}
	}
	return &Error{StatusCode: status, Message: string(body)}
}
