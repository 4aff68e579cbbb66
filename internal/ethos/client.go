package ethos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrFatalFetch marks a failure that must abort a whole collection run.
	ErrFatalFetch = errors.New("fatal fetch error")
	// ErrTransientFetch marks a per-profile failure that callers treat as an empty feed.
	ErrTransientFetch = errors.New("transient fetch error")
)

// APIError is returned when the Ethos API answers with a non-success status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ethos API error %d: %s", e.StatusCode, e.Body)
}

// ActivityFetcher returns one page of a profile's activity feed. Upstream
// failures are wrapped in ErrTransientFetch.
type ActivityFetcher interface {
	ProfileActivities(ctx context.Context, profileID int64, limit int) ([]Activity, error)
}

// Client wraps the Ethos v2 HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Ethos API client. timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest sends a request with an optional JSON body
func (c *Client) doRequest(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "gigachads-leaderboard")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// readAndClose decodes the body into target and closes it.
func readAndClose(resp *http.Response, target any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// readErrorAndClose reads an error body and closes it.
func readErrorAndClose(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
}

// GetCategoryUsers fetches one page of a category's members.
func (c *Client) GetCategoryUsers(ctx context.Context, categoryID, limit, offset int) ([]User, error) {
	url := fmt.Sprintf("%s/categories/%d/users?limit=%d&offset=%d", c.baseURL, categoryID, limit, offset)

	resp, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, readErrorAndClose(resp)
	}

	var page struct {
		Users []User `json:"users"`
	}
	if err := readAndClose(resp, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return page.Users, nil
}

// activitiesRequest is the body of POST /activities/profile/all
type activitiesRequest struct {
	Userkey           string `json:"userkey"`
	ExcludeHistorical bool   `json:"excludeHistorical"`
	Limit             int    `json:"limit"`
	Offset            int    `json:"offset"`
}

// ActivityPage is one page of a profile's activity feed
type ActivityPage struct {
	Activities []Activity
	Total      int
}

// GetProfileActivities fetches the first page of a profile's activity feed.
// Records that cannot be decoded are skipped.
func (c *Client) GetProfileActivities(ctx context.Context, profileID int64, limit int) (*ActivityPage, error) {
	url := c.baseURL + "/activities/profile/all"
	body := activitiesRequest{
		Userkey:           Userkey(profileID),
		ExcludeHistorical: false,
		Limit:             limit,
		Offset:            0,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, readErrorAndClose(resp)
	}

	var raw struct {
		Values []json.RawMessage `json:"values"`
		Total  int               `json:"total"`
	}
	if err := readAndClose(resp, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	page := &ActivityPage{
		Activities: make([]Activity, 0, len(raw.Values)),
		Total:      raw.Total,
	}
	for _, value := range raw.Values {
		act, err := NormalizeActivity(value)
		if err != nil {
			slog.Debug("Skipping undecodable activity", "profile_id", profileID, "error", err)
			continue
		}
		page.Activities = append(page.Activities, act)
	}
	return page, nil
}

// ProfileActivities implements ActivityFetcher. Failures are wrapped in
// ErrTransientFetch; cancellation of ctx is returned as ctx.Err().
func (c *Client) ProfileActivities(ctx context.Context, profileID int64, limit int) ([]Activity, error) {
	page, err := c.GetProfileActivities(ctx, profileID, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: profile %d: %w", ErrTransientFetch, profileID, err)
	}
	if page.Total > limit {
		slog.Debug("Activity feed truncated to one page",
			"profile_id", profileID,
			"limit", limit,
			"total", page.Total,
		)
	}
	return page.Activities, nil
}

// Userkey formats the activity feed key for a profile.
func Userkey(profileID int64) string {
	return fmt.Sprintf("profileId:%d", profileID)
}
