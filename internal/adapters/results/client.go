// Package results talks to the competition results API and imports the
// team's events and awards into storage.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.thebluealliance.com/api/v3"
	authHeader     = "X-TBA-Auth-Key"
	maxBodyBytes   = 4 << 20
)

// Event is an event as the results API reports it.
type Event struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	City      string `json:"city"`
	StateProv string `json:"state_prov"`
	Country   string `json:"country"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Website   string `json:"website"`
	Year      int    `json:"year"`
}

// Location joins the non-empty place fields.
func (e Event) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.City, e.StateProv, e.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Award is one award the team received at an event.
type Award struct {
	Name      string `json:"name"`
	AwardType int    `json:"award_type"`
	EventKey  string `json:"event_key"`
	Year      int    `json:"year"`
}

// Client reads from the results API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// TeamEvents lists the events a team attended in a season.
func (c *Client) TeamEvents(ctx context.Context, team string, year int) ([]Event, error) {
	var out []Event
	path := "/team/" + url.PathEscape(team) + "/events/" + strconv.Itoa(year)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EventAwards lists the awards a team received at one event.
func (c *Client) EventAwards(ctx context.Context, team, eventKey string) ([]Award, error) {
	var out []Award
	path := "/team/" + url.PathEscape(team) + "/event/" + url.PathEscape(eventKey) + "/awards"
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(authHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Path: path, Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
