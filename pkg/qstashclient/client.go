/**
 * @description
 * Client for the QStash schedules API. QStash is the external
 * message-scheduling service that issues signed HTTP calls on a cron cadence;
 * this client manages the recurring trigger for the batch provisioning job.
 *
 * @dependencies
 * - net/http and friends: Standard Go libraries.
 */
package qstashclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Schedule is one recurring trigger registered with QStash.
type Schedule struct {
	ScheduleID  string `json:"scheduleId"`
	Cron        string `json:"cron"`
	Destination string `json:"destination"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

// Client provides methods to manage QStash schedules.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new QStash client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// CreateSchedule registers a recurring HTTP trigger against the destination URL.
func (c *Client) CreateSchedule(ctx context.Context, destination, cron string) (*Schedule, error) {
	endpoint := fmt.Sprintf("%s/v2/schedules/%s", c.baseURL, url.QueryEscape(destination))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Upstash-Cron", cron)

	var schedule Schedule
	if err := c.do(req, &schedule); err != nil {
		return nil, err
	}
	if schedule.Cron == "" {
		schedule.Cron = cron
	}
	if schedule.Destination == "" {
		schedule.Destination = destination
	}
	return &schedule, nil
}

// ListSchedules returns every schedule registered for this QStash account.
func (c *Client) ListSchedules(ctx context.Context) ([]Schedule, error) {
	endpoint := fmt.Sprintf("%s/v2/schedules", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var schedules []Schedule
	if err := c.do(req, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule by its id.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	endpoint := fmt.Sprintf("%s/v2/schedules/%s", c.baseURL, url.PathEscape(scheduleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, target interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("qstash base URL is not configured")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("qstash API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if target != nil && len(body) > 0 {
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}
	return nil
}
