// Package intake is the HTTP client for the appointment-intake API.
package intake

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

// ScheduleRequest is the payload of POST /schedule_call_task.
type ScheduleRequest struct {
	UserID            string `json:"user_id"`
	DoctorID          string `json:"doctor_id"`
	AppointmentReason string `json:"appointment_reason"`
	AdditionalRemark  string `json:"additional_remark"`
	Date              string `json:"date"`
	TimeRangeStart    string `json:"time_range_start"`
	TimeRangeEnd      string `json:"time_range_end"`
}

// Client talks to the intake API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ScheduleCallTask submits a new call task and returns the raw response body,
// so callers (the tool dispatch path) can forward it verbatim.
func (c *Client) ScheduleCallTask(ctx context.Context, req ScheduleRequest) (string, error) {
	if c.BaseURL == "" {
		return "", fmt.Errorf("intake base url missing")
	}

	payload, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/schedule_call_task", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("intake request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("intake response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("intake error: status=%d body=%s", resp.StatusCode, string(body))
	}
	return string(body), nil
}
