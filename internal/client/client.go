// Package client talks to the workout API and keeps the terminal session state.
package client

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

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "http://localhost:5000/api"

// Workout is a record as returned by the API.
type Workout struct {
	ID        string
	Exercise  string
	Sets      int
	Reps      int
	Weight    float64
	Duration  float64
	CreatedAt time.Time
}

// UnmarshalJSON accepts either "id" or the document store's "_id", and the legacy
// "date" timestamp key alongside "createdAt".
func (w *Workout) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string    `json:"id"`
		DocID     string    `json:"_id"`
		Exercise  string    `json:"exercise"`
		Sets      float64   `json:"sets"`
		Reps      float64   `json:"reps"`
		Weight    float64   `json:"weight"`
		Duration  float64   `json:"duration"`
		CreatedAt time.Time `json:"createdAt"`
		Date      time.Time `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*w = Workout{
		ID:        raw.ID,
		Exercise:  raw.Exercise,
		Sets:      int(raw.Sets),
		Reps:      int(raw.Reps),
		Weight:    raw.Weight,
		Duration:  raw.Duration,
		CreatedAt: raw.CreatedAt,
	}
	if w.ID == "" {
		w.ID = raw.DocID
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = raw.Date
	}
	return nil
}

// CreateRequest is the body sent to POST /workouts.
type CreateRequest struct {
	Exercise string  `json:"exercise"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
	Duration float64 `json:"duration"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Config tunes the Client. A zero Timeout means requests only end with their context.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin JSON client for the workout API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// List fetches every stored workout in store order.
func (c *Client) List(ctx context.Context) ([]Workout, error) {
	var workouts []Workout
	if err := c.do(ctx, http.MethodGet, "/workouts", nil, &workouts); err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []Workout{}
	}
	return workouts, nil
}

// Create stores a workout and returns the saved record.
func (c *Client) Create(ctx context.Context, req CreateRequest) (Workout, error) {
	var saved Workout
	if err := c.do(ctx, http.MethodPost, "/workouts", req, &saved); err != nil {
		return Workout{}, err
	}
	return saved, nil
}

// Delete removes the workout with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/workouts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
