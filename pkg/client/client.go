// Package client is a Go SDK for the planner API. Authentication is
// cookie-based: Login stores the session cookie in the client's jar and
// every later call rides on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/ric-center/planner/internal/models"
)

// Client is a Go SDK for the planner API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new planner client
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}

	return c
}

// Login signs in and keeps the session cookie for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := c.call(ctx, "POST", "/api/auth/login",
		map[string]string{"email": email, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an account and signs in.
func (c *Client) Register(ctx context.Context, email, password, name, surname string) (*models.User, error) {
	var user models.User
	err := c.call(ctx, "POST", "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
		"surname":  surname,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout drops the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, "POST", "/api/auth/logout", nil, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, "GET", "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Events lists all events with derived status and organizer.
func (c *Client) Events(ctx context.Context) ([]models.Event, error) {
	var data struct {
		Events []models.Event `json:"events"`
		Total  int            `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/events", nil, &data); err != nil {
		return nil, err
	}
	return data.Events, nil
}

// Event returns one event by id.
func (c *Client) Event(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/events/%d", id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent creates an event (organizer only).
func (c *Client) CreateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	var saved models.Event
	if err := c.call(ctx, "POST", "/api/events", event, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateEvent updates an existing event (organizer only).
func (c *Client) UpdateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	var saved models.Event
	if err := c.call(ctx, "PUT", fmt.Sprintf("/api/events/%d", event.ID), event, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteEvent removes an event (organizer only).
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("/api/events/%d", id), nil, nil)
}

// Directions lists an event's directions.
func (c *Client) Directions(ctx context.Context, eventID int64) ([]models.Direction, error) {
	var data struct {
		Directions []models.Direction `json:"directions"`
	}
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/events/%d/directions", eventID), nil, &data); err != nil {
		return nil, err
	}
	return data.Directions, nil
}

// SaveDirections replaces an event's direction list (organizer only).
func (c *Client) SaveDirections(ctx context.Context, eventID int64, dirs []models.Direction) ([]models.Direction, error) {
	var data struct {
		Directions []models.Direction `json:"directions"`
	}
	if err := c.call(ctx, "PUT", fmt.Sprintf("/api/events/%d/directions", eventID), dirs, &data); err != nil {
		return nil, err
	}
	return data.Directions, nil
}

// Projects lists a direction's projects.
func (c *Client) Projects(ctx context.Context, directionID int64) ([]models.Project, error) {
	var data struct {
		Projects []models.Project `json:"projects"`
	}
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/directions/%d/projects", directionID), nil, &data); err != nil {
		return nil, err
	}
	return data.Projects, nil
}

// SaveProjects replaces a direction's project list (organizer only).
func (c *Client) SaveProjects(ctx context.Context, directionID int64, projects []models.Project) ([]models.Project, error) {
	var data struct {
		Projects []models.Project `json:"projects"`
	}
	if err := c.call(ctx, "PUT", fmt.Sprintf("/api/directions/%d/projects", directionID), projects, &data); err != nil {
		return nil, err
	}
	return data.Projects, nil
}

// Applications lists applications visible to the signed-in user together
// with the fixed status pipeline.
func (c *Client) Applications(ctx context.Context) ([]models.Application, []string, error) {
	var data struct {
		Applications []models.Application `json:"applications"`
		Statuses     []string             `json:"statuses"`
	}
	if err := c.call(ctx, "GET", "/api/applications", nil, &data); err != nil {
		return nil, nil, err
	}
	return data.Applications, data.Statuses, nil
}

// SubmitApplication submits an application for a project.
func (c *Client) SubmitApplication(ctx context.Context, app models.Application) (*models.Application, error) {
	var saved models.Application
	if err := c.call(ctx, "POST", "/api/applications", app, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateApplicationStatus moves an application through the pipeline
// (organizer only).
func (c *Client) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	return c.call(ctx, "PUT", fmt.Sprintf("/api/applications/%d/status", id),
		map[string]string{"status": status}, nil)
}

// WithdrawApplication removes an application.
func (c *Client) WithdrawApplication(ctx context.Context, id int64) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("/api/applications/%d", id), nil, nil)
}

// Specializations lists the selectable application specializations.
func (c *Client) Specializations(ctx context.Context) ([]models.Specialization, error) {
	var data struct {
		Specializations []models.Specialization `json:"specializations"`
	}
	if err := c.call(ctx, "GET", "/api/specializations", nil, &data); err != nil {
		return nil, err
	}
	return data.Specializations, nil
}

// Users lists known users (password material stripped server-side).
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var data struct {
		Users []models.User `json:"users"`
	}
	if err := c.call(ctx, "GET", "/api/users", nil, &data); err != nil {
		return nil, err
	}
	return data.Users, nil
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.call(ctx, "GET", "/api/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile writes the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, p models.Profile) error {
	return c.call(ctx, "PUT", "/api/profile", p, nil)
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// call performs a request and unwraps the response envelope into out
// (which may be nil when the caller only cares about success).
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	resp, err := c.doRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success {
		if result.Error != nil {
			return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}
	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
