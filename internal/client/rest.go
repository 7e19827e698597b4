// Package client is the Go consumer of the devclock API: a REST client,
// a live-updating project feed, and relevance ranking for search.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mzalewski/devclock/pkg/api"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Client talks to a devclock server on behalf of one user. The username
// rides along as the identity header on every request.
type Client struct {
	baseURL    string
	username   string
	httpClient *http.Client
}

func New(baseURL, username string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) BaseURL() string  { return c.baseURL }
func (c *Client) Username() string { return c.username }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.username != "" {
		req.Header.Set("X-Username", c.username)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Details = errResp.Details
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CurrentUser resolves the client's username against the server roster.
// Used as the login check.
func (c *Client) CurrentUser(ctx context.Context) (*api.UserResponse, error) {
	var u api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/current", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) AvailableUsers(ctx context.Context) ([]api.UserResponse, error) {
	var users []api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/available", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]api.ProjectResponse, error) {
	var projects []api.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CurrentTimes fetches the project list with running segments already
// folded into the counters server-side.
func (c *Client) CurrentTimes(ctx context.Context) ([]api.ProjectResponse, error) {
	var projects []api.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/current-times", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	req := api.CreateProjectRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProject(ctx context.Context, id, name, description string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	req := api.UpdateProjectRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id, nil, nil)
}

func (c *Client) ToggleDev(ctx context.Context, id string) (*api.ProjectResponse, error) {
	return c.timerAction(ctx, id, "toggle-dev")
}

func (c *Client) ToggleWait(ctx context.Context, id string) (*api.ProjectResponse, error) {
	return c.timerAction(ctx, id, "toggle-wait")
}

func (c *Client) StopTimers(ctx context.Context, id string) (*api.ProjectResponse, error) {
	return c.timerAction(ctx, id, "stop")
}

func (c *Client) timerAction(ctx context.Context, id, action string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+id+"/"+action, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AssignProject(ctx context.Context, id, username string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	req := api.AssignProjectRequest{Username: username}
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id+"/assign", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AssignProjectToAll(ctx context.Context, id string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id+"/assign-all", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UnassignProject(ctx context.Context, id string) (*api.ProjectResponse, error) {
	var p api.ProjectResponse
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id+"/unassign", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Timeline(ctx context.Context, id string) ([]api.TimelineEntryResponse, error) {
	var entries []api.TimelineEntryResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+id+"/timeline", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
