package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/solarops/dispatch/internal/domain"
)

// APIError is a non-2xx response from the dispatch server.
type APIError struct {
	Status  int      `json:"-"`
	Message string   `json:"error"`
	Details []string `json:"details"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

type LoginResult struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	TeamID   *uint       `json:"teamId"`
	Token    string      `json:"token"`
}

type AssignResult struct {
	Task *domain.Task `json:"task"`
	Team *domain.Team `json:"team"`
}

type CreateTaskRequest struct {
	Activity       domain.Activity `json:"activity"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	Plant          string          `json:"plant"`
	Priority       domain.Priority `json:"priority"`
	EstimatedHours int             `json:"estimatedHours"`
}

// APIClient is a typed client for the dispatch HTTP API.
type APIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// WebsocketURL derives the realtime endpoint from the base URL.
func (c *APIClient) WebsocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

func (c *APIClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return &out, nil
}

func (c *APIClient) Tasks(ctx context.Context) ([]domain.Task, error) {
	var out []domain.Task
	return out, c.do(ctx, http.MethodGet, KeyTasks, nil, &out)
}

func (c *APIClient) Task(ctx context.Context, id uint) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask sends a partial patch; only the keys present in patch are changed.
func (c *APIClient) UpdateTask(ctx context.Context, id uint, patch map[string]interface{}) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteTask(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}

// AssignTask assigns to teamID; zero lets the server use the caller's own team.
func (c *APIClient) AssignTask(ctx context.Context, taskID, teamID uint) (*AssignResult, error) {
	body := map[string]interface{}{}
	if teamID != 0 {
		body["teamId"] = teamID
	}
	var out AssignResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", taskID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CompleteTask(ctx context.Context, taskID uint) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/complete", taskID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Teams(ctx context.Context) ([]domain.Team, error) {
	var out []domain.Team
	return out, c.do(ctx, http.MethodGet, KeyTeams, nil, &out)
}

func (c *APIClient) UpdateTeam(ctx context.Context, id uint, patch map[string]interface{}) (*domain.Team, error) {
	var out domain.Team
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/teams/%d", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Plants(ctx context.Context) ([]domain.Plant, error) {
	var out []domain.Plant
	return out, c.do(ctx, http.MethodGet, "/api/plants", nil, &out)
}

func (c *APIClient) SearchPlants(ctx context.Context, q string) ([]domain.Plant, error) {
	var out []domain.Plant
	return out, c.do(ctx, http.MethodGet, "/api/plants/search?q="+url.QueryEscape(q), nil, &out)
}

func (c *APIClient) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.do(ctx, http.MethodGet, KeyStats, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Timeline(ctx context.Context, limit int) ([]domain.TimelineEvent, error) {
	var out []domain.TimelineEvent
	path := "/api/timeline"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
