package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the backend rejects the user token.
var ErrUnauthorized = errors.New("backend rejected user token")

// ErrNoSession is returned when a task lookup needs a session id and none is configured.
var ErrNoSession = errors.New("no task session configured")

// APIError is a non-success envelope or HTTP status from the backend.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("backend error: status %d code %d", err.Status, err.Code)
	}
	return fmt.Sprintf("backend error: status %d code %d: %s", err.Status, err.Code, err.Message)
}

// Config holds connection settings for the assistant backend.
type Config struct {
	BaseURL   string
	Token     string
	SessionID string
	Timeout   time.Duration
}

// Client calls the task endpoints of the assistant backend.
type Client struct {
	mu         sync.Mutex
	config     Config
	httpClient *http.Client
	tasks      map[string]Task
}

// New creates a client. An empty BaseURL falls back to http://localhost:8000/api/v1.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000/api/v1"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		tasks:      make(map[string]Task),
	}
}

// UpdateConfig swaps connection settings and drops cached tasks.
func (client *Client) UpdateConfig(config Config) {
	fresh := New(config)
	client.mu.Lock()
	client.config = fresh.config
	client.httpClient = fresh.httpClient
	client.tasks = make(map[string]Task)
	client.mu.Unlock()
}

// SessionID returns the configured task session.
func (client *Client) SessionID() string {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.config.SessionID
}

// ListTasks returns the task plan of a session.
func (client *Client) ListTasks(ctx context.Context, sessionID string) ([]Task, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	var data json.RawMessage
	path := "/task-plan/" + url.PathEscape(sessionID) + "/list"
	if err := client.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks, err := decodeTaskList(data)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	client.mu.Lock()
	for _, task := range tasks {
		client.tasks[task.ID] = task
	}
	client.mu.Unlock()
	return tasks, nil
}

// UpdateTask applies a partial update to a task.
func (client *Client) UpdateTask(ctx context.Context, taskID string, update TaskUpdate) error {
	if err := client.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(taskID), update, nil); err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}

	client.mu.Lock()
	if task, ok := client.tasks[taskID]; ok {
		if update.Completed != nil {
			task.Completed = *update.Completed
		}
		if update.FocusTime != nil {
			task.FocusTime = *update.FocusTime
		}
		client.tasks[taskID] = task
	}
	client.mu.Unlock()
	return nil
}

// AddFocusTime credits focus minutes to a task, looking it up in the configured session if needed.
func (client *Client) AddFocusTime(ctx context.Context, taskID string, minutes int) error {
	if taskID == "" || minutes <= 0 {
		return nil
	}
	task, ok := client.cachedTask(taskID)
	if !ok {
		if _, err := client.ListTasks(ctx, client.SessionID()); err != nil {
			return fmt.Errorf("add focus time: %w", err)
		}
		task, ok = client.cachedTask(taskID)
		if !ok {
			return fmt.Errorf("add focus time: task %s not found", taskID)
		}
	}
	total := task.FocusTime + minutes
	return client.UpdateTask(ctx, taskID, TaskUpdate{FocusTime: &total})
}

func (client *Client) cachedTask(taskID string) (Task, bool) {
	client.mu.Lock()
	defer client.mu.Unlock()
	task, ok := client.tasks[taskID]
	return task, ok
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (client *Client) do(ctx context.Context, method, path string, body any, out *json.RawMessage) error {
	client.mu.Lock()
	config := client.config
	httpClient := client.httpClient
	client.mu.Unlock()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if config.Token != "" {
		request.Header.Set("X-User-Token", config.Token)
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	var result envelope
	decodeErr := json.NewDecoder(response.Body).Decode(&result)
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &APIError{Status: response.StatusCode, Code: result.Code, Message: result.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if result.Code != 0 {
		return &APIError{Status: response.StatusCode, Code: result.Code, Message: result.Message}
	}
	if out != nil {
		*out = result.Data
	}
	return nil
}
