package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	tasks   map[string]map[string]any
	updates []map[string]any
	lists   int
}

func newFakeBackend(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{tasks: map[string]map[string]any{
		"t1": {"id": "t1", "title": "Write report", "priority": "high", "focusTime": 10, "dod": []any{"draft", map[string]any{"text": "review", "completed": true}}},
		"t2": {"id": "t2", "title": "Email", "completed": true},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/task-plan/s1/list", func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("X-User-Token") != "token" {
			writer.WriteHeader(http.StatusUnauthorized)
			return
		}
		backend.mu.Lock()
		backend.lists++
		list := []any{backend.tasks["t1"], backend.tasks["t2"]}
		backend.mu.Unlock()
		writeEnvelope(writer, http.StatusOK, 0, "success", map[string]any{"tasks": list})
	})
	mux.HandleFunc("/api/v1/tasks/t1", func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPut {
			writeEnvelope(writer, http.StatusMethodNotAllowed, 405, "method not allowed", nil)
			return
		}
		var update map[string]any
		if err := json.NewDecoder(request.Body).Decode(&update); err != nil {
			writeEnvelope(writer, http.StatusBadRequest, 400, "bad body", nil)
			return
		}
		backend.mu.Lock()
		backend.updates = append(backend.updates, update)
		backend.mu.Unlock()
		writeEnvelope(writer, http.StatusOK, 0, "success", nil)
	})
	mux.HandleFunc("/api/v1/tasks/broken", func(writer http.ResponseWriter, _ *http.Request) {
		writeEnvelope(writer, http.StatusOK, 1001, "task locked", nil)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, backend
}

func writeEnvelope(writer http.ResponseWriter, status, code int, message string, data any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(map[string]any{"code": code, "message": message, "data": data})
}

func TestListTasks(t *testing.T) {
	server, _ := newFakeBackend(t)
	client := New(Config{BaseURL: server.URL + "/api/v1/", Token: "token"})

	tasks, err := client.ListTasks(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Write report", tasks[0].Title)
	assert.Equal(t, 10, tasks[0].FocusTime)
	assert.Equal(t, []DODItem{{Text: "draft"}, {Text: "review", Completed: true}}, tasks[0].DOD)
	assert.True(t, tasks[1].Completed)
}

func TestListTasksUnauthorized(t *testing.T) {
	server, _ := newFakeBackend(t)
	client := New(Config{BaseURL: server.URL + "/api/v1", Token: "wrong"})

	_, err := client.ListTasks(context.Background(), "s1")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestListTasksRequiresSession(t *testing.T) {
	client := New(Config{})
	_, err := client.ListTasks(context.Background(), "")
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestUpdateTaskReportsEnvelopeError(t *testing.T) {
	server, _ := newFakeBackend(t)
	client := New(Config{BaseURL: server.URL + "/api/v1", Token: "token"})

	done := true
	err := client.UpdateTask(context.Background(), "broken", TaskUpdate{Completed: &done})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1001, apiErr.Code)
	assert.Contains(t, err.Error(), "task locked")
}

func TestUpdateTaskReportsHTTPStatus(t *testing.T) {
	server, _ := newFakeBackend(t)
	client := New(Config{BaseURL: server.URL + "/api/v1", Token: "token"})

	err := client.UpdateTask(context.Background(), "missing", TaskUpdate{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestAddFocusTimeAccumulates(t *testing.T) {
	server, backend := newFakeBackend(t)
	client := New(Config{BaseURL: server.URL + "/api/v1", Token: "token", SessionID: "s1"})

	require.NoError(t, client.AddFocusTime(context.Background(), "t1", 25))
	require.NoError(t, client.AddFocusTime(context.Background(), "t1", 5))
	require.NoError(t, client.AddFocusTime(context.Background(), "t1", 0))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 1, backend.lists)
	require.Len(t, backend.updates, 2)
	assert.EqualValues(t, 35, backend.updates[0]["focusTime"])
	assert.EqualValues(t, 40, backend.updates[1]["focusTime"])
	assert.NotContains(t, backend.updates[0], "completed")
}

func TestAddFocusTimeUnknownTask(t *testing.T) {
	server, _ := newFakeBackend(t)
	client := New(Config{BaseURL: server.URL + "/api/v1", Token: "token", SessionID: "s1"})

	err := client.AddFocusTime(context.Background(), "nope", 25)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
