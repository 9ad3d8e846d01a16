package foundry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/part5/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "v1", NewStaticTokenSource("test-token"), silentLog(),
		WithPollInterval(time.Millisecond))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGetAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/assistants/asst_1", r.URL.Path)
		assert.Equal(t, "v1", r.URL.Query().Get("api-version"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, Agent{ID: "asst_1", Model: "gpt-5-mini", Name: "toeic-learn-agent"})
	})

	agent, err := client.GetAgent(context.Background(), "asst_1")
	require.NoError(t, err)
	assert.Equal(t, "asst_1", agent.ID)
	assert.Equal(t, "gpt-5-mini", agent.Model)
}

func TestGetAgentNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"not_found","message":"No assistant found"}}`)
	})

	_, err := client.GetAgent(context.Background(), "asst_gone")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Contains(t, apiErr.Message, "No assistant found")
}

func TestCreateAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assistants", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateAgentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-5-mini", req.Model)
		assert.Equal(t, "toeic-learn-agent", req.Name)
		assert.NotEmpty(t, req.Instructions)

		writeJSON(t, w, Agent{ID: "asst_new", Model: req.Model, Name: req.Name})
	})

	agent, err := client.CreateAgent(context.Background(), CreateAgentRequest{
		Model:        "gpt-5-mini",
		Name:         "toeic-learn-agent",
		Instructions: "be encouraging",
	})
	require.NoError(t, err)
	assert.Equal(t, "asst_new", agent.ID)
}

func TestDeleteAgent(t *testing.T) {
	var called atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/assistants/asst_1", r.URL.Path)
		writeJSON(t, w, map[string]any{"id": "asst_1", "deleted": true})
	})

	require.NoError(t, client.DeleteAgent(context.Background(), "asst_1"))
	assert.True(t, called.Load())
}

func TestCreateThread(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/threads", r.URL.Path)
		writeJSON(t, w, Thread{ID: "thread_1"})
	})

	thread, err := client.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread_1", thread.ID)
}

func TestCreateMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_1/messages", r.URL.Path)

		var req createMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, RoleUser, req.Role)
		assert.Equal(t, "穴埋め問題を1問ください", req.Content)

		writeJSON(t, w, ThreadMessage{ID: "msg_1", Role: req.Role})
	})

	msg, err := client.CreateMessage(context.Background(), "thread_1", RoleUser, "穴埋め問題を1問ください")
	require.NoError(t, err)
	assert.Equal(t, "msg_1", msg.ID)
}

func TestListMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_1/messages", r.URL.Path)
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		assert.Equal(t, "v1", r.URL.Query().Get("api-version"))

		writeJSON(t, w, listResponse[ThreadMessage]{
			Data: []ThreadMessage{
				{ID: "msg_1", Role: RoleUser, Content: []ContentBlock{
					{Type: "text", Text: &TextBlock{Value: "question please"}},
				}},
				{ID: "msg_2", Role: RoleAssistant, Content: []ContentBlock{
					{Type: "text", Text: &TextBlock{Value: "Here is question 1."}},
				}},
			},
		})
	})

	msgs, err := client.ListMessages(context.Background(), "thread_1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	text, ok := msgs[1].LastText()
	require.True(t, ok)
	assert.Equal(t, "Here is question 1.", text)
}

func TestLastTextSkipsNonText(t *testing.T) {
	msg := ThreadMessage{Content: []ContentBlock{
		{Type: "text", Text: &TextBlock{Value: "first"}},
		{Type: "image_file"},
	}}
	text, ok := msg.LastText()
	require.True(t, ok)
	assert.Equal(t, "first", text)

	empty := ThreadMessage{Content: []ContentBlock{{Type: "image_file"}}}
	_, ok = empty.LastText()
	assert.False(t, ok)
}

func TestRunAndWaitPollsToCompletion(t *testing.T) {
	var polls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs":
			var req createRunRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "asst_1", req.AssistantID)
			writeJSON(t, w, Run{ID: "run_1", Status: RunStatusQueued})
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
			status := RunStatusInProgress
			if polls.Add(1) >= 3 {
				status = RunStatusCompleted
			}
			writeJSON(t, w, Run{ID: "run_1", Status: status})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	run, err := client.RunAndWait(context.Background(), "thread_1", "asst_1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestRunAndWaitFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, Run{
			ID:     "run_1",
			Status: RunStatusFailed,
			LastError: &RunError{
				Code:    "rate_limit_exceeded",
				Message: "quota exhausted",
			},
		})
	})

	_, err := client.RunAndWait(context.Background(), "thread_1", "asst_1")
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "rate_limit_exceeded", runErr.Code)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestRunAndWaitContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Run never reaches a terminal status.
		writeJSON(t, w, Run{ID: "run_1", Status: RunStatusInProgress})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.RunAndWait(ctx, "thread_1", "asst_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeAPIErrorNonJSON(t *testing.T) {
	err := decodeAPIError(http.StatusBadGateway, []byte("upstream blew up"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream blew up", apiErr.Message)

	err = decodeAPIError(http.StatusServiceUnavailable, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), apiErr.Message)
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{RunStatusQueued, false},
		{RunStatusInProgress, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusCancelled, true},
		{RunStatusExpired, true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			run := &Run{Status: tt.status}
			assert.Equal(t, tt.want, run.Terminal())
		})
	}
}
