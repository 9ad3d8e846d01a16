package foundry

import "fmt"

// Role constants for thread messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Run status values. A run is terminal once it reaches one of the last four.
const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
	RunStatusExpired    = "expired"
)

// Agent is a server-side configured assistant bundling a model deployment
// and instructions.
type Agent struct {
	ID           string `json:"id"`
	Object       string `json:"object,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
	Name         string `json:"name,omitempty"`
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
}

// CreateAgentRequest is the payload for provisioning a new agent.
type CreateAgentRequest struct {
	Model        string `json:"model"`
	Name         string `json:"name,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Thread is a server-side conversation context. The model sees the full
// message history of its thread.
type Thread struct {
	ID        string `json:"id"`
	Object    string `json:"object,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// ThreadMessage is one message on a thread. Content arrives as a list of
// typed blocks; this client only consumes text blocks.
type ThreadMessage struct {
	ID        string         `json:"id"`
	Object    string         `json:"object,omitempty"`
	CreatedAt int64          `json:"created_at,omitempty"`
	ThreadID  string         `json:"thread_id,omitempty"`
	Role      string         `json:"role"`
	Content   []ContentBlock `json:"content"`
}

// ContentBlock is a typed chunk of message content.
type ContentBlock struct {
	Type string     `json:"type"`
	Text *TextBlock `json:"text,omitempty"`
}

// TextBlock holds the text payload of a text content block.
type TextBlock struct {
	Value string `json:"value"`
}

// LastText returns the value of the last text block in the message,
// or "" if the message carries no text.
func (m ThreadMessage) LastText() (string, bool) {
	for i := len(m.Content) - 1; i >= 0; i-- {
		if m.Content[i].Type == "text" && m.Content[i].Text != nil {
			return m.Content[i].Text.Value, true
		}
	}
	return "", false
}

// createMessageRequest is the payload for appending a message to a thread.
type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// createRunRequest is the payload for starting a run.
type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

// Run is one model inference pass over a thread.
type Run struct {
	ID          string    `json:"id"`
	Object      string    `json:"object,omitempty"`
	ThreadID    string    `json:"thread_id,omitempty"`
	AssistantID string    `json:"assistant_id,omitempty"`
	Status      string    `json:"status"`
	LastError   *RunError `json:"last_error,omitempty"`
}

// Terminal reports whether the run has reached a final status.
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// RunError is the failure detail attached to a failed run.
type RunError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *RunError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("run failed (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("run failed: %s", e.Message)
}

// listResponse is the generic envelope for list endpoints.
type listResponse[T any] struct {
	Object  string `json:"object,omitempty"`
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more,omitempty"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error (%d): %s", e.StatusCode, e.Message)
}

// NotFound reports whether the error is a 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == 404
}

// apiErrorBody is the wire shape of service error responses.
type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
