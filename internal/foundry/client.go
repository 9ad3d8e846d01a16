// Package foundry is a minimal REST client for the Azure AI Foundry Agents
// service: agents, threads, messages and runs, scoped to what a console
// practice session needs. Authentication is delegated to an injected token
// source; no credential material is handled here beyond the bearer token.
package foundry

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

	"golang.org/x/oauth2"

	"github.com/soyeahso/part5/internal/logging"
)

// DefaultAPIVersion is the api-version query value used when none is configured.
const DefaultAPIVersion = "v1"

const defaultPollInterval = time.Second

// Client talks to one Foundry project endpoint.
type Client struct {
	baseURL      string
	apiVersion   string
	tokens       oauth2.TokenSource
	http         *http.Client
	pollInterval time.Duration
	log          *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPollInterval overrides the run polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient creates a client for the given project endpoint. The token
// source supplies bearer tokens from an externally established identity
// session (e.g. az login).
func NewClient(endpoint, apiVersion string, tokens oauth2.TokenSource, log *logging.Logger, opts ...Option) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	c := &Client{
		baseURL:      strings.TrimRight(endpoint, "/"),
		apiVersion:   apiVersion,
		tokens:       tokens,
		http:         &http.Client{Timeout: 120 * time.Second},
		pollInterval: defaultPollInterval,
		log:          log.Sub("foundry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAgent fetches an existing agent by id.
func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodGet, "/assistants/"+url.PathEscape(id), nil, &agent); err != nil {
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}
	return &agent, nil
}

// CreateAgent provisions a new agent scoped to a model deployment.
func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", req, &agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	c.log.Info().Str("agentId", agent.ID).Str("model", agent.Model).Msg("agent created")
	return &agent, nil
}

// DeleteAgent removes an agent. Callers decide whether a 404 matters.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/assistants/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete agent %s: %w", id, err)
	}
	c.log.Info().Str("agentId", id).Msg("agent deleted")
	return nil
}

// CreateThread opens a new conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	c.log.Debug().Str("threadId", thread.ID).Msg("thread created")
	return &thread, nil
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*ThreadMessage, error) {
	var msg ThreadMessage
	req := createMessageRequest{Role: role, Content: content}
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", req, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns all messages on a thread in ascending order.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	var list listResponse[ThreadMessage]
	path := "/threads/" + url.PathEscape(threadID) + "/messages?order=asc"
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return list.Data, nil
}

// CreateRun starts a model inference pass over a thread.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (*Run, error) {
	var run Run
	req := createRunRequest{AssistantID: agentID}
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", req, &run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &run, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// RunAndWait starts a run and polls until it reaches a terminal status.
// A failed run returns the service-reported *RunError; cancelled and
// expired runs return plain errors.
func (c *Client) RunAndWait(ctx context.Context, threadID, agentID string) (*Run, error) {
	run, err := c.CreateRun(ctx, threadID, agentID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	for !run.Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		run, err = c.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return nil, err
		}
	}

	c.log.Debug().
		Str("runId", run.ID).
		Str("status", run.Status).
		Dur("duration", time.Since(start)).
		Msg("run finished")

	switch run.Status {
	case RunStatusCompleted:
		return run, nil
	case RunStatusFailed:
		if run.LastError != nil {
			return run, run.LastError
		}
		return run, &RunError{Message: "no error detail reported"}
	default:
		return run, fmt.Errorf("run %s ended as %s", run.ID, run.Status)
	}
}

// do performs one JSON request against the project endpoint.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	endpoint := c.baseURL + path
	if strings.Contains(path, "?") {
		endpoint += "&api-version=" + url.QueryEscape(c.apiVersion)
	} else {
		endpoint += "?api-version=" + url.QueryEscape(c.apiVersion)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	tok.SetAuthHeader(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// decodeAPIError turns a non-2xx body into an *APIError, tolerating
// non-JSON error bodies.
func decodeAPIError(status int, body []byte) error {
	var wire apiErrorBody
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error.Message != "" {
		return &APIError{StatusCode: status, Code: wire.Error.Code, Message: wire.Error.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
