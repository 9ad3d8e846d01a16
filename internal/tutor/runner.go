// Package tutor drives one TOEIC Part 5 practice session against a remote
// Foundry agent: agent resolution, thread lifecycle, turn exchange and
// cleanup.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/part5/internal/foundry"
	"github.com/soyeahso/part5/internal/logging"
)

// NoReply is printed when a completed run produced no assistant text.
const NoReply = "(no messages)"

// ProjectClient is the slice of the Foundry API the tutor needs.
type ProjectClient interface {
	GetAgent(ctx context.Context, id string) (*foundry.Agent, error)
	CreateAgent(ctx context.Context, req foundry.CreateAgentRequest) (*foundry.Agent, error)
	DeleteAgent(ctx context.Context, id string) error
	CreateThread(ctx context.Context) (*foundry.Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (*foundry.ThreadMessage, error)
	RunAndWait(ctx context.Context, threadID, agentID string) (*foundry.Run, error)
	ListMessages(ctx context.Context, threadID string) ([]foundry.ThreadMessage, error)
}

// Config configures a practice session.
type Config struct {
	AgentID      string // reuse this remote agent instead of creating one
	Model        string // model deployment for newly created agents
	AgentName    string
	Instructions string // defaults to BaseInstructions when empty
	KeepAgent    bool   // keep a session-created agent on Close
}

// Runner owns one practice session: one remote agent, one thread.
type Runner struct {
	cfg    Config
	client ProjectClient
	store  TranscriptStore // nil disables local transcripts
	log    *logging.Logger

	agent        *foundry.Agent
	createdAgent bool
	thread       *foundry.Thread
	sessionID    string
	turns        int
}

// NewRunner creates a session runner. store may be nil.
func NewRunner(cfg Config, client ProjectClient, store TranscriptStore, log *logging.Logger) *Runner {
	if cfg.Instructions == "" {
		cfg.Instructions = BaseInstructions
	}
	return &Runner{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    log.Sub("tutor"),
	}
}

// Start resolves the remote agent and opens a fresh thread. A configured
// AGENT_ID that cannot be fetched is a fatal error: the user asked for a
// specific agent and silently creating a different one would hide the
// misconfiguration.
func (r *Runner) Start(ctx context.Context) error {
	if r.cfg.AgentID != "" {
		agent, err := r.client.GetAgent(ctx, r.cfg.AgentID)
		if err != nil {
			return fmt.Errorf("existing agent %s: %w", r.cfg.AgentID, err)
		}
		r.agent = agent
		r.log.Info().Str("agentId", agent.ID).Msg("reusing existing agent")
	} else {
		agent, err := r.client.CreateAgent(ctx, foundry.CreateAgentRequest{
			Model:        r.cfg.Model,
			Name:         r.cfg.AgentName,
			Instructions: r.cfg.Instructions,
		})
		if err != nil {
			return fmt.Errorf("create agent: %w", err)
		}
		r.agent = agent
		r.createdAgent = true
	}

	thread, err := r.client.CreateThread(ctx)
	if err != nil {
		// The session never got going; an agent created moments ago
		// would otherwise be orphaned server-side.
		r.discardCreatedAgent()
		return fmt.Errorf("create thread: %w", err)
	}
	r.thread = thread
	r.sessionID = uuid.New().String()

	if r.store != nil {
		err := r.store.CreateSession(SessionRecord{
			ID:        r.sessionID,
			AgentID:   r.agent.ID,
			ThreadID:  thread.ID,
			StartedAt: time.Now(),
		})
		if err != nil {
			r.log.Warn().Err(err).Msg("transcript session not recorded")
		}
	}

	r.log.Info().
		Str("sessionId", r.sessionID).
		Str("agentId", r.agent.ID).
		Str("threadId", thread.ID).
		Bool("createdAgent", r.createdAgent).
		Msg("session started")
	return nil
}

// discardCreatedAgent best-effort deletes an agent this session created
// before the session became usable. Runs on its own deadline: the original
// context may already be canceled.
func (r *Runner) discardCreatedAgent() {
	if !r.createdAgent || r.agent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.client.DeleteAgent(ctx, r.agent.ID); err != nil {
		r.log.Warn().Err(err).Str("agentId", r.agent.ID).Msg("orphaned agent not cleaned up")
	}
	r.agent = nil
	r.createdAgent = false
}

// AgentID returns the resolved remote agent id. Empty before Start.
func (r *Runner) AgentID() string {
	if r.agent == nil {
		return ""
	}
	return r.agent.ID
}

// CreatedAgent reports whether this session provisioned its own agent.
func (r *Runner) CreatedAgent() bool { return r.createdAgent }

// SessionID returns the local transcript session id. Empty before Start.
func (r *Runner) SessionID() string { return r.sessionID }

// Turn forwards one user utterance and returns the agent's reply. Errors
// are per-turn: the caller reports them and keeps the session alive.
func (r *Runner) Turn(ctx context.Context, text string) (string, error) {
	if r.thread == nil {
		return "", errors.New("session not started")
	}

	start := time.Now()

	if _, err := r.client.CreateMessage(ctx, r.thread.ID, foundry.RoleUser, text); err != nil {
		return "", err
	}

	if _, err := r.client.RunAndWait(ctx, r.thread.ID, r.agent.ID); err != nil {
		return "", err
	}

	reply, err := r.latestReply(ctx)
	if err != nil {
		return "", err
	}

	r.turns++
	r.record(foundry.RoleUser, text)
	r.record(foundry.RoleAssistant, reply)

	r.log.Info().
		Str("sessionId", r.sessionID).
		Int("turn", r.turns).
		Dur("duration", time.Since(start)).
		Msg("turn completed")
	return reply, nil
}

// latestReply rebuilds the thread state and picks the newest assistant
// text, falling back to the newest text of any role.
func (r *Runner) latestReply(ctx context.Context) (string, error) {
	msgs, err := r.client.ListMessages(ctx, r.thread.ID)
	if err != nil {
		return "", err
	}

	var lastText string
	var found bool
	for i := len(msgs) - 1; i >= 0; i-- {
		text, ok := msgs[i].LastText()
		if !ok {
			continue
		}
		if msgs[i].Role == foundry.RoleAssistant {
			return text, nil
		}
		if !found {
			lastText = text
			found = true
		}
	}
	if found {
		return lastText, nil
	}
	return NoReply, nil
}

// record appends a turn to the local transcript when a store is configured.
func (r *Runner) record(role, content string) {
	if r.store == nil {
		return
	}
	err := r.store.AppendTurn(TurnRecord{
		SessionID: r.sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		r.log.Warn().Err(err).Str("role", role).Msg("transcript turn not recorded")
	}
}

// Close cleans up the session. Agents created by this session are deleted
// so sample runs don't accumulate server-side clutter; agents the user
// brought via AGENT_ID are always preserved. Deletion is best-effort: a
// 404 means someone else already removed it.
func (r *Runner) Close(ctx context.Context) error {
	if r.agent == nil {
		return nil
	}
	if !r.createdAgent || r.cfg.KeepAgent {
		r.log.Debug().Str("agentId", r.agent.ID).Msg("agent preserved")
		return nil
	}

	err := r.client.DeleteAgent(ctx, r.agent.ID)
	if err != nil {
		var apiErr *foundry.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			r.log.Debug().Str("agentId", r.agent.ID).Msg("agent already gone")
			return nil
		}
		r.log.Warn().Err(err).Str("agentId", r.agent.ID).Msg("agent cleanup failed")
		return err
	}
	return nil
}
