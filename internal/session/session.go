// Package session owns the chat-session state machine: user/model selection,
// the transcript, per-session metrics, and the cumulative usage snapshot. One
// Controller belongs to one interactive session (a browser tab or a CLI run);
// transitions are serialized by the host and the Controller is not safe for
// concurrent use.
package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"anychat-backend/internal/models"
	"anychat-backend/internal/relay"
	"anychat-backend/internal/usage"
)

// State of the controller. Input is accepted only in StateReady.
type State string

const (
	// StateIdle means user or model is unselected and input is disabled.
	StateIdle State = "idle"
	// StateReady means both selections are set and a message can be sent.
	StateReady State = "ready"
	// StatePending means a completion is in flight and input is disabled.
	StatePending State = "pending"
)

// Metrics are the session-scoped token counters. They only grow, and reset
// to zero exactly when the session resets.
type Metrics struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FailureMessage is appended to the transcript as a system turn when a
// completion fails. The underlying error is logged, never shown verbatim.
const FailureMessage = "Sorry, something went wrong while generating a response. Please try again."

// ValidationError rejects a submission before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Controller drives one chat session over a completion relay and an optional
// usage fetcher.
type Controller struct {
	relay  relay.Relay
	usage  usage.Fetcher
	logger zerolog.Logger

	state        State
	user         string
	model        *models.ModelDescriptor
	transcript   []models.ChatTurn
	metrics      Metrics
	snapshot     *models.UsageSnapshot
	snapshotErr  bool
	toolsEnabled bool
}

// New creates an idle controller. The usage fetcher may be nil when the
// deployment has no usage display.
func New(r relay.Relay, f usage.Fetcher, logger zerolog.Logger) *Controller {
	return &Controller{
		relay:  r,
		usage:  f,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	return c.state
}

// User returns the selected user id, empty when unselected.
func (c *Controller) User() string {
	return c.user
}

// Model returns the selected model, nil when unselected.
func (c *Controller) Model() *models.ModelDescriptor {
	if c.model == nil {
		return nil
	}
	m := *c.model
	return &m
}

// Transcript returns a copy of the chat turns, placeholders included.
func (c *Controller) Transcript() []models.ChatTurn {
	return append([]models.ChatTurn(nil), c.transcript...)
}

// Metrics returns the session token counters.
func (c *Controller) Metrics() Metrics {
	return c.metrics
}

// Snapshot returns the last fetched usage snapshot. ok is false when the
// last fetch failed or no fetch has happened yet; callers render an error
// placeholder instead of stale numbers.
func (c *Controller) Snapshot() (*models.UsageSnapshot, bool) {
	if c.snapshot == nil {
		return nil, false
	}
	snap := *c.snapshot
	return &snap, true
}

// SnapshotFailed reports whether the last usage fetch errored.
func (c *Controller) SnapshotFailed() bool {
	return c.snapshotErr
}

// ToolsEnabled reports whether tool calling is requested for this session.
func (c *Controller) ToolsEnabled() bool {
	return c.toolsEnabled
}

// SetToolsEnabled toggles tool calling. It takes effect on the next send;
// the selected model must also support tools for the relay to offer them.
func (c *Controller) SetToolsEnabled(enabled bool) {
	c.toolsEnabled = enabled
}

// SelectUser changes the selected user. Selecting a different user resets
// the session (transcript cleared, metrics zeroed, snapshot re-fetched for
// the new user); reselecting the identical user does nothing. Selecting the
// empty string clears the selection and disables input without touching the
// transcript.
func (c *Controller) SelectUser(ctx context.Context, userID string) {
	if userID == c.user {
		return
	}
	c.user = userID
	if userID == "" {
		c.state = c.deriveState()
		return
	}
	c.reset(ctx)
}

// SelectModel changes the selected model, with the same reset semantics as
// SelectUser. A nil descriptor clears the selection.
func (c *Controller) SelectModel(ctx context.Context, desc *models.ModelDescriptor) {
	if sameModel(c.model, desc) {
		return
	}
	if desc == nil {
		c.model = nil
		c.state = c.deriveState()
		return
	}
	m := *desc
	c.model = &m
	c.reset(ctx)
}

// SubmitMessage appends the user turn and a pending assistant placeholder,
// moving to StatePending. It rejects blank input and any state other than
// StateReady without touching the transcript or calling the relay.
func (c *Controller) SubmitMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Message: "message is empty"}
	}
	if c.state == StatePending {
		return &ValidationError{Message: "a completion is already in flight"}
	}
	if c.state != StateReady {
		return &ValidationError{Message: "select a user and a model first"}
	}

	c.transcript = append(c.transcript,
		models.ChatTurn{Role: models.RoleUser, Content: text},
		models.ChatTurn{Role: models.RoleAssistant, Pending: true},
	)
	c.state = StatePending
	return nil
}

// CompletionSucceeded resolves the in-flight turn: the placeholder is
// replaced by the assistant turn, its usage is added to the session metrics,
// and the usage snapshot is refreshed.
func (c *Controller) CompletionSucceeded(ctx context.Context, responseText string, turnUsage models.TokenUsage) {
	c.removePlaceholder()
	u := turnUsage
	c.transcript = append(c.transcript, models.ChatTurn{
		Role:    models.RoleAssistant,
		Content: responseText,
		Usage:   &u,
	})
	c.metrics.PromptTokens += turnUsage.PromptTokens
	c.metrics.CompletionTokens += turnUsage.CompletionTokens
	c.metrics.TotalTokens += turnUsage.TotalTokens
	c.refreshSnapshot(ctx)
	c.state = StateReady
}

// CompletionFailed resolves the in-flight turn with a fixed system message.
// The turn is not retried.
func (c *Controller) CompletionFailed(err error) {
	c.removePlaceholder()
	c.transcript = append(c.transcript, models.ChatTurn{
		Role:    models.RoleSystem,
		Content: FailureMessage,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("completion failed")
	}
	c.state = StateReady
}

// Send runs one full turn: submit, relay completion, and the matching
// resolution. The relay error, if any, is returned for the host to log; the
// transcript already carries the generic failure message in that case.
func (c *Controller) Send(ctx context.Context, text string) error {
	if err := c.SubmitMessage(text); err != nil {
		return err
	}

	result, err := c.relay.Complete(ctx, relay.Request{
		Provider:     c.model.Provider,
		Model:        c.model.Model,
		Message:      text,
		UserID:       c.user,
		ToolsEnabled: c.toolsEnabled && c.model.ToolsSupport,
	})
	if err != nil {
		c.CompletionFailed(err)
		return err
	}

	c.CompletionSucceeded(ctx, result.Text, models.TokenUsage{
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
	})
	return nil
}

// ClearTranscript empties the conversation history without resetting the
// session metrics or selections.
func (c *Controller) ClearTranscript() {
	if c.state == StatePending {
		return
	}
	c.transcript = nil
}

func (c *Controller) reset(ctx context.Context) {
	c.transcript = nil
	c.metrics = Metrics{}
	c.refreshSnapshot(ctx)
	c.state = c.deriveState()
}

func (c *Controller) refreshSnapshot(ctx context.Context) {
	if c.usage == nil {
		return
	}
	snap, err := c.usage.Fetch(ctx, c.user)
	if err != nil {
		c.logger.Warn().Err(err).Str("user_id", c.user).Msg("usage fetch failed")
		c.snapshot = nil
		c.snapshotErr = true
		return
	}
	c.snapshot = snap
	c.snapshotErr = false
}

func (c *Controller) deriveState() State {
	if c.user != "" && c.model != nil {
		return StateReady
	}
	return StateIdle
}

func (c *Controller) removePlaceholder() {
	for i := len(c.transcript) - 1; i >= 0; i-- {
		if c.transcript[i].Pending {
			c.transcript = append(c.transcript[:i], c.transcript[i+1:]...)
			return
		}
	}
}

func sameModel(a, b *models.ModelDescriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Provider == b.Provider && a.Model == b.Model
}
