package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"anychat-backend/internal/models"
	"anychat-backend/internal/relay"
	"anychat-backend/internal/usage"
)

type fakeRelay struct {
	result *relay.Result
	err    error
	calls  int
}

func (r *fakeRelay) Complete(ctx context.Context, req relay.Request) (*relay.Result, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

type fakeFetcher struct {
	snapshot *models.UsageSnapshot
	err      error
	calls    int
	lastUser string
}

func (f *fakeFetcher) Fetch(ctx context.Context, userID string) (*models.UsageSnapshot, error) {
	f.calls++
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snapshot
	return &snap, nil
}

func geminiFlash() *models.ModelDescriptor {
	return &models.ModelDescriptor{Provider: "gemini", Model: "gemini-2.5-flash-lite", Display: "Gemini 2.5 Flash Lite", ToolsSupport: true}
}

func claudeHaiku() *models.ModelDescriptor {
	return &models.ModelDescriptor{Provider: "anthropic", Model: "claude-3-5-haiku-20241022", Display: "Claude 3.5 Haiku"}
}

func readyController(r relay.Relay, f *fakeFetcher) *Controller {
	var fetcher usage.Fetcher
	if f != nil {
		fetcher = f
	}
	c := New(r, fetcher, zerolog.Nop())
	c.SelectUser(context.Background(), "u1")
	c.SelectModel(context.Background(), geminiFlash())
	return c
}

func TestStateTransitions(t *testing.T) {
	ctx := context.Background()
	c := New(&fakeRelay{}, nil, zerolog.Nop())

	if c.State() != StateIdle {
		t.Fatalf("New controller should be idle, got %s", c.State())
	}

	c.SelectUser(ctx, "u1")
	if c.State() != StateIdle {
		t.Error("User alone should not enable input")
	}

	c.SelectModel(ctx, geminiFlash())
	if c.State() != StateReady {
		t.Errorf("Expected ready after both selections, got %s", c.State())
	}

	c.SelectModel(ctx, nil)
	if c.State() != StateIdle {
		t.Error("Clearing the model should disable input")
	}
}

func TestClearingSelectionKeepsTranscript(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRelay{result: &relay.Result{Text: "hi", PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}}
	c := readyController(fr, nil)

	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	c.SelectModel(ctx, nil)
	if c.State() != StateIdle {
		t.Error("Expected idle after clearing model")
	}
	if len(c.Transcript()) != 2 {
		t.Errorf("Clearing a selection must not clear the transcript, got %d turns", len(c.Transcript()))
	}
	if c.Metrics().TotalTokens != 13 {
		t.Error("Clearing a selection must not zero the metrics")
	}
}

func TestModelChangeResetsMetrics(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{snapshot: &models.UsageSnapshot{TotalTokens: 100}}
	fr := &fakeRelay{result: &relay.Result{Text: "hi", PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}}
	c := readyController(fr, fetcher)

	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if c.Metrics() != (Metrics{PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}) {
		t.Fatalf("Unexpected metrics after send: %+v", c.Metrics())
	}
	fetchesBefore := fetcher.calls

	// Switch to a different model: transcript empties, metrics zero, a fresh
	// snapshot fetch is issued.
	c.SelectModel(ctx, claudeHaiku())
	if len(c.Transcript()) != 0 {
		t.Error("Model change should clear the transcript")
	}
	if c.Metrics() != (Metrics{}) {
		t.Errorf("Model change should zero the metrics, got %+v", c.Metrics())
	}
	if fetcher.calls != fetchesBefore+1 {
		t.Errorf("Model change should refetch the usage snapshot, fetches %d -> %d", fetchesBefore, fetcher.calls)
	}
}

func TestReselectingIdenticalModelDoesNotReset(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{snapshot: &models.UsageSnapshot{}}
	fr := &fakeRelay{result: &relay.Result{Text: "hi", PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}}
	c := readyController(fr, fetcher)

	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	fetchesBefore := fetcher.calls

	c.SelectModel(ctx, geminiFlash())
	if c.Metrics().TotalTokens != 13 {
		t.Error("Reselecting the identical model must not reset metrics")
	}
	if len(c.Transcript()) != 2 {
		t.Error("Reselecting the identical model must not clear the transcript")
	}
	if fetcher.calls != fetchesBefore {
		t.Error("Reselecting the identical model must not refetch usage")
	}

	c.SelectUser(ctx, "u1")
	if c.Metrics().TotalTokens != 13 {
		t.Error("Reselecting the identical user must not reset metrics")
	}
}

func TestSubmitMessageGuards(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRelay{result: &relay.Result{Text: "hi"}}

	t.Run("blank input", func(t *testing.T) {
		c := readyController(fr, nil)
		for _, text := range []string{"", "   ", "\n\t "} {
			err := c.Send(ctx, text)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Send(%q) should fail validation, got %v", text, err)
			}
		}
		if len(c.Transcript()) != 0 {
			t.Error("Blank submissions must not append transcript turns")
		}
		if fr.calls != 0 {
			t.Error("Blank submissions must not invoke the relay")
		}
	})

	t.Run("idle state", func(t *testing.T) {
		c := New(&fakeRelay{}, nil, zerolog.Nop())
		if err := c.SubmitMessage("hello"); err == nil {
			t.Error("SubmitMessage should fail while idle")
		}
		if len(c.Transcript()) != 0 {
			t.Error("Rejected submissions must not append transcript turns")
		}
	})
}

func TestPlaceholderLifecycle(t *testing.T) {
	c := readyController(&fakeRelay{}, nil)

	if err := c.SubmitMessage("hello"); err != nil {
		t.Fatalf("SubmitMessage failed: %v", err)
	}
	if c.State() != StatePending {
		t.Fatalf("Expected pending, got %s", c.State())
	}

	pending := 0
	for _, turn := range c.Transcript() {
		if turn.Pending {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("Expected exactly one placeholder while pending, got %d", pending)
	}

	c.CompletionSucceeded(context.Background(), "hi", models.TokenUsage{PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13})
	for _, turn := range c.Transcript() {
		if turn.Pending {
			t.Fatal("Placeholder must be removed after the completion resolves")
		}
	}
	if c.State() != StateReady {
		t.Errorf("Expected ready after resolution, got %s", c.State())
	}
}

func TestSecondSubmitWhilePendingIsRejected(t *testing.T) {
	c := readyController(&fakeRelay{}, nil)

	if err := c.SubmitMessage("first"); err != nil {
		t.Fatalf("SubmitMessage failed: %v", err)
	}
	turns := len(c.Transcript())

	if err := c.SubmitMessage("second"); err == nil {
		t.Error("Second submit while pending should be rejected")
	}
	if len(c.Transcript()) != turns {
		t.Error("Rejected submit must not change the transcript")
	}
}

func TestMetricsAccumulate(t *testing.T) {
	ctx := context.Background()
	c := readyController(&fakeRelay{}, nil)

	if err := c.SubmitMessage("one"); err != nil {
		t.Fatal(err)
	}
	c.CompletionSucceeded(ctx, "a", models.TokenUsage{PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13})

	if err := c.SubmitMessage("two"); err != nil {
		t.Fatal(err)
	}
	c.CompletionSucceeded(ctx, "b", models.TokenUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30})

	want := Metrics{PromptTokens: 28, CompletionTokens: 15, TotalTokens: 43}
	if c.Metrics() != want {
		t.Errorf("Expected accumulated metrics %+v, got %+v", want, c.Metrics())
	}
}

func TestCompletionFailedAppendsSystemTurn(t *testing.T) {
	fr := &fakeRelay{err: errors.New("provider exploded")}
	c := readyController(fr, nil)

	err := c.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("Send should surface the relay error")
	}

	turns := c.Transcript()
	if len(turns) != 2 {
		t.Fatalf("Expected user + system turns, got %d", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != models.RoleSystem {
		t.Errorf("Expected a system turn, got role %s", last.Role)
	}
	if last.Content != FailureMessage {
		t.Errorf("Failure turn must carry the fixed message, got %q", last.Content)
	}
	if last.Pending {
		t.Error("Placeholder must be removed on failure")
	}
	if c.State() != StateReady {
		t.Errorf("Expected ready after failure, got %s", c.State())
	}
	if c.Metrics() != (Metrics{}) {
		t.Errorf("Failed turns must not change metrics, got %+v", c.Metrics())
	}
}

func TestEndToEndHello(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{snapshot: &models.UsageSnapshot{TotalTokens: 13, RequestCount: 1}}
	fr := &fakeRelay{result: &relay.Result{Text: "hi", PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}}

	c := New(fr, fetcher, zerolog.Nop())
	c.SelectUser(ctx, "u1")
	c.SelectModel(ctx, geminiFlash())

	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	turns := c.Transcript()
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[0].Content != "hello" {
		t.Errorf("Unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != models.RoleAssistant || turns[1].Content != "hi" {
		t.Errorf("Unexpected assistant turn: %+v", turns[1])
	}
	if turns[1].Usage == nil || turns[1].Usage.TotalTokens != 13 {
		t.Errorf("Assistant turn should carry usage, got %+v", turns[1].Usage)
	}
	if c.Metrics() != (Metrics{PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}) {
		t.Errorf("Unexpected metrics: %+v", c.Metrics())
	}
	if snap, ok := c.Snapshot(); !ok || snap.TotalTokens != 13 {
		t.Errorf("Expected refreshed snapshot, got %+v ok=%v", snap, ok)
	}
	if fetcher.lastUser != "u1" {
		t.Errorf("Snapshot fetch should be scoped to the selected user, got %q", fetcher.lastUser)
	}
}

func TestUsageFetchFailureDropsSnapshot(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{snapshot: &models.UsageSnapshot{TotalTokens: 99}}
	fr := &fakeRelay{result: &relay.Result{Text: "hi", PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}}
	c := readyController(fr, fetcher)

	if _, ok := c.Snapshot(); !ok {
		t.Fatal("Expected a snapshot after selection")
	}

	fetcher.err = errors.New("gateway unreachable")
	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if _, ok := c.Snapshot(); ok {
		t.Error("Snapshot must be dropped when the refresh fails, never kept stale")
	}
	if !c.SnapshotFailed() {
		t.Error("SnapshotFailed should report the fetch error")
	}
}

func TestToolsEnabledRequiresModelSupport(t *testing.T) {
	ctx := context.Background()

	var gotTools []bool
	fr := &toolTrackingRelay{}
	c := New(fr, nil, zerolog.Nop())
	c.SelectUser(ctx, "u1")
	c.SetToolsEnabled(true)

	c.SelectModel(ctx, geminiFlash())
	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	c.SelectModel(ctx, claudeHaiku())
	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatal(err)
	}

	gotTools = fr.toolsEnabled
	if len(gotTools) != 2 || !gotTools[0] || gotTools[1] {
		t.Errorf("Tools should follow model support, got %v", gotTools)
	}
}

type toolTrackingRelay struct {
	toolsEnabled []bool
}

func (r *toolTrackingRelay) Complete(ctx context.Context, req relay.Request) (*relay.Result, error) {
	r.toolsEnabled = append(r.toolsEnabled, req.ToolsEnabled)
	return &relay.Result{Text: "ok"}, nil
}

func TestClearTranscriptKeepsMetrics(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRelay{result: &relay.Result{Text: "hi", PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13}}
	c := readyController(fr, nil)

	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	c.ClearTranscript()

	if len(c.Transcript()) != 0 {
		t.Error("ClearTranscript should empty the history")
	}
	if c.Metrics().TotalTokens != 13 {
		t.Error("ClearTranscript should keep session metrics")
	}
	if c.State() != StateReady {
		t.Errorf("Expected ready after clear, got %s", c.State())
	}
}
