package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"anychat-backend/internal/llm"
	"anychat-backend/internal/models"
)

func testRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	r, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open registry: %v", err)
	}
	return r, path
}

func TestOpen_SeedsDefaults(t *testing.T) {
	r, path := testRegistry(t)

	if len(r.List()) == 0 {
		t.Fatal("Expected seeded default models")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected backing file to be written: %v", err)
	}

	if _, ok := r.Get("gemini", "gemini-2.5-flash-lite"); !ok {
		t.Error("Expected default gemini model to be registered")
	}
}

func TestAdd_ConflictLeavesListUnchanged(t *testing.T) {
	r, _ := testRegistry(t)
	before := len(r.List())

	err := r.Add(models.ModelDescriptor{Provider: "gemini", Model: "gemini-2.5-flash-lite", Display: "dup"})
	if err == nil {
		t.Fatal("Expected conflict error for duplicate model")
	}
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("Expected *ConflictError, got %T", err)
	}
	if len(r.List()) != before {
		t.Errorf("List changed on failed add: %d -> %d", before, len(r.List()))
	}
}

func TestAdd_PersistsAcrossReopen(t *testing.T) {
	r, path := testRegistry(t)

	desc := models.ModelDescriptor{Provider: "openai", Model: "gpt-4o-mini", Display: "GPT-4o mini", ToolsSupport: true}
	if err := r.Add(desc); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	reopened, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	got, ok := reopened.Get("openai", "gpt-4o-mini")
	if !ok {
		t.Fatal("Added model missing after reopen")
	}
	if got.Display != "GPT-4o mini" || !got.ToolsSupport {
		t.Errorf("Descriptor not persisted faithfully: %+v", got)
	}
}

func TestRemove(t *testing.T) {
	r, _ := testRegistry(t)

	if err := r.Remove("anthropic", "claude-3-5-haiku-20241022"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := r.Get("anthropic", "claude-3-5-haiku-20241022"); ok {
		t.Error("Model still present after remove")
	}

	err := r.Remove("anthropic", "claude-3-5-haiku-20241022")
	if err == nil {
		t.Fatal("Expected not-found error for second remove")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("Expected *NotFoundError, got %T", err)
	}
}

func TestReload_ReplacesListAtomically(t *testing.T) {
	r, path := testRegistry(t)

	content := []byte("models:\n  - provider: ollama\n    model: llama3.2\n    display: Llama 3.2\n    tools_support: false\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	list, err := r.Reload()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(list) != 1 || list[0].Provider != "ollama" {
		t.Fatalf("Expected reloaded list with one ollama model, got %+v", list)
	}
	if len(r.List()) != 1 {
		t.Errorf("In-memory list not replaced, got %d entries", len(r.List()))
	}
}

func TestReload_KeepsOldListOnError(t *testing.T) {
	r, path := testRegistry(t)
	before := len(r.List())

	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove config: %v", err)
	}

	if _, err := r.Reload(); err == nil {
		t.Fatal("Expected reload error for missing file")
	}
	if len(r.List()) != before {
		t.Errorf("List changed after failed reload: %d -> %d", before, len(r.List()))
	}
}

type fakeDiscoverer struct {
	infos []llm.ModelInfo
	err   error
}

func (f *fakeDiscoverer) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return f.infos, f.err
}

func TestDiscover_FlagsRegisteredCandidates(t *testing.T) {
	r, _ := testRegistry(t)
	r.RegisterDiscoverer("gemini", &fakeDiscoverer{infos: []llm.ModelInfo{
		{Provider: "gemini", Model: "gemini-2.5-flash-lite", Display: "Flash Lite", ToolsSupport: true},
		{Provider: "gemini", Model: "gemini-2.5-pro", Display: "Pro", ToolsSupport: true},
	}})

	candidates, err := r.Discover(context.Background(), "gemini")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if !candidates[0].Registered {
		t.Error("Expected already-configured model to be flagged as registered")
	}
	if candidates[1].Registered {
		t.Error("Expected new model to be flagged as unregistered")
	}
}

func TestDiscover_UnknownAndUnsupportedProviders(t *testing.T) {
	r, _ := testRegistry(t)

	if _, err := r.Discover(context.Background(), "anthropic"); !llm.IsUnsupported(err) {
		t.Errorf("Expected unsupported error for anthropic, got %v", err)
	}
	if _, err := r.Discover(context.Background(), "acme"); !llm.IsNotFound(err) {
		t.Errorf("Expected not-found error for unknown provider, got %v", err)
	}
}
