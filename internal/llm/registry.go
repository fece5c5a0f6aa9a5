package llm

// Provider names understood by the SDK relay.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMistral   = "mistral"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
)

// ProviderConfig holds the credentials and endpoints needed to construct
// provider clients. Empty fields mean the provider is not configured.
type ProviderConfig struct {
	AnthropicAPIKey string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	MistralAPIKey   string
	OllamaHost      string
}

// MistralBaseURL is the OpenAI-compatible endpoint Mistral exposes.
const MistralBaseURL = "https://api.mistral.ai/v1"

// Configured reports whether the provider has the configuration it needs.
// Ollama only needs a host, which always has a default.
func (c *ProviderConfig) Configured(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey != ""
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderMistral:
		return c.MistralAPIKey != ""
	case ProviderOllama:
		return true
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

// Providers returns every provider name the relay can dispatch to, in a
// stable order.
func Providers() []string {
	return []string{ProviderAnthropic, ProviderGemini, ProviderMistral, ProviderOllama, ProviderOpenAI}
}

// KnownProvider reports whether name is a provider this package understands.
func KnownProvider(name string) bool {
	switch name {
	case ProviderAnthropic, ProviderGemini, ProviderMistral, ProviderOllama, ProviderOpenAI:
		return true
	}
	return false
}

// ModelInfo is a model candidate produced by provider discovery, before it is
// checked against the configured registry.
type ModelInfo struct {
	Provider     string
	Model        string
	Display      string
	ToolsSupport bool
	Metadata     map[string]string
}
