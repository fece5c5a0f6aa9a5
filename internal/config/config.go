package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Mode selects which Completion Relay backend the process uses.
const (
	ModeDirect  = "direct"  // dispatch through provider SDKs in-process
	ModeGateway = "gateway" // forward to a remote any-llm gateway
)

type Config struct {
	// Server
	Port string
	Env  string

	// Relay mode: "direct" unless a gateway is configured.
	GatewayBaseURL   string
	GatewayMasterKey string

	// Provider credentials (direct mode)
	AnthropicAPIKey string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	MistralAPIKey   string
	OllamaHost      string

	// Model registry
	ModelsConfigPath string

	// Usage persistence; empty means in-memory stores.
	DatabaseURL string

	// User attributed when a request carries no user_id.
	DefaultUserID string

	// Tool-calling loop cap per chat request
	MaxToolRounds int

	// Chat rate limit (requests per minute per IP)
	ChatRateLimit int

	// Static assets
	StaticDir   string
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		Env:              getEnvOrDefault("ENV", "development"),
		GatewayBaseURL:   getEnvOrDefault("GATEWAY_BASE_URL", ""),
		GatewayMasterKey: getEnvOrDefault("GATEWAY_MASTER_KEY", ""),
		AnthropicAPIKey:  getEnvOrDefault("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:     getEnvOrDefault("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnvOrDefault("OPENAI_BASE_URL", ""),
		MistralAPIKey:    getEnvOrDefault("MISTRAL_API_KEY", ""),
		OllamaHost:       getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		ModelsConfigPath: getEnvOrDefault("MODELS_CONFIG_PATH", "models.yaml"),
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		DefaultUserID:    getEnvOrDefault("DEFAULT_USER_ID", "user-123"),
		MaxToolRounds:    getEnvAsIntOrDefault("MAX_TOOL_ROUNDS", 4),
		ChatRateLimit:    getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 30),
		StaticDir:        getEnvOrDefault("STATIC_DIR", "web/static"),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}
}

// Mode returns the relay mode derived from the gateway configuration.
func (c *Config) Mode() string {
	if c.GatewayBaseURL != "" {
		return ModeGateway
	}
	return ModeDirect
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
