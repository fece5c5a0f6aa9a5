package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"anychat-backend/internal/config"
	"anychat-backend/internal/database"
	"anychat-backend/internal/handlers"
	"anychat-backend/internal/llm"
	"anychat-backend/internal/llm/gemini"
	"anychat-backend/internal/llm/ollama"
	"anychat-backend/internal/models"
	"anychat-backend/internal/registry"
	"anychat-backend/internal/relay"
	"anychat-backend/internal/repository"
	"anychat-backend/internal/router"
	"anychat-backend/internal/usage"
)

func main() {
	log.Println("🚀 Starting AnyChat Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	// ──── Step 2: Initialize Stores ────
	var userStore repository.UserStore
	var usageStore usage.Store

	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		userStore = repository.NewUserRepo(pool)
		usageStore = usage.NewPostgresStore(repository.NewUsageRepo(pool))
	} else {
		userStore = repository.NewMemoryUserStore()
		usageStore = usage.NewMemoryStore()
		log.Println("✓ In-memory stores initialized (no DATABASE_URL)")
	}

	if user, _ := userStore.GetByID(ctx, cfg.DefaultUserID); user == nil {
		userStore.Create(ctx, &models.User{UserID: cfg.DefaultUserID, Alias: "Default User"})
	}

	// ──── Step 3: Open Model Registry ────
	providerCfg := &llm.ProviderConfig{
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		MistralAPIKey:   cfg.MistralAPIKey,
		OllamaHost:      cfg.OllamaHost,
	}

	reg, err := registry.Open(cfg.ModelsConfigPath, logger)
	if err != nil {
		log.Fatalf("✗ Model registry failed to open: %v", err)
	}
	log.Printf("✓ Model registry loaded (%d models from %s)", len(reg.List()), cfg.ModelsConfigPath)

	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.New(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiClient.Close()
		reg.RegisterDiscoverer(llm.ProviderGemini, geminiClient)
	}
	ollamaClient, err := ollama.New(cfg.OllamaHost, logger)
	if err != nil {
		log.Printf("  Ollama discovery unavailable: %v", err)
	} else {
		reg.RegisterDiscoverer(llm.ProviderOllama, ollamaClient)
	}

	// ──── Step 4: Select Completion Relay ────
	var chatRelay relay.Relay
	var usageFetcher usage.Fetcher

	switch cfg.Mode() {
	case config.ModeGateway:
		chatRelay = relay.NewGatewayRelay(cfg.GatewayBaseURL, cfg.GatewayMasterKey, logger)
		usageFetcher = usage.NewGatewayFetcher(cfg.GatewayBaseURL, cfg.GatewayMasterKey, logger)
		usageStore = nil // the gateway owns the ledger
		log.Printf("✓ Gateway relay selected (%s)", cfg.GatewayBaseURL)
	default:
		chatRelay = relay.NewSDKRelay(providerCfg, cfg.MaxToolRounds, logger)
		usageFetcher = usageStore
		log.Println("✓ Direct SDK relay selected")
	}

	// ──── Step 5: Initialize Handlers ────
	pricing := usage.DefaultPricing()
	var recorder usage.Recorder
	if usageStore != nil {
		recorder = usageStore
	}
	chatHandler := handlers.NewChatHandler(chatRelay, recorder, pricing, logger)
	modelsHandler := handlers.NewModelsHandler(reg)
	usageHandler := handlers.NewUsageHandler(usageFetcher, usageStore, cfg.DefaultUserID)
	usersHandler := handlers.NewUsersHandler(userStore)
	toolsHandler := handlers.NewToolsHandler()

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		chatHandler,
		modelsHandler,
		usageHandler,
		usersHandler,
		toolsHandler,
		cfg.StaticDir,
		cfg.FrontendURL,
		cfg.ChatRateLimit,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Completions can run long; the write timeout must cover a full
		// tool-calling loop.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ AnyChat Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API:  http://localhost:%s/api", cfg.Port)
	log.Printf("  Mode: %s", cfg.Mode())

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
