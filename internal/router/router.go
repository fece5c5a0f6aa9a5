package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"anychat-backend/internal/handlers"
	"anychat-backend/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	modelsHandler *handlers.ModelsHandler,
	usageHandler *handlers.UsageHandler,
	usersHandler *handlers.UsersHandler,
	toolsHandler *handlers.ToolsHandler,
	staticDir string,
	frontendURL string,
	chatRateLimit int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	chatLimiter := middleware.NewRateLimiter(chatRateLimit, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", modelsHandler.List)
		r.Get("/tools", toolsHandler.List)

		r.Get("/users", usersHandler.List)
		r.Post("/users", usersHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(chatLimiter.Middleware)
			r.Post("/chat", chatHandler.Chat)
		})

		r.Route("/usage", func(r chi.Router) {
			r.Get("/", usageHandler.Get)
			r.Get("/global", usageHandler.Global)
			r.Get("/users", usageHandler.PerUser)
		})

		r.Route("/admin/models", func(r chi.Router) {
			r.Get("/config", modelsHandler.List)
			r.Post("/config", modelsHandler.Add)
			r.Delete("/config/{provider}/{model}", modelsHandler.Remove)
			r.Post("/reload", modelsHandler.Reload)
		})

		r.Get("/providers/{provider}/discover", modelsHandler.Discover)
	})

	// Demo page and assets
	fileServer := http.FileServer(http.Dir(staticDir))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, staticDir+"/index.html")
	})

	return r
}
