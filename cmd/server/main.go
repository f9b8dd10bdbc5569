package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"isma/internal/auth"
	"isma/internal/config"
	"isma/internal/domain/repositories"
	agentsvc "isma/internal/domain/services/agent"
	"isma/internal/handler"
	"isma/internal/middleware"
	"isma/internal/personas"
	"isma/internal/repository/memory"
	"isma/internal/repository/postgres"
	"isma/internal/service/agent/actions"
	"isma/internal/service/agent/conversation"
	"isma/internal/service/agent/prompt"
	"isma/internal/service/agent/providers/gemini"
	"isma/internal/service/agent/providers/scripted"
	projectsvc "isma/internal/service/project"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()

	// Project store: postgres when a database URL is configured,
	// in-memory otherwise (local development without Supabase).
	var projectRepo repositories.ProjectRepository
	var txManager repositories.TransactionManager
	if cfg.SupabaseDBURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)

		projectRepo = postgres.NewProjectRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		txManager = postgres.NewTransactionManager(pool)
	} else {
		logger.Warn("no database configured, using in-memory project store")
		projectRepo = memory.NewProjectRepository()
		txManager = memory.NewTransactionManager()
	}

	// Persona catalog (embedded YAML)
	catalog, err := personas.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load persona catalog: %v", err)
	}
	logger.Info("persona catalog loaded", "personas", len(catalog.List()))

	// Model provider
	var provider agentsvc.ModelClient
	switch cfg.Provider {
	case "scripted":
		provider = scripted.NewClient()
	default:
		provider, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to create model provider: %v", err)
		}
	}
	logger.Info("model provider ready", "provider", provider.Name())

	// Agent pipeline
	registry := actions.NewRegistry()
	dispatcher := actions.NewDispatcher(registry, logger)
	prompts := prompt.NewBuilder(catalog)
	orchestrator := conversation.NewOrchestrator(provider, prompts, registry, dispatcher, projectRepo, logger)

	// Project service
	projectService := projectsvc.NewService(projectRepo, txManager, logger)

	// Handlers
	projectHandler := handler.NewProjectHandler(projectService, logger)
	chatHandler := handler.NewChatHandler(orchestrator, logger)
	personasHandler := handler.NewPersonasHandler(catalog)
	logicHandler := handler.NewLogicHandler(projectService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", projectHandler.HealthCheck)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.DeleteProject)

	// Version routes
	mux.HandleFunc("POST /api/projects/{id}/versions", projectHandler.SaveVersion)
	mux.HandleFunc("POST /api/projects/{id}/versions/{vid}/restore", projectHandler.RestoreVersion)

	// Audit export
	mux.HandleFunc("GET /api/projects/{id}/audit/export", projectHandler.ExportAudit)

	// Agent routes
	mux.HandleFunc("POST /api/projects/{id}/chat", chatHandler.RunTurn)
	mux.HandleFunc("POST /api/projects/{id}/logic/preview", logicHandler.PreviewCondition)

	// Persona catalog
	mux.HandleFunc("GET /api/personas", personasHandler.ListPersonas)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
