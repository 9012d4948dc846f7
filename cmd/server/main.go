package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"dossier/internal/auth"
	"dossier/internal/config"
	"dossier/internal/handler"
	"dossier/internal/middleware"
	"dossier/internal/repository/postgres"
	postgresDocstore "dossier/internal/repository/postgres/docstore"
	serviceAudit "dossier/internal/service/audit"
	serviceConsistency "dossier/internal/service/consistency"
	"dossier/internal/service/consistency/rules"
	serviceDocstore "dossier/internal/service/docstore"

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
	if cfg.Environment == "dev" || cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier against the identity provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgresDocstore.NewProjectRepository(repoConfig)
	docRepo := postgresDocstore.NewDocumentRepository(repoConfig)
	versionRepo := postgresDocstore.NewVersionRepository(repoConfig)
	consistencyRepo := postgres.NewConsistencyRepository(repoConfig)
	auditRepo := postgres.NewAuditRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Build the rule engine. An external config file overrides the embedded
	// defaults and is hot-reloaded on change.
	engine := serviceConsistency.NewEngine(logger)
	ruleSet, err := rules.LoadDefault()
	if err != nil {
		log.Fatalf("Failed to load default rule set: %v", err)
	}
	if cfg.RuleConfigPath != "" {
		ruleSet, err = rules.LoadFile(cfg.RuleConfigPath)
		if err != nil {
			log.Fatalf("Failed to load rule config %s: %v", cfg.RuleConfigPath, err)
		}
	}
	rules.Register(engine, ruleSet)
	logger.Info("rule engine initialized", "rules", engine.RuleIDs())

	if cfg.RuleConfigPath != "" {
		go func() {
			if err := rules.Watch(ctx, cfg.RuleConfigPath, engine, logger); err != nil {
				logger.Error("rule config watcher stopped", "error", err)
			}
		}()
	}

	// Create services
	projectService := serviceDocstore.NewProjectService(projectRepo, logger)
	documentStore := serviceDocstore.NewDocumentStore(docRepo, versionRepo, txManager, logger)
	consistencyService := serviceConsistency.NewRunner(engine, docRepo, versionRepo, consistencyRepo, txManager, logger)
	auditService := serviceAudit.NewLogger(auditRepo, logger)

	// Create handlers
	projectHandler := handler.NewProjectHandler(projectService, logger)
	docHandler := handler.NewDocumentHandler(documentStore, auditService, logger)
	consistencyHandler := handler.NewConsistencyHandler(consistencyService, auditService, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)
	healthHandler := handler.NewHealthHandler(pool)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)

	// Project-scoped document routes
	mux.HandleFunc("POST /api/projects/{id}/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/projects/{id}/documents", docHandler.ListDocuments)

	// Document routes
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("PUT /api/documents/{id}/content", docHandler.SaveContent)
	mux.HandleFunc("PATCH /api/documents/{id}/blocks/{blockId}", docHandler.UpdateBlock)
	mux.HandleFunc("POST /api/documents/{id}/approve", docHandler.ApproveDocument)
	mux.HandleFunc("GET /api/documents/{id}/versions", docHandler.ListVersions)

	// Validation routes
	mux.HandleFunc("POST /api/documents/{id}/validate", consistencyHandler.RunValidation)
	mux.HandleFunc("GET /api/documents/{id}/validations", consistencyHandler.ListValidations)

	// Audit trail
	mux.HandleFunc("GET /api/documents/{id}/history", auditHandler.History)

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
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
