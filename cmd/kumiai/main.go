// Kumiai orchestrator server: provides the HTTP API, manages per-session
// message queues, and runs the LLM subprocess for each live session.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kumiai-dev/kumiai/pkg/agent"
	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/api"
	"github.com/kumiai-dev/kumiai/pkg/claude"
	"github.com/kumiai-dev/kumiai/pkg/config"
	"github.com/kumiai-dev/kumiai/pkg/database"
	"github.com/kumiai-dev/kumiai/pkg/events"
	"github.com/kumiai-dev/kumiai/pkg/queue"
	"github.com/kumiai-dev/kumiai/pkg/services"
	"github.com/kumiai-dev/kumiai/pkg/toolcfg"
	"github.com/kumiai-dev/kumiai/pkg/tools"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "."),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	logger := slog.Default()
	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting kumiai",
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir)

	// 2. Initialize database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 3. File-backed definition repositories
	agentRepo, err := agents.NewAgentRepository(cfg.AgentsDir)
	if err != nil {
		slog.Error("Failed to open agent repository", "dir", cfg.AgentsDir, "error", err)
		os.Exit(1)
	}
	skillRepo, err := agents.NewSkillRepository(cfg.SkillsDir)
	if err != nil {
		slog.Error("Failed to open skill repository", "dir", cfg.SkillsDir, "error", err)
		os.Exit(1)
	}

	// 4. External tool server registry, hot-reloaded on file change
	registry, err := toolcfg.NewRegistry(cfg.ToolServersFile, logger)
	if err != nil {
		slog.Error("Failed to load tool server registry", "path", cfg.ToolServersFile, "error", err)
		os.Exit(1)
	}
	if err := registry.Watch(); err != nil {
		slog.Warn("Tool server registry watch disabled", "error", err)
	}
	defer registry.Close()

	// 5. Domain services
	sessionService := services.NewSessionService(dbClient.Client)
	messageService := services.NewMessageService(dbClient.Client)
	projectService := services.NewProjectService(dbClient.Client)
	activityService := services.NewActivityService(dbClient.Client, logger)
	slog.Info("Services initialized")

	// 6. Subprocess client manager and session executor
	manager := claude.NewManager(cfg.ClaudeBinary, logger)
	broadcaster := events.NewBroadcaster(logger)
	builder := agent.NewBuilder(agentRepo, skillRepo, registry, projectService,
		cfg.ToolServerBaseURL, cfg.ScratchDir, cfg.DefaultWorkingDir, cfg.UserProfile, logger)

	executor := queue.NewExecutor(sessionService, messageService,
		queue.NewManagerProvider(manager), builder, broadcaster, activityService, logger)

	// 7. In-process tool servers
	serverSet := tools.NewServerSet(sessionService, projectService, executor,
		agentRepo, skillRepo, logger)

	// 8. Create HTTP server
	httpServer := api.NewServer(api.Deps{
		DB:              dbClient,
		SessionService:  sessionService,
		MessageService:  messageService,
		ProjectService:  projectService,
		ActivityService: activityService,
		Agents:          agentRepo,
		Skills:          skillRepo,
		Executor:        executor,
		Broadcaster:     broadcaster,
		ToolServers:     serverSet,
		Logger:          logger,
	})

	// 9. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Kumiai started successfully")

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 11. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.GracefulShutdownTimeout)
	defer cancel()

	// Stop accepting new work, then let in-flight turns wind down.
	done := make(chan struct{})
	go func() {
		executor.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Session executor stopped gracefully")
	case <-shutdownCtx.Done():
		slog.Warn("Executor shutdown timeout exceeded")
	}

	serverSet.Shutdown()
	manager.Shutdown()

	// Stop HTTP server with its own timeout budget
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
