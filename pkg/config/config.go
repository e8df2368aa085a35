// Package config loads application-level settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the non-database settings of the server process.
type Config struct {
	// HTTPPort is the port the API server listens on.
	HTTPPort string

	// DataDir is the root directory for file-backed state: agent and
	// skill definitions, per-session scratch directories, and the
	// optional tool server registry file.
	DataDir    string
	AgentsDir  string
	SkillsDir  string
	ScratchDir string

	// DefaultWorkingDir is the subprocess working directory for sessions
	// that are not bound to a project.
	DefaultWorkingDir string

	// ClaudeBinary is the CLI executable launched for each session.
	ClaudeBinary string

	// ToolServersFile points at the YAML registry of external tool
	// servers. May be empty or missing; the registry is then empty.
	ToolServersFile string

	// ToolServerBaseURL is the address the subprocess uses to reach the
	// in-process tool servers.
	ToolServerBaseURL string

	// UserProfile is appended to every system prompt when present.
	UserProfile string

	GracefulShutdownTimeout time.Duration
}

// Load reads configuration from the environment and prepares the data
// directory layout.
func Load() (*Config, error) {
	dataDir := os.Getenv("KUMIAI_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kumiai")
	}

	httpPort := getEnvOrDefault("HTTP_PORT", "8080")

	cfg := &Config{
		HTTPPort:                httpPort,
		DataDir:                 dataDir,
		AgentsDir:               filepath.Join(dataDir, "agents"),
		SkillsDir:               filepath.Join(dataDir, "skills"),
		ScratchDir:              filepath.Join(dataDir, "scratch"),
		DefaultWorkingDir:       getEnvOrDefault("DEFAULT_WORKING_DIR", filepath.Join(dataDir, "workspace")),
		ClaudeBinary:            getEnvOrDefault("CLAUDE_BINARY", "claude"),
		ToolServersFile:         getEnvOrDefault("TOOL_SERVERS_FILE", filepath.Join(dataDir, "tool_servers.yaml")),
		ToolServerBaseURL:       getEnvOrDefault("TOOL_SERVER_BASE_URL", "http://localhost:"+httpPort),
		GracefulShutdownTimeout: 30 * time.Second,
	}

	for _, dir := range []string{cfg.DataDir, cfg.AgentsDir, cfg.SkillsDir, cfg.ScratchDir, cfg.DefaultWorkingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// PROFILE.md is optional; absence just means no profile section in
	// system prompts.
	if data, err := os.ReadFile(filepath.Join(dataDir, "PROFILE.md")); err == nil {
		cfg.UserProfile = string(data)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
