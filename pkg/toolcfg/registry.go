// Package toolcfg loads the external tool-server configuration file and
// serves it to the session builder. The file is watched and reloaded
// atomically on change; readers always see a complete snapshot.
package toolcfg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kumiai-dev/kumiai/pkg/claude"
	"gopkg.in/yaml.v3"
)

// ServerConfig describes one external tool server in the config file.
type ServerConfig struct {
	Type    string   `yaml:"type"`
	URL     string   `yaml:"url"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Registry holds the named external tool servers.
type Registry struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	servers map[string]ServerConfig

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRegistry loads the config file at path. A missing file yields an empty
// registry; an empty path yields a permanently empty one.
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		path:    path,
		logger:  logger,
		servers: make(map[string]ServerConfig),
		done:    make(chan struct{}),
	}
	if path == "" {
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.mu.Lock()
			r.servers = make(map[string]ServerConfig)
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read tool server config: %w", err)
	}

	servers := make(map[string]ServerConfig)
	if err := yaml.Unmarshal(raw, &servers); err != nil {
		return fmt.Errorf("failed to parse tool server config: %w", err)
	}

	r.mu.Lock()
	r.servers = servers
	r.mu.Unlock()
	r.logger.Info("loaded tool server config", "path", r.path, "servers", len(servers))
	return nil
}

// Get returns the client-facing config for a named server.
func (r *Registry) Get(name string) (claude.ToolServerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.servers[name]
	if !ok {
		return claude.ToolServerConfig{}, false
	}
	return claude.ToolServerConfig{
		Type:    sc.Type,
		URL:     sc.URL,
		Command: sc.Command,
		Args:    sc.Args,
	}, true
}

// Names returns all configured server names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	return names
}

// Watch reloads the registry whenever the config file changes. Editors often
// replace the file, so the parent directory is watched.
func (r *Registry) Watch() error {
	if r.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	r.watcher = watcher

	go func() {
		for {
			select {
			case <-r.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(r.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := r.reload(); err != nil {
					r.logger.Error("failed to reload tool server config", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("tool server config watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher.
func (r *Registry) Close() {
	close(r.done)
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}
