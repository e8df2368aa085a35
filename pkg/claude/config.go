package claude

// ToolServerConfig describes one tool server exposed to the subprocess,
// either an HTTP endpoint or a command to spawn.
type ToolServerConfig struct {
	Type    string   `json:"type,omitempty"`
	URL     string   `json:"url,omitempty"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// ClientConfig is the complete runtime configuration for one subprocess
// client, assembled by the session builder. Argument-injection hooks are not
// part of the config: they run server-side in the tool dispatcher, where the
// subprocess cannot tamper with them.
type ClientConfig struct {
	Model        string
	WorkingDir   string
	SystemPrompt string
	AllowedTools []string
	ToolServers  map[string]ToolServerConfig
	ResumeToken  string
}
