package config

// Config is the root configuration for Haggle.
type Config struct {
	Backend BackendConfig `yaml:"backend,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
	Stub    StubConfig    `yaml:"stub,omitempty"`
}

// BackendConfig points the client at the negotiation backend.
type BackendConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`        // e.g. "http://127.0.0.1:8000"
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"` // per-request HTTP timeout; 0 disables
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`  // optional log file path; empty logs to stderr only
}

// UIConfig tweaks the chat TUI.
type UIConfig struct {
	Accent string `yaml:"accent,omitempty"` // color for builder turns, any lipgloss color string
}

// StubConfig configures the built-in dev backend.
type StubConfig struct {
	Addr string `yaml:"addr,omitempty"` // listen address for `haggle stub`
}
