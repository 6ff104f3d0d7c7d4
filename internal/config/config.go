package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Accent: "205",
		},
		Stub: StubConfig{
			Addr: "127.0.0.1:8000",
		},
	}
}
