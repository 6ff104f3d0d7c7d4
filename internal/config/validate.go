package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Backend validation
	if cfg.Backend.BaseURL != "" {
		u, err := url.Parse(cfg.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "backend.baseUrl",
				Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.Backend.BaseURL),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			issues = append(issues, ValidationIssue{
				Path:    "backend.baseUrl",
				Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
			})
		}
	}

	if cfg.Backend.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "backend.timeoutSeconds",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Backend.TimeoutSeconds),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	// Stub validation
	if cfg.Stub.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Stub.Addr); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "stub.addr",
				Message: fmt.Sprintf("must be host:port, got %q", cfg.Stub.Addr),
			})
		}
	}

	return issues
}
