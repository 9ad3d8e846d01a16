package config

import (
	"fmt"
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

	if cfg.Project.Endpoint == "" {
		issues = append(issues, ValidationIssue{
			Path:    "project.endpoint",
			Message: "required; set PROJECT_ENDPOINT or project.endpoint in config",
		})
	} else if u, err := url.Parse(cfg.Project.Endpoint); err != nil || !u.IsAbs() || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "project.endpoint",
			Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Project.Endpoint),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		issues = append(issues, ValidationIssue{
			Path:    "project.endpoint",
			Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
		})
	}

	validStores := []string{"sqlite", "none"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}

	validLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLevels, cfg.Logging.Level),
		})
	}

	return issues
}

// Check runs Validate and folds any issues into a single ConfigError.
func Check(cfg *Config) error {
	issues := Validate(cfg)
	if len(issues) == 0 {
		return nil
	}
	msg := issues[0].String()
	for _, issue := range issues[1:] {
		msg += "; " + issue.String()
	}
	return &ConfigError{Message: msg}
}
