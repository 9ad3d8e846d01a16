// Package config loads and validates part5 configuration.
package config

import "fmt"

// DefaultModel is the model deployment used when none is configured.
const DefaultModel = "gpt-5-mini"

// DefaultAgentName is the display name given to agents created by part5.
const DefaultAgentName = "toeic-learn-agent"

// ConfigError represents a configuration error. It is fatal: the process
// reports it and exits non-zero instead of starting a session.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Config is the root configuration for part5.
type Config struct {
	Project ProjectConfig `yaml:"project,omitempty"`
	Agent   AgentConfig   `yaml:"agent,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ProjectConfig identifies the remote AI Foundry project.
type ProjectConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty"`   // project endpoint URL (required)
	Model      string `yaml:"model,omitempty"`      // model deployment name
	AgentID    string `yaml:"agentId,omitempty"`    // reuse an existing remote agent
	APIVersion string `yaml:"apiVersion,omitempty"` // REST api-version query value
	Token      string `yaml:"token,omitempty"`      // static bearer token; normally empty (az login)
}

// AgentConfig controls how the remote tutor agent is provisioned.
type AgentConfig struct {
	Name             string `yaml:"name,omitempty"`
	InstructionsFile string `yaml:"instructionsFile,omitempty"` // override the embedded tutor prompt
	Keep             bool   `yaml:"keep,omitempty"`             // keep a session-created agent instead of deleting it on exit
}

// SessionConfig defines local transcript behavior.
type SessionConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "none"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Project: ProjectConfig{
			Model:      DefaultModel,
			APIVersion: "v1",
		},
		Agent: AgentConfig{
			Name: DefaultAgentName,
		},
		Session: SessionConfig{
			Store: "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
