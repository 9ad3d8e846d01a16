package config

import (
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Project.Token = expandEnvVars(cfg.Project.Token)
}

// LoadDotenv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotenv() {
	_ = godotenv.Load()
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
	case !os.IsNotExist(err):
		return cfg, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Project.Model == "" {
		cfg.Project.Model = DefaultModel
	}
	if cfg.Project.APIVersion == "" {
		cfg.Project.APIVersion = "v1"
	}
	if cfg.Agent.Name == "" {
		cfg.Agent.Name = DefaultAgentName
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads environment variables and overrides config values.
// PROJECT_ENDPOINT, MODEL_DEPLOYMENT_NAME and AGENT_ID follow the Azure AI
// Foundry naming; part5-specific knobs use the PART5_ prefix.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROJECT_ENDPOINT"); v != "" {
		cfg.Project.Endpoint = v
	}
	if v := os.Getenv("MODEL_DEPLOYMENT_NAME"); v != "" {
		cfg.Project.Model = v
	}
	if v := os.Getenv("AGENT_ID"); v != "" {
		cfg.Project.AgentID = v
	}
	if v := os.Getenv("PART5_API_VERSION"); v != "" {
		cfg.Project.APIVersion = v
	}
	if v := os.Getenv("PART5_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
