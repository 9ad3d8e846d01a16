package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "gpt-5-mini", cfg.Project.Model)
	assert.Equal(t, "v1", cfg.Project.APIVersion)
	assert.Equal(t, "toeic-learn-agent", cfg.Agent.Name)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Project.Endpoint)
	assert.Empty(t, cfg.Project.AgentID)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, "gpt-5-mini", cfg.Project.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileSamePipeline(t *testing.T) {
	t.Setenv("PROJECT_ENDPOINT", "https://env.services.ai.azure.com/api/projects/p1")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-5")

	dir := t.TempDir()
	empty := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	fromFile, err := Load(empty)
	require.NoError(t, err)
	fromMissing, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, fromFile, fromMissing, "file-absent loads run the same merge pipeline")
	assert.Equal(t, "gpt-5", fromMissing.Project.Model)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
project:
  endpoint: https://myres.services.ai.azure.com/api/projects/toeic
  model: gpt-5
  agentId: asst_abc123
agent:
  name: my-tutor
  keep: true
session:
  store: none
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://myres.services.ai.azure.com/api/projects/toeic", cfg.Project.Endpoint)
	assert.Equal(t, "gpt-5", cfg.Project.Model)
	assert.Equal(t, "asst_abc123", cfg.Project.AgentID)
	assert.Equal(t, "my-tutor", cfg.Agent.Name)
	assert.True(t, cfg.Agent.Keep)
	assert.Equal(t, "none", cfg.Session.Store)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unspecified fields still get defaults
	assert.Equal(t, "v1", cfg.Project.APIVersion)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROJECT_ENDPOINT", "https://env.services.ai.azure.com/api/projects/p1")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-5-nano")
	t.Setenv("AGENT_ID", "asst_env")
	t.Setenv("PART5_LOG_LEVEL", "trace")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "https://env.services.ai.azure.com/api/projects/p1", cfg.Project.Endpoint)
	assert.Equal(t, "gpt-5-nano", cfg.Project.Model)
	assert.Equal(t, "asst_env", cfg.Project.AgentID)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
project:
  endpoint: https://file.services.ai.azure.com/api/projects/file
  model: gpt-5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("PROJECT_ENDPOINT", "https://env.services.ai.azure.com/api/projects/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.services.ai.azure.com/api/projects/env", cfg.Project.Endpoint)
	assert.Equal(t, "gpt-5", cfg.Project.Model)
}

func TestExpandSensitiveFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
project:
  endpoint: https://x.services.ai.azure.com/api/projects/x
  token: ${PART5_TEST_TOKEN}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("PART5_TEST_TOKEN", "sekrit")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sekrit", cfg.Project.Token)
}

func TestExpandEnvVarsUnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${PART5_DEFINITELY_UNSET}", expandEnvVars("${PART5_DEFINITELY_UNSET}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Message: "boom"}
	assert.Equal(t, "config: boom", err.Error())
}
