package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9180, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "knowledged.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.Agent.MaxIterations)
	assert.Equal(t, 5*time.Minute, cfg.Agent.Timeout.Duration())
	assert.Equal(t, 4, cfg.Agent.MaxConcurrent)
	assert.Equal(t, "logs/agent_responses", cfg.Docgen.AuditDir)
	assert.Equal(t, "outputs", cfg.Docgen.OutputDir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 0.0.0.0
  http_port: 8080
  shutdown_timeout: 30s
database:
  path: /var/lib/knowledged/db.sqlite
agent:
  model: gpt-4o-mini
  timeout: 2m
  max_concurrent: 8
docgen:
  audit_dir: /var/log/knowledged
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "/var/lib/knowledged/db.sqlite", cfg.Database.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.Agent.Model)
	assert.Equal(t, 2*time.Minute, cfg.Agent.Timeout.Duration())
	assert.Equal(t, 8, cfg.Agent.MaxConcurrent)
	assert.Equal(t, "/var/log/knowledged", cfg.Docgen.AuditDir)
	// Unset sections keep their defaults.
	assert.Equal(t, "outputs", cfg.Docgen.OutputDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  model: from-file\n"), 0o644))

	t.Setenv("AGENT_MODEL", "from-env")
	t.Setenv("AGENT_API_KEY", "sk-test-123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Agent.Model)
	assert.Equal(t, "sk-test-123", cfg.Agent.APIKey.Value())
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9180, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		var cfg Config
		applyDefaults(&cfg)
		return &cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 70000
		assert.ErrorContains(t, cfg.Validate(), "http_port")
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := base()
		cfg.Agent.Model = ""
		assert.ErrorContains(t, cfg.Validate(), "agent.model")
	})

	t.Run("non-positive concurrency", func(t *testing.T) {
		cfg := base()
		cfg.Agent.MaxConcurrent = 0
		assert.ErrorContains(t, cfg.Validate(), "max_concurrent")
	})
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	out, err := Duration(time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", string(out))
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-very-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "sk-very-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `"[REDACTED]"`, string(data))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}
