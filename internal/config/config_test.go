package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prfix/prfix/internal/agent"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, agent.DefaultCommand, cfg.AgentCommand())
	timeout, err := cfg.AgentTimeout()
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultTimeout, timeout)
	assert.Empty(t, cfg.EnvFiles)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
agent:
  command: ["myagent", "--batch"]
  timeout: 10m
envFiles:
  - .env
  - .env.local
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"myagent", "--batch"}, cfg.AgentCommand())
	timeout, err := cfg.AgentTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, timeout)
	assert.Equal(t, []string{".env", ".env.local"}, cfg.EnvFiles)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "agent: [not a mapping")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
agent:
  command: ["fileagent"]
  timeout: 10m
envFiles: [".env"]
`)

	t.Setenv("PRFIX_AGENT_COMMAND", "envagent --fast")
	t.Setenv("PRFIX_AGENT_TIMEOUT", "2m")
	t.Setenv("PRFIX_ENV_FILES", " a.env , b.env ")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"envagent", "--fast"}, cfg.AgentCommand())
	timeout, err := cfg.AgentTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, timeout)
	assert.Equal(t, []string{"a.env", "b.env"}, cfg.EnvFiles)
}

func TestAgentTimeoutValidation(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		wantErr bool
	}{
		{name: "valid", timeout: "90s"},
		{name: "not a duration", timeout: "soon", wantErr: true},
		{name: "zero", timeout: "0s", wantErr: true},
		{name: "negative", timeout: "-5m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Agent: AgentSection{Timeout: tt.timeout}}
			_, err := cfg.AgentTimeout()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAgentEnvLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FOO=base\nBAR=1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("FOO=override\n"), 0o644))

	cfg := &Config{EnvFiles: []string{".env", ".env.local"}}
	vars, err := cfg.AgentEnv(dir)
	require.NoError(t, err)

	assert.Equal(t, "override", vars["FOO"])
	assert.Equal(t, "1", vars["BAR"])
}

func TestAgentEnvMissingFile(t *testing.T) {
	cfg := &Config{EnvFiles: []string{"nope.env"}}
	_, err := cfg.AgentEnv(t.TempDir())
	require.Error(t, err)
}
