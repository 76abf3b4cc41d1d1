// Package config contains the loader and typed model for the optional
// .prfix.yaml file found in the target repository.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	envparse "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/prfix/prfix/internal/agent"
	"github.com/prfix/prfix/internal/env"
)

// FileName is the per-repository configuration file name.
const FileName = ".prfix.yaml"

// Config models .prfix.yaml after env overrides are applied.
type Config struct {
	// Agent customizes how the coding agent is invoked.
	Agent AgentSection `yaml:"agent,omitempty"`
	// EnvFiles lists .env files whose variables are passed to the agent process.
	EnvFiles []string `yaml:"envFiles,omitempty"`
}

// AgentSection holds agent invocation settings.
type AgentSection struct {
	// Command overrides the agent command and fixed arguments.
	Command []string `yaml:"command,omitempty"`
	// Timeout bounds one invocation, as a Go duration string (e.g. "10m").
	Timeout string `yaml:"timeout,omitempty"`
}

// overrides captures PRFIX_* env vars that take precedence over file values.
type overrides struct {
	// AgentCommand is a whitespace-separated command from PRFIX_AGENT_COMMAND.
	AgentCommand string `env:"PRFIX_AGENT_COMMAND"`
	// AgentTimeout is a duration string from PRFIX_AGENT_TIMEOUT.
	AgentTimeout string `env:"PRFIX_AGENT_TIMEOUT"`
	// EnvFiles is a comma-separated file list from PRFIX_ENV_FILES.
	EnvFiles string `env:"PRFIX_ENV_FILES"`
}

// Load reads .prfix.yaml from dir when present and applies PRFIX_* env
// overrides. A missing file yields the defaults, not an error.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(dir, FileName)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// No config file; defaults apply.
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var ov overrides
	if err := envparse.Parse(&ov); err != nil {
		return nil, fmt.Errorf("parse PRFIX_* environment: %w", err)
	}
	if strings.TrimSpace(ov.AgentCommand) != "" {
		cfg.Agent.Command = strings.Fields(ov.AgentCommand)
	}
	if strings.TrimSpace(ov.AgentTimeout) != "" {
		cfg.Agent.Timeout = strings.TrimSpace(ov.AgentTimeout)
	}
	if strings.TrimSpace(ov.EnvFiles) != "" {
		cfg.EnvFiles = cfg.EnvFiles[:0]
		for _, name := range strings.Split(ov.EnvFiles, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.EnvFiles = append(cfg.EnvFiles, name)
			}
		}
	}

	return cfg, nil
}

// AgentCommand returns the configured agent command or the built-in default.
func (c *Config) AgentCommand() []string {
	if len(c.Agent.Command) > 0 {
		return c.Agent.Command
	}
	return agent.DefaultCommand
}

// AgentTimeout parses the configured invocation timeout, defaulting when unset.
func (c *Config) AgentTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Agent.Timeout) == "" {
		return agent.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Agent.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid agent timeout %q: %w", c.Agent.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("agent timeout %q must be positive", c.Agent.Timeout)
	}
	return d, nil
}

// AgentEnv loads the configured env files, resolved against dir, and merges
// them in order for the agent subprocess environment.
func (c *Config) AgentEnv(dir string) (env.Vars, error) {
	if len(c.EnvFiles) == 0 {
		return nil, nil
	}
	return env.LoadEnvFiles(dir, c.EnvFiles)
}
