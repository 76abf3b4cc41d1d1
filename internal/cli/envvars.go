package cli

import (
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from PRFIX_* env vars.
type baseEnv struct {
	// Directory is the repository path from PRFIX_DIRECTORY.
	Directory string `env:"PRFIX_DIRECTORY"`
	// Verbose toggles diagnostic output from PRFIX_VERBOSE.
	Verbose bool `env:"PRFIX_VERBOSE"`
	// LogLevel is the textual log level from PRFIX_LOG_LEVEL.
	LogLevel string `env:"PRFIX_LOG_LEVEL"`
}

// applyEnvDefaults seeds opts from PRFIX_* env vars; flags still override.
func applyEnvDefaults(opts *Options) error {
	var base baseEnv
	if err := envparse.Parse(&base); err != nil {
		return err
	}
	if strings.TrimSpace(base.Directory) != "" {
		opts.Directory = base.Directory
	}
	if base.Verbose {
		opts.Verbose = true
	}
	if strings.TrimSpace(base.LogLevel) != "" {
		opts.LogLevel = base.LogLevel
	}
	return nil
}
