// Package agent wraps invocation of the external coding agent CLI and the
// interpretation of its terminal output.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/prfix/prfix/internal/env"
	"github.com/prfix/prfix/internal/logging"
)

// Sentinel markers the agent is instructed to emit in its final output.
const (
	// MarkerChangesMade signals that the agent edited files and committed.
	MarkerChangesMade = "RESULT: CHANGES_MADE"
	// MarkerNoChangesNeeded signals that the comment required no changes.
	MarkerNoChangesNeeded = "RESULT: NO_CHANGES_NEEDED"
)

// DefaultCommand is the agent CLI invocation used when no override is configured.
// The prompt is appended as the final argument.
var DefaultCommand = []string{"claude", "-p", "--dangerously-skip-permissions"}

// DefaultTimeout bounds a single agent invocation.
const DefaultTimeout = 5 * time.Minute

// Transcript captures the full textual output of one agent invocation.
type Transcript struct {
	// Stdout is the agent's standard output.
	Stdout string
	// Stderr is the agent's standard error output.
	Stderr string
}

// Invoker runs the external coding agent once with a prompt in a working directory.
type Invoker interface {
	Invoke(ctx context.Context, prompt, dir string) (Transcript, error)
}

// CLIOptions configure a CLIInvoker.
type CLIOptions struct {
	// Command is the agent command and its fixed arguments; the prompt is appended.
	Command []string
	// Timeout bounds each invocation; zero means DefaultTimeout.
	Timeout time.Duration
	// ExtraEnv is merged over the process environment for the agent subprocess.
	ExtraEnv env.Vars
}

// CLIInvoker invokes the agent as a subprocess in non-interactive mode.
type CLIInvoker struct {
	logger  *slog.Logger
	command []string
	timeout time.Duration
	extra   env.Vars
}

// NewCLIInvoker constructs a CLIInvoker with the given options.
func NewCLIInvoker(logger *slog.Logger, opts CLIOptions) *CLIInvoker {
	command := opts.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CLIInvoker{
		logger:  logger,
		command: command,
		timeout: timeout,
		extra:   opts.ExtraEnv,
	}
}

// Invoke runs the agent synchronously with the prompt as its final argument
// and dir as its working directory. The invocation is bounded by the
// configured timeout; a timeout is reported as an error for this invocation
// only.
func (i *CLIInvoker) Invoke(ctx context.Context, prompt, dir string) (Transcript, error) {
	cctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	args := append(append([]string{}, i.command[1:]...), prompt)
	cmd := exec.CommandContext(cctx, i.command[0], args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if i.logger != nil {
		cmd.Stderr = io.MultiWriter(&stderr, logging.NewToolWriter(i.logger, i.command[0]))
	}

	cmd.Env = i.environ()

	if i.logger != nil {
		i.logger.Debug("invoking coding agent", "command", i.command[0], "dir", dir, "timeout", i.timeout)
	}

	err := cmd.Run()
	transcript := Transcript{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return transcript, fmt.Errorf("agent invocation timed out after %s", i.timeout)
		}
		detail := strings.TrimSpace(transcript.Stderr)
		if detail != "" {
			return transcript, fmt.Errorf("agent invocation failed: %w: %s", err, detail)
		}
		return transcript, fmt.Errorf("agent invocation failed: %w", err)
	}

	return transcript, nil
}

// environ builds the agent subprocess environment: the process environment
// with the configured extra variables merged over it. Nil means inherit.
func (i *CLIInvoker) environ() []string {
	if len(i.extra) == 0 {
		return nil
	}
	return env.Merge(env.FromOS(), i.extra).Environ()
}
