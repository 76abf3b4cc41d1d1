// Package deps verifies that the external tools prfix orchestrates are
// installed and authenticated before a run starts.
package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tool describes one required external dependency.
type Tool struct {
	// Name is the human-readable tool name.
	Name string
	// Command is the binary looked up in PATH.
	Command string
	// Install is the remediation text shown when the tool is missing.
	Install string
}

// Required lists the tools a run cannot start without, in report order.
var Required = []Tool{
	{
		Name:    "Git",
		Command: "git",
		Install: "Install Git from https://git-scm.com/downloads or use your package manager.",
	},
	{
		Name:    "GitHub CLI",
		Command: "gh",
		Install: "Install GitHub CLI from https://cli.github.com/ (brew install gh / winget install GitHub.cli).",
	},
	{
		Name:    "Claude CLI",
		Command: "claude",
		Install: "Install Claude CLI: npm install -g @anthropic-ai/claude-code (see https://docs.anthropic.com/en/docs/claude-code).",
	},
}

// Status is the probe result for one tool.
type Status struct {
	// Tool is the probed dependency.
	Tool Tool
	// Available reports whether the binary was found in PATH.
	Available bool
	// Version is the first line of `<command> --version` output, when available.
	Version string
}

// MissingError indicates a required tool is not installed.
type MissingError struct {
	// Tool is the missing dependency.
	Tool Tool
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s (%s) is not available. %s", e.Tool.Name, e.Tool.Command, e.Tool.Install)
}

// AuthError indicates a tool is installed but not authenticated.
type AuthError struct {
	// Tool is the affected tool name.
	Tool string
	// Detail is the diagnostic text from the tool.
	Detail string
	// Remediation tells the user how to authenticate.
	Remediation string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s is not authenticated: %s\n%s", e.Tool, e.Detail, e.Remediation)
}

// Check probes every required tool and returns their statuses.
func Check(ctx context.Context) []Status {
	out := make([]Status, 0, len(Required))
	for _, tool := range Required {
		status := Status{Tool: tool}
		if _, err := exec.LookPath(tool.Command); err == nil {
			status.Available = true
			status.Version = probeVersion(ctx, tool.Command)
		}
		out = append(out, status)
	}
	return out
}

// Require fails with *MissingError for the first required tool not in PATH.
func Require(ctx context.Context) error {
	for _, tool := range Required {
		if _, err := exec.LookPath(tool.Command); err != nil {
			return &MissingError{Tool: tool}
		}
	}
	return nil
}

// RequireGHAuth verifies the GitHub CLI is authenticated via gh auth status.
func RequireGHAuth(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "gh", "auth", "status")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return &AuthError{
			Tool:        "GitHub CLI",
			Detail:      detail,
			Remediation: "Run `gh auth login` and follow the prompts to authenticate.",
		}
	}
	return nil
}

// FormatStatus renders probe results for the --check-deps report.
func FormatStatus(statuses []Status) string {
	var sb strings.Builder
	sb.WriteString("Dependency status:\n")
	for _, s := range statuses {
		switch {
		case s.Available && s.Version != "":
			fmt.Fprintf(&sb, "  [OK]      %s (%s)\n", s.Tool.Name, s.Version)
		case s.Available:
			fmt.Fprintf(&sb, "  [OK]      %s\n", s.Tool.Name)
		default:
			fmt.Fprintf(&sb, "  [MISSING] %s - %s\n", s.Tool.Name, s.Tool.Install)
		}
	}
	return sb.String()
}

// AllAvailable reports whether every probed tool was found.
func AllAvailable(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available {
			return false
		}
	}
	return true
}

// probeVersion returns the first non-empty line of `<command> --version`.
func probeVersion(ctx context.Context, command string) string {
	cmd := exec.CommandContext(ctx, command, "--version")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	for _, line := range strings.Split(stdout.String(), "\n") {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
