package deps

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatus(t *testing.T) {
	statuses := []Status{
		{Tool: Tool{Name: "Git"}, Available: true, Version: "git version 2.44.0"},
		{Tool: Tool{Name: "GitHub CLI"}, Available: true},
		{Tool: Tool{Name: "Claude CLI", Install: "Install it."}},
	}

	got := FormatStatus(statuses)

	assert.Contains(t, got, "[OK]      Git (git version 2.44.0)")
	assert.Contains(t, got, "[OK]      GitHub CLI\n")
	assert.Contains(t, got, "[MISSING] Claude CLI - Install it.")
}

func TestAllAvailable(t *testing.T) {
	all := []Status{{Available: true}, {Available: true}}
	assert.True(t, AllAvailable(all))

	one := []Status{{Available: true}, {Available: false}}
	assert.False(t, AllAvailable(one))

	assert.True(t, AllAvailable(nil))
}

func TestMissingErrorMessage(t *testing.T) {
	err := &MissingError{Tool: Tool{Name: "GitHub CLI", Command: "gh", Install: "Install GitHub CLI."}}
	msg := err.Error()
	assert.Contains(t, msg, "GitHub CLI (gh) is not available")
	assert.Contains(t, msg, "Install GitHub CLI.")
}

func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{
		Tool:        "GitHub CLI",
		Detail:      "You are not logged into any GitHub hosts.",
		Remediation: "Run `gh auth login` and follow the prompts to authenticate.",
	}
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "GitHub CLI is not authenticated"))
	assert.Contains(t, msg, "gh auth login")
}

func TestRequiredCoversExpectedTools(t *testing.T) {
	var commands []string
	for _, tool := range Required {
		commands = append(commands, tool.Command)
	}
	assert.Equal(t, []string{"git", "gh", "claude"}, commands)
}
