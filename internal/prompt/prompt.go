// Package prompt renders the task prompts handed to the external coding agent.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/prfix/prfix/internal/github"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

const commentTaskTemplate = "templates/comment_task.tmpl"

// taskData is the template context for a single comment task.
type taskData struct {
	PRURL    string
	Author   string
	Body     string
	Location string
}

// reviewStateNotes explain what each review state implies for actionability.
var reviewStateNotes = map[string]string{
	"APPROVED":          "The reviewer approved the PR but left this comment",
	"CHANGES_REQUESTED": "The reviewer requested changes - this comment likely needs action",
	"COMMENTED":         "The reviewer left a general comment",
}

// locationContext renders the kind-specific context block for a comment.
func locationContext(c github.Comment) string {
	switch c.Kind {
	case github.KindInline:
		line := "unknown"
		if n := c.EffectiveLine(); n > 0 {
			line = fmt.Sprintf("%d", n)
		}
		return fmt.Sprintf(
			"COMMENT TYPE: Inline code comment\nFILE: %s\nLINE: %s\n\nIMPORTANT: Start by reading the file at %s to understand the context before making any changes.",
			c.Path, line, c.Path,
		)
	case github.KindReview:
		note, ok := reviewStateNotes[c.State]
		if !ok {
			note = "Review state: " + c.State
		}
		return fmt.Sprintf("COMMENT TYPE: Review summary comment\nREVIEW STATE: %s\nCONTEXT: %s", c.State, note)
	default:
		return "COMMENT TYPE: General discussion comment on the PR"
	}
}

// BuildCommentTask renders the full task prompt for one comment. The prompt is
// deterministic for a given PR reference and comment.
func BuildCommentTask(ref github.PRRef, c github.Comment) (string, error) {
	raw, err := builtinTemplates.ReadFile(commentTaskTemplate)
	if err != nil {
		return "", fmt.Errorf("load comment task template: %w", err)
	}

	tmpl, err := template.New(commentTaskTemplate).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse comment task template: %w", err)
	}

	data := taskData{
		PRURL:    ref.URL(),
		Author:   c.Author,
		Body:     c.Body,
		Location: locationContext(c),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute comment task template: %w", err)
	}
	return sb.String(), nil
}
