package github

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CommentKind distinguishes the three PR feedback categories.
type CommentKind string

const (
	// KindDiscussion is a general comment on the PR conversation thread.
	KindDiscussion CommentKind = "discussion"
	// KindReview is a review summary comment (approve / request changes / comment).
	KindReview CommentKind = "review"
	// KindInline is a code comment anchored to a file and line in the diff.
	KindInline CommentKind = "inline"
)

// Comment is the unified representation of one piece of PR feedback.
// Kind selects which of the optional fields are meaningful.
type Comment struct {
	// Kind is the comment category.
	Kind CommentKind
	// ID is the source-system identifier of the comment.
	ID string
	// Author is the GitHub login of the comment author.
	Author string
	// Body is the raw markdown body of the comment.
	Body string
	// CreatedAt is the ISO timestamp of comment creation.
	CreatedAt string
	// State is the review state for KindReview (APPROVED, CHANGES_REQUESTED, COMMENTED).
	State string
	// Path is the repository-relative file path for KindInline.
	Path string
	// Line is the 1-based line number for KindInline; zero when the API reports none.
	Line int
	// OriginalLine is the line number before later changes, used as fallback.
	OriginalLine int
}

// EffectiveLine returns the most relevant line number for an inline comment,
// falling back to OriginalLine when the live line is unset.
func (c Comment) EffectiveLine() int {
	if c.Line > 0 {
		return c.Line
	}
	return c.OriginalLine
}

// Describe renders a one-line human-readable summary of the comment.
func (c Comment) Describe() string {
	switch c.Kind {
	case KindReview:
		return fmt.Sprintf("[Review - %s] %s: %s", c.State, c.Author, truncate(c.Body, 100))
	case KindInline:
		location := c.Path
		if line := c.EffectiveLine(); line > 0 {
			location = fmt.Sprintf("%s:%d", c.Path, line)
		}
		return fmt.Sprintf("[Inline] %s on %s: %s", c.Author, location, truncate(c.Body, 80))
	default:
		return fmt.Sprintf("[Discussion] %s: %s", c.Author, truncate(c.Body, 100))
	}
}

// truncate shortens s to at most max runes, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
