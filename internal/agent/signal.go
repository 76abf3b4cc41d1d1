package agent

import "strings"

// Signal is the agent's reported outcome extracted from its transcript.
type Signal int

const (
	// SignalUnknown means the transcript contained neither marker nor a
	// recognizable phrase; the caller must treat the invocation as failed.
	SignalUnknown Signal = iota
	// SignalChangesMade means the agent reported committed changes.
	SignalChangesMade
	// SignalNoChangesNeeded means the agent reported no changes were warranted.
	SignalNoChangesNeeded
)

// String renders the signal for logging.
func (s Signal) String() string {
	switch s {
	case SignalChangesMade:
		return "changes_made"
	case SignalNoChangesNeeded:
		return "no_changes_needed"
	default:
		return "unknown"
	}
}

// noChangePhrases are fallbacks for agents that answer in prose instead of
// emitting the marker. Checked before commit phrases: not changing is the
// safer reading of an ambiguous transcript.
var noChangePhrases = []string{
	"no changes needed",
	"no changes required",
	"no code changes",
	"doesn't require changes",
	"does not require changes",
	"not actionable",
	"non-actionable",
	"no action needed",
	"no action required",
}

var commitPhrases = []string{
	"created commit",
	"changes committed",
	"commit created",
	"made commit",
	"committed",
	"git commit",
}

// ParseSignal maps a raw agent transcript to a Signal. The explicit markers
// win; otherwise phrase heuristics apply, no-change first. Pure function.
func ParseSignal(raw string) Signal {
	lower := strings.ToLower(raw)

	if strings.Contains(lower, strings.ToLower(MarkerChangesMade)) {
		return SignalChangesMade
	}
	if strings.Contains(lower, strings.ToLower(MarkerNoChangesNeeded)) {
		return SignalNoChangesNeeded
	}

	for _, phrase := range noChangePhrases {
		if strings.Contains(lower, phrase) {
			return SignalNoChangesNeeded
		}
	}
	for _, phrase := range commitPhrases {
		if strings.Contains(lower, phrase) {
			return SignalChangesMade
		}
	}

	return SignalUnknown
}
