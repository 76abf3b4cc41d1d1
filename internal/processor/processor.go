// Package processor drives the per-comment state machine: one agent
// invocation per comment, classified into a terminal outcome by the agent's
// reported signal and the movement of the repository HEAD.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prfix/prfix/internal/agent"
	"github.com/prfix/prfix/internal/github"
	"github.com/prfix/prfix/internal/prompt"
)

// ErrCommitNotFound indicates the agent claimed changes were made but the
// repository HEAD did not move. Reported as a failure, never as success.
var ErrCommitNotFound = errors.New("agent reported changes but no new commit was found")

// ErrStrayCommit indicates the agent claimed no changes were needed but the
// repository HEAD moved anyway.
var ErrStrayCommit = errors.New("agent reported no changes but the repository HEAD moved")

// ErrNoResultMarker indicates the agent transcript resolved to neither signal.
var ErrNoResultMarker = errors.New("agent output contained no recognizable result marker")

// Repository is the narrow view of the working repository the processor needs.
// *gitrepo.Repo satisfies it.
type Repository interface {
	Dir() string
	HeadCommit(ctx context.Context) (string, error)
}

// Outcome is the terminal result of processing a single comment.
// Invariant: Changed is true exactly when CommitID is non-empty.
type Outcome struct {
	// Comment is the comment this outcome belongs to.
	Comment github.Comment
	// Changed reports whether the agent committed a change for this comment.
	Changed bool
	// CommitID is the commit created for this comment, set only when Changed.
	CommitID string
	// Note is a short human-readable description of what happened.
	Note string
	// Err is set when processing this comment failed.
	Err error
}

// Errored reports whether the comment reached the failed terminal state.
func (o Outcome) Errored() bool {
	return o.Err != nil
}

// Summary aggregates the terminal states of one run.
type Summary struct {
	// Total is the number of comments processed.
	Total int
	// Changed counts comments that produced a commit.
	Changed int
	// Unchanged counts comments the agent decided not to act on.
	Unchanged int
	// Errored counts comments whose processing failed.
	Errored int
	// Elapsed is the wall time of the whole run.
	Elapsed time.Duration
}

// Hooks are optional progress callbacks invoked around each comment.
type Hooks struct {
	// BeforeComment runs before a comment is handed to the agent.
	BeforeComment func(index, total int, c github.Comment)
	// AfterComment runs after the comment reached a terminal state.
	AfterComment func(index, total int, c github.Comment, o Outcome)
}

// Processor runs the sequential comment-processing pipeline.
type Processor struct {
	repo    Repository
	invoker agent.Invoker
	logger  *slog.Logger
}

// New constructs a Processor bound to a repository handle and an agent invoker.
func New(repo Repository, invoker agent.Invoker, logger *slog.Logger) *Processor {
	return &Processor{
		repo:    repo,
		invoker: invoker,
		logger:  logger,
	}
}

// ProcessOne runs the state machine for a single comment: snapshot HEAD,
// invoke the agent once, re-read HEAD, and classify.
func (p *Processor) ProcessOne(ctx context.Context, ref github.PRRef, c github.Comment) Outcome {
	headBefore, err := p.repo.HeadCommit(ctx)
	if err != nil {
		return Outcome{Comment: c, Err: fmt.Errorf("read HEAD before invocation: %w", err)}
	}

	task, err := prompt.BuildCommentTask(ref, c)
	if err != nil {
		return Outcome{Comment: c, Err: fmt.Errorf("build task prompt: %w", err)}
	}

	transcript, err := p.invoker.Invoke(ctx, task, p.repo.Dir())
	if err != nil {
		return Outcome{Comment: c, Err: err}
	}

	headAfter, err := p.repo.HeadCommit(ctx)
	if err != nil {
		return Outcome{Comment: c, Err: fmt.Errorf("read HEAD after invocation: %w", err)}
	}

	signal := agent.ParseSignal(transcript.Stdout)
	if p.logger != nil {
		p.logger.Debug("agent invocation finished",
			"comment", c.ID,
			"signal", signal.String(),
			"head_moved", headAfter != headBefore,
		)
	}

	switch signal {
	case agent.SignalChangesMade:
		if headAfter == headBefore {
			return Outcome{Comment: c, Err: ErrCommitNotFound}
		}
		return Outcome{
			Comment:  c,
			Changed:  true,
			CommitID: headAfter,
			Note:     "changes made and committed",
		}
	case agent.SignalNoChangesNeeded:
		if headAfter != headBefore {
			return Outcome{Comment: c, Err: fmt.Errorf("%w: commit %s", ErrStrayCommit, headAfter)}
		}
		return Outcome{
			Comment: c,
			Note:    "no changes needed",
		}
	default:
		return Outcome{Comment: c, Err: ErrNoResultMarker}
	}
}

// ProcessAll drives the per-comment state machine strictly in input order.
// A failing comment is recorded and the run continues with the next one; a
// cancelled context stops the run after the in-flight comment is recorded.
func (p *Processor) ProcessAll(ctx context.Context, ref github.PRRef, comments []github.Comment, hooks Hooks) ([]Outcome, Summary) {
	start := time.Now()
	total := len(comments)
	outcomes := make([]Outcome, 0, total)

	for i, c := range comments {
		if hooks.BeforeComment != nil {
			hooks.BeforeComment(i, total, c)
		}

		outcome := p.ProcessOne(ctx, ref, c)
		outcomes = append(outcomes, outcome)

		if hooks.AfterComment != nil {
			hooks.AfterComment(i, total, c, outcome)
		}

		if outcome.Errored() && p.logger != nil {
			p.logger.Warn("comment processing failed; continuing with next comment",
				"comment", c.ID,
				"error", outcome.Err,
			)
		}

		if ctx.Err() != nil {
			break
		}
	}

	summary := Summarize(outcomes)
	summary.Elapsed = time.Since(start)
	return outcomes, summary
}

// Summarize aggregates outcome terminal states into run counts.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Errored():
			s.Errored++
		case o.Changed:
			s.Changed++
		default:
			s.Unchanged++
		}
	}
	return s
}
