// Package gitrepo provides low-level integration with the local repository via git and the gh CLI.
package gitrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/prfix/prfix/internal/github"
)

// runner executes an external command in a directory and returns its stdout.
type runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%s %s failed: %w: %s", name, strings.Join(args, " "), err, detail)
		}
		return nil, fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

// Repo wraps git and gh execution against a single working directory.
type Repo struct {
	dir    string
	logger *slog.Logger
	run    runner
}

// New constructs a Repo handle for the given working directory.
func New(dir string, logger *slog.Logger) *Repo {
	return &Repo{
		dir:    dir,
		logger: logger,
		run:    execRunner,
	}
}

// Dir returns the working directory the handle is bound to.
func (r *Repo) Dir() string {
	return r.dir
}

// MismatchError indicates that no configured remote matches the PR's repository.
type MismatchError struct {
	// Expected is the owner/repo slug the PR belongs to.
	Expected string
	// Found lists the owner/repo slugs of the configured remotes.
	Found []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf(
		"repository mismatch: PR belongs to %q but remotes point to: %s; run prfix from the matching repository",
		e.Expected, strings.Join(e.Found, ", "),
	)
}

// IsMismatchError reports whether err indicates a repository mismatch.
func IsMismatchError(err error) bool {
	var target *MismatchError
	return errors.As(err, &target)
}

// DirtyError indicates uncommitted changes that would be lost during checkout.
type DirtyError struct {
	// Paths is a preview of changed file paths, at most previewLimit entries.
	Paths []string
	// Total is the full count of changed paths.
	Total int
}

const previewLimit = 5

func (e *DirtyError) Error() string {
	preview := strings.Join(e.Paths, "\n  ")
	if e.Total > len(e.Paths) {
		preview += fmt.Sprintf("\n  ... and %d more", e.Total-len(e.Paths))
	}
	return fmt.Sprintf(
		"uncommitted changes would be lost during checkout:\n  %s\ncommit or stash them first (git stash / git stash pop)",
		preview,
	)
}

// IsDirtyError reports whether err indicates a dirty working directory.
func IsDirtyError(err error) bool {
	var target *DirtyError
	return errors.As(err, &target)
}

// CheckoutError indicates that a branch could not be checked out by any strategy.
type CheckoutError struct {
	// Branch is the branch that failed to check out.
	Branch string
	// Detail is the diagnostic text from the last attempted git command.
	Detail string
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout branch %q failed: %s", e.Branch, e.Detail)
}

// remotePatterns extract owner/repo from the remote URL forms GitHub issues:
// HTTPS, scp-like SSH, and ssh:// protocol URLs.
var remotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://(?:www\.)?github\.com/([^/\s]+)/([^/\s]+?)(?:\.git)?(?:\s|$)`),
	regexp.MustCompile(`(?i)git@github\.com:([^/\s]+)/([^/\s]+?)(?:\.git)?(?:\s|$)`),
	regexp.MustCompile(`(?i)ssh://git@github\.com/([^/\s]+)/([^/\s]+?)(?:\.git)?(?:\s|$)`),
}

// parseRemoteSlugs extracts the distinct lowercase owner/repo slugs from
// git remote -v output.
func parseRemoteSlugs(output string) []string {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(output, "\n") {
		for _, pattern := range remotePatterns {
			match := pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			slug := strings.ToLower(match[1]) + "/" + strings.ToLower(match[2])
			seen[slug] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for slug := range seen {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// ValidateRepository checks that at least one configured remote of the working
// directory points at the PR's repository, comparing slugs case-insensitively.
func (r *Repo) ValidateRepository(ctx context.Context, ref github.PRRef) error {
	raw, err := r.run(ctx, r.dir, "git", "remote", "-v")
	if err != nil {
		return fmt.Errorf("list git remotes (is %q a git repository?): %w", r.dir, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return fmt.Errorf("no git remotes configured in %q", r.dir)
	}

	found := parseRemoteSlugs(string(raw))
	if len(found) == 0 {
		return fmt.Errorf("no GitHub remote URLs recognized in %q", r.dir)
	}

	expected := strings.ToLower(ref.Slug())
	for _, slug := range found {
		if slug == expected {
			return nil
		}
	}
	return &MismatchError{Expected: ref.Slug(), Found: found}
}

// RequireClean fails with *DirtyError when the working directory has any
// tracked or untracked change.
func (r *Repo) RequireClean(ctx context.Context) error {
	raw, err := r.run(ctx, r.dir, "git", "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("check git status: %w", err)
	}

	paths := parseStatusPaths(string(raw))
	if len(paths) == 0 {
		return nil
	}

	preview := paths
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	return &DirtyError{Paths: preview, Total: len(paths)}
}

// parseStatusPaths extracts file paths from git status --porcelain output.
func parseStatusPaths(output string) []string {
	var paths []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Lines are "XY path"; take everything after the status columns.
		if len(line) > 3 {
			paths = append(paths, strings.TrimSpace(line[3:]))
		} else {
			paths = append(paths, strings.TrimSpace(line))
		}
	}
	return paths
}

// ResolveBranch obtains the PR's head branch name via the gh CLI.
func (r *Repo) ResolveBranch(ctx context.Context, ref github.PRRef) (string, error) {
	args := []string{
		"pr", "view", strconv.Itoa(ref.Number),
		"--repo", ref.Slug(),
		"--json", "headRefName",
	}

	raw, err := r.run(ctx, r.dir, "gh", args...)
	if err != nil {
		return "", fmt.Errorf("resolve head branch for %s: %w", ref, err)
	}

	var info struct {
		HeadRefName string `json:"headRefName"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return "", fmt.Errorf("decode gh pr view output for %s: %w", ref, err)
	}

	branch := strings.TrimSpace(info.HeadRefName)
	if branch == "" {
		return "", fmt.Errorf("no head branch reported for %s", ref)
	}
	return branch, nil
}

// Checkout checks out the given branch, preferring in order: an existing local
// branch, an existing remote-tracking branch, and finally a fetch followed by
// a tracking checkout. When all strategies fail it returns *CheckoutError with
// the last git diagnostic.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	if _, err := r.run(ctx, r.dir, "git", "checkout", branch); err == nil {
		return nil
	}

	trackArgs := []string{"checkout", "-b", branch, "origin/" + branch}
	if _, err := r.run(ctx, r.dir, "git", trackArgs...); err == nil {
		return nil
	}

	if _, err := r.run(ctx, r.dir, "git", "fetch", "origin", branch); err != nil {
		return &CheckoutError{Branch: branch, Detail: err.Error()}
	}
	if _, err := r.run(ctx, r.dir, "git", trackArgs...); err != nil {
		return &CheckoutError{Branch: branch, Detail: err.Error()}
	}

	if r.logger != nil {
		r.logger.Debug("checked out branch after fetch", "branch", branch)
	}
	return nil
}

// CurrentBranch returns the name of the currently checked out branch.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	raw, err := r.run(ctx, r.dir, "git", "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// HeadCommit returns the commit identifier the repository HEAD points at.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	raw, err := r.run(ctx, r.dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD commit: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
