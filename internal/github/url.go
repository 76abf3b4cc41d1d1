// Package github provides PR reference parsing and comment retrieval via the GitHub CLI.
package github

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// PRRef identifies a pull request by owner, repository and number.
type PRRef struct {
	// Owner is the repository owner login.
	Owner string
	// Repo is the repository name.
	Repo string
	// Number is the positive pull request number.
	Number int
}

// String renders the reference as owner/repo#number.
func (r PRRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// Slug returns the owner/repo pair as used by the gh CLI --repo flag.
func (r PRRef) Slug() string {
	return r.Owner + "/" + r.Repo
}

// URL reconstructs the canonical PR URL.
func (r PRRef) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", r.Owner, r.Repo, r.Number)
}

// InvalidURLError indicates that a string could not be parsed as a GitHub PR URL.
type InvalidURLError struct {
	// URL is the input that failed to parse.
	URL string
	// Reason describes why parsing failed.
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid GitHub PR URL %q: %s", e.URL, e.Reason)
}

// prPathPattern matches owner/repo/pull/<digits> with optional trailing segments
// such as /files or /commits.
var prPathPattern = regexp.MustCompile(`^([^/]+)/([^/]+)/pull/(\d+)(?:/.*)?$`)

// ParsePRURL extracts a PRRef from a GitHub pull request URL.
// Accepted forms include https://github.com/owner/repo/pull/123 with optional
// www prefix, trailing path segments, query string or fragment, the http
// variant, and the scheme-less github.com/owner/repo/pull/123 form.
// Anything else fails with *InvalidURLError.
func ParsePRURL(raw string) (PRRef, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PRRef{}, &InvalidURLError{URL: raw, Reason: "URL is empty"}
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		if !strings.HasPrefix(trimmed, "github.com/") && !strings.HasPrefix(trimmed, "www.github.com/") {
			return PRRef{}, &InvalidURLError{URL: raw, Reason: "not a github.com URL"}
		}
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return PRRef{}, &InvalidURLError{URL: raw, Reason: "malformed URL"}
	}

	host := strings.ToLower(parsed.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return PRRef{}, &InvalidURLError{URL: raw, Reason: fmt.Sprintf("host %q is not github.com", parsed.Hostname())}
	}

	path := strings.Trim(parsed.Path, "/")
	match := prPathPattern.FindStringSubmatch(path)
	if match == nil {
		return PRRef{}, &InvalidURLError{URL: raw, Reason: "path does not match owner/repo/pull/<number>"}
	}

	number, err := strconv.Atoi(match[3])
	if err != nil || number <= 0 {
		return PRRef{}, &InvalidURLError{URL: raw, Reason: fmt.Sprintf("PR number %q is not a positive integer", match[3])}
	}

	return PRRef{
		Owner:  match[1],
		Repo:   match[2],
		Number: number,
	}, nil
}
