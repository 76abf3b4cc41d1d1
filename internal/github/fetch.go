package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// runner executes an external command and returns its stdout.
// It exists so tests can substitute the gh CLI with canned output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
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

// Fetcher retrieves PR comments of all categories using the gh CLI.
type Fetcher struct {
	logger *slog.Logger
	run    runner
}

// NewFetcher constructs a Fetcher that shells out to gh.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		logger: logger,
		run:    execRunner,
	}
}

// FetchAll retrieves every comment category for the PR and concatenates the
// results in fixed order: discussion comments, review summaries, inline
// comments. A failure in any category fails the whole fetch; partial comment
// sets are never returned.
func (f *Fetcher) FetchAll(ctx context.Context, ref PRRef) ([]Comment, error) {
	discussion, err := f.FetchDiscussion(ctx, ref)
	if err != nil {
		return nil, err
	}
	reviews, err := f.FetchReviewSummaries(ctx, ref)
	if err != nil {
		return nil, err
	}
	inline, err := f.FetchInline(ctx, ref)
	if err != nil {
		return nil, err
	}

	out := make([]Comment, 0, len(discussion)+len(reviews)+len(inline))
	out = append(out, discussion...)
	out = append(out, reviews...)
	out = append(out, inline...)

	if f.logger != nil {
		f.logger.Debug("fetched PR comments",
			"pr", ref.String(),
			"discussion", len(discussion),
			"reviews", len(reviews),
			"inline", len(inline),
		)
	}
	return out, nil
}

// FetchDiscussion retrieves general conversation-thread comments for the PR.
func (f *Fetcher) FetchDiscussion(ctx context.Context, ref PRRef) ([]Comment, error) {
	args := []string{
		"pr", "view", strconv.Itoa(ref.Number),
		"--repo", ref.Slug(),
		"--json", "comments",
	}

	raw, err := f.run(ctx, "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("fetch discussion comments for %s: %w", ref, err)
	}

	var resp discussionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode discussion comments for %s: %w", ref, err)
	}

	out := make([]Comment, 0, len(resp.Comments))
	for _, node := range resp.Comments {
		out = append(out, Comment{
			Kind:      KindDiscussion,
			ID:        node.ID,
			Author:    node.Author.Login,
			Body:      node.Body,
			CreatedAt: node.CreatedAt,
		})
	}
	return out, nil
}

// FetchReviewSummaries retrieves review summary comments for the PR.
// Reviews with empty bodies are filtered out entirely.
func (f *Fetcher) FetchReviewSummaries(ctx context.Context, ref PRRef) ([]Comment, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d/reviews", ref.Owner, ref.Repo, ref.Number)

	raw, err := f.run(ctx, "gh", "api", endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch review summaries for %s: %w", ref, err)
	}

	var reviews []reviewNode
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return nil, fmt.Errorf("decode review summaries for %s: %w", ref, err)
	}

	var out []Comment
	for _, node := range reviews {
		if strings.TrimSpace(node.Body) == "" {
			continue
		}
		out = append(out, Comment{
			Kind:      KindReview,
			ID:        strconv.FormatInt(node.ID, 10),
			Author:    node.User.Login,
			Body:      node.Body,
			CreatedAt: node.SubmittedAt,
			State:     node.State,
		})
	}
	return out, nil
}

// inlineCommentsQuery retrieves inline review comments along with the
// resolution state of their threads.
const inlineCommentsQuery = `query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      reviewThreads(first: 100) {
        nodes {
          isResolved
          comments(first: 100) {
            nodes {
              databaseId
              author { login }
              body
              path
              line
              originalLine
              createdAt
            }
          }
        }
      }
    }
  }
}`

// FetchInline retrieves inline code comments from unresolved review threads.
// A comment's line number falls back to the original line when the live line
// is no longer reported (the code has since changed).
func (f *Fetcher) FetchInline(ctx context.Context, ref PRRef) ([]Comment, error) {
	args := []string{
		"api", "graphql",
		"-f", "query=" + inlineCommentsQuery,
		"-f", "owner=" + ref.Owner,
		"-f", "repo=" + ref.Repo,
		"-F", "number=" + strconv.Itoa(ref.Number),
	}

	raw, err := f.run(ctx, "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("fetch inline comments for %s: %w", ref, err)
	}

	var resp reviewThreadsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode inline comments for %s: %w", ref, err)
	}

	var out []Comment
	for _, thread := range resp.Data.Repository.PullRequest.ReviewThreads.Nodes {
		if thread.IsResolved {
			continue
		}
		for _, node := range thread.Comments.Nodes {
			out = append(out, Comment{
				Kind:         KindInline,
				ID:           strconv.FormatInt(node.DatabaseID, 10),
				Author:       node.Author.Login,
				Body:         node.Body,
				CreatedAt:    node.CreatedAt,
				Path:         node.Path,
				Line:         node.Line,
				OriginalLine: node.OriginalLine,
			})
		}
	}
	return out, nil
}

type discussionResponse struct {
	Comments []struct {
		ID     string `json:"id"`
		Author struct {
			Login string `json:"login"`
		} `json:"author"`
		Body      string `json:"body"`
		CreatedAt string `json:"createdAt"`
	} `json:"comments"`
}

type reviewNode struct {
	ID   int64 `json:"id"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
	Body        string `json:"body"`
	State       string `json:"state"`
	SubmittedAt string `json:"submitted_at"`
}

type reviewThreadsResponse struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					Nodes []struct {
						IsResolved bool `json:"isResolved"`
						Comments   struct {
							Nodes []struct {
								DatabaseID int64 `json:"databaseId"`
								Author     struct {
									Login string `json:"login"`
								} `json:"author"`
								Body         string `json:"body"`
								Path         string `json:"path"`
								Line         int    `json:"line"`
								OriginalLine int    `json:"originalLine"`
								CreatedAt    string `json:"createdAt"`
							} `json:"nodes"`
						} `json:"comments"`
					} `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
}
