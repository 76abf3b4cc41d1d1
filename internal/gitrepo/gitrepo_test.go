package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prfix/prfix/internal/github"
)

var testRef = github.PRRef{Owner: "Owner", Repo: "Repo", Number: 42}

// scriptedRepo returns a Repo whose runner answers each command via script,
// keyed by the joined argument list.
func scriptedRepo(script func(name string, args []string) ([]byte, error)) *Repo {
	return &Repo{
		dir: "/work/repo",
		run: func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
			return script(name, args)
		},
	}
}

func TestParseRemoteSlugs(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name: "https remote",
			output: "origin\thttps://github.com/Owner/Repo.git (fetch)\n" +
				"origin\thttps://github.com/Owner/Repo.git (push)\n",
			want: []string{"owner/repo"},
		},
		{
			name:   "https without dot-git",
			output: "origin\thttps://github.com/owner/repo (fetch)\n",
			want:   []string{"owner/repo"},
		},
		{
			name:   "scp-like ssh remote",
			output: "origin\tgit@github.com:Owner/Repo.git (fetch)\n",
			want:   []string{"owner/repo"},
		},
		{
			name:   "ssh protocol remote",
			output: "origin\tssh://git@github.com/Owner/Repo.git (fetch)\n",
			want:   []string{"owner/repo"},
		},
		{
			name: "multiple distinct remotes sorted",
			output: "upstream\thttps://github.com/Other/Thing.git (fetch)\n" +
				"origin\tgit@github.com:owner/repo.git (fetch)\n",
			want: []string{"other/thing", "owner/repo"},
		},
		{
			name:   "non-github remote ignored",
			output: "origin\thttps://gitlab.com/owner/repo.git (fetch)\n",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRemoteSlugs(tt.output))
		})
	}
}

func TestValidateRepository(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		return []byte("origin\tgit@github.com:owner/repo.git (fetch)\n"), nil
	})
	require.NoError(t, repo.ValidateRepository(context.Background(), testRef))
}

func TestValidateRepositoryMismatch(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		return []byte("origin\thttps://github.com/someone/else.git (fetch)\n"), nil
	})

	err := repo.ValidateRepository(context.Background(), testRef)
	require.Error(t, err)
	require.True(t, IsMismatchError(err))

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "Owner/Repo", mismatch.Expected)
	assert.Equal(t, []string{"someone/else"}, mismatch.Found)
}

func TestValidateRepositoryNoRemotes(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		return []byte("\n"), nil
	})
	err := repo.ValidateRepository(context.Background(), testRef)
	require.Error(t, err)
	assert.False(t, IsMismatchError(err))
}

func TestRequireCleanOnCleanTree(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		return []byte(""), nil
	})
	require.NoError(t, repo.RequireClean(context.Background()))
}

func TestRequireCleanDirtyPreview(t *testing.T) {
	var status strings.Builder
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&status, " M file%d.go\n", i)
	}
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		return []byte(status.String()), nil
	})

	err := repo.RequireClean(context.Background())
	require.True(t, IsDirtyError(err))

	var dirty *DirtyError
	require.ErrorAs(t, err, &dirty)
	assert.Equal(t, 8, dirty.Total)
	assert.Equal(t, []string{"file1.go", "file2.go", "file3.go", "file4.go", "file5.go"}, dirty.Paths)
	assert.Contains(t, err.Error(), "... and 3 more")
	assert.Contains(t, err.Error(), "git stash")
}

func TestParseStatusPaths(t *testing.T) {
	output := " M modified.go\n?? untracked.txt\nA  added.go\n\n"
	assert.Equal(t, []string{"modified.go", "untracked.txt", "added.go"}, parseStatusPaths(output))
}

func TestResolveBranch(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		require.Equal(t, "gh", name)
		assert.Equal(t, []string{"pr", "view", "42", "--repo", "Owner/Repo", "--json", "headRefName"}, args)
		return []byte(`{"headRefName": "fix/widget"}`), nil
	})

	branch, err := repo.ResolveBranch(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, "fix/widget", branch)
}

func TestResolveBranchEmpty(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		return []byte(`{"headRefName": ""}`), nil
	})
	_, err := repo.ResolveBranch(context.Background(), testRef)
	require.Error(t, err)
}

func TestCheckoutFallbackChain(t *testing.T) {
	t.Run("plain checkout succeeds", func(t *testing.T) {
		var calls [][]string
		repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
			calls = append(calls, args)
			return nil, nil
		})

		require.NoError(t, repo.Checkout(context.Background(), "fix/widget"))
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"checkout", "fix/widget"}, calls[0])
	})

	t.Run("falls back to tracking checkout", func(t *testing.T) {
		var calls [][]string
		repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
			calls = append(calls, args)
			if len(calls) == 1 {
				return nil, errors.New("pathspec did not match")
			}
			return nil, nil
		})

		require.NoError(t, repo.Checkout(context.Background(), "fix/widget"))
		require.Len(t, calls, 2)
		assert.Equal(t, []string{"checkout", "-b", "fix/widget", "origin/fix/widget"}, calls[1])
	})

	t.Run("fetches then tracks", func(t *testing.T) {
		var calls [][]string
		repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
			calls = append(calls, args)
			if len(calls) <= 2 {
				return nil, errors.New("unknown revision")
			}
			return nil, nil
		})

		require.NoError(t, repo.Checkout(context.Background(), "fix/widget"))
		require.Len(t, calls, 4)
		assert.Equal(t, []string{"fetch", "origin", "fix/widget"}, calls[2])
		assert.Equal(t, []string{"checkout", "-b", "fix/widget", "origin/fix/widget"}, calls[3])
	})

	t.Run("all strategies fail", func(t *testing.T) {
		repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
			return nil, errors.New("remote branch gone")
		})

		err := repo.Checkout(context.Background(), "fix/widget")
		var checkout *CheckoutError
		require.ErrorAs(t, err, &checkout)
		assert.Equal(t, "fix/widget", checkout.Branch)
		assert.Contains(t, checkout.Detail, "remote branch gone")
	})
}

func TestHeadCommit(t *testing.T) {
	repo := scriptedRepo(func(name string, args []string) ([]byte, error) {
		assert.Equal(t, []string{"rev-parse", "HEAD"}, args)
		return []byte("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2\n"), nil
	})

	head, err := repo.HeadCommit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", head)
}
