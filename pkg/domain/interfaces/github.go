package interfaces

import (
	"context"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

// GitHubClient defines operations for interacting with the GitHub API
type GitHubClient interface {
	// GetPullRequest fetches PR metadata
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*model.PullRequestMeta, error)

	// ListChangedFiles lists the files touched by a PR
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFile, error)

	// ListCommitMessages lists the commit messages of a PR
	ListCommitMessages(ctx context.Context, owner, repo string, number int) ([]string, error)

	// GetFileContent fetches a file's content at a given ref. A missing file
	// returns an empty string without error.
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)

	// CreateComment creates a comment on a pull request
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
}
