package github

import (
	"context"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bellwether/pkg/domain/interfaces"
	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

type client struct {
	githubClient *github.Client
}

// NewClient creates a GitHub client authenticated with a personal access
// token (the GitHub Actions invocation path)
func NewClient(token string) interfaces.GitHubClient {
	return &client{
		githubClient: github.NewClient(nil).WithAuthToken(token),
	}
}

// NewAppClient creates a GitHub client with App installation authentication
// (the webhook server path)
func NewAppClient(appID, installationID int64, privateKey []byte) (interfaces.GitHubClient, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	return &client{
		githubClient: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// GetPullRequest fetches PR metadata
func (c *client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*model.PullRequestMeta, error) {
	pr, _, err := c.githubClient.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get pull request",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("number", number))
	}

	return &model.PullRequestMeta{
		Owner:   owner,
		Repo:    repo,
		Number:  number,
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		HeadRef: pr.GetHead().GetRef(),
		BaseRef: pr.GetBase().GetRef(),
		Author:  pr.GetUser().GetLogin(),
	}, nil
}

// ListChangedFiles lists the files touched by a PR across all pages
func (c *client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFile, error) {
	var files []model.ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		page, resp, err := c.githubClient.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list PR files",
				goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("number", number))
		}
		for _, file := range page {
			files = append(files, model.ChangedFile{
				Filename:  file.GetFilename(),
				Status:    file.GetStatus(),
				Additions: file.GetAdditions(),
				Deletions: file.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// ListCommitMessages lists the commit messages of a PR
func (c *client) ListCommitMessages(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var messages []string
	opts := &github.ListOptions{PerPage: 100}

	for {
		page, resp, err := c.githubClient.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list PR commits",
				goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("number", number))
		}
		for _, commit := range page {
			messages = append(messages, commit.GetCommit().GetMessage())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return messages, nil
}

// GetFileContent fetches a file's content at a given ref. A missing file is
// an empty string, not an error: the pipeline diffs file pairs where one
// side may not exist yet.
func (c *client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	content, _, resp, err := c.githubClient.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to get file content",
			goerr.V("path", path), goerr.V("ref", ref))
	}
	if content == nil {
		return "", nil
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", goerr.Wrap(err, "failed to decode file content", goerr.V("path", path))
	}
	return decoded, nil
}

// CreateComment creates a comment on a pull request
func (c *client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.githubClient.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create comment",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("number", number))
	}
	return nil
}
