package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// CommitInfo is the result of parsing a single commit message.
// Non-conventional messages fall back to an opaque chore description.
type CommitInfo struct {
	Type        string
	Scope       string
	Description string
	Body        string
	IsBreaking  bool
}

// ChangedFile is one file touched by the PR
type ChangedFile struct {
	Filename  string
	Status    string
	Additions int
	Deletions int
}

// PullRequestMeta is the raw PR metadata fetched from the hosting API
type PullRequestMeta struct {
	Owner   string
	Repo    string
	Number  int
	Title   string
	Body    string
	HeadRef string
	BaseRef string
	Author  string
}

// PRContext aggregates everything extracted from a pull request.
// Built once per invocation and read-only thereafter.
type PRContext struct {
	Dependencies   []DependencyChange
	IsRenovateBot  bool
	BranchType     types.BranchType
	BranchName     string
	Title          string
	Body           string
	Author         string
	CommitMessages []string
	Commits        []CommitInfo
	ChangedFiles   []ChangedFile

	Manager          types.Manager
	IsGroupedUpdate  bool
	IsSecurityUpdate bool
	SecuritySeverity types.Severity
	UpdateType       types.BumpType
}

// DependencyNames returns the names of all extracted dependencies in order
func (c *PRContext) DependencyNames() []string {
	names := make([]string, 0, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		names = append(names, dep.Name)
	}
	return names
}
