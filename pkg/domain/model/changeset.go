package model

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// Changeset is one changelog fragment ready to be persisted
type Changeset struct {
	ID          string // fragment identifier, used as file name stem
	ReleaseUnit string // release unit (package) the bump applies to
	BumpType    types.BumpType
	Summary     string // rendered Markdown body
}

// Render produces the front-matter fragment document consumed by the
// release tooling
func (c *Changeset) Render() string {
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "%q: %s\n", c.ReleaseUnit, c.BumpType)
	sb.WriteString("---\n\n")
	sb.WriteString(c.Summary)
	sb.WriteString("\n")
	return sb.String()
}

// ProcessResult is the structured output of one PR processing invocation
type ProcessResult struct {
	Changesets []Changeset
	FilePaths  []string
	Decision   *BumpDecision
	Comment    string // rendered PR comment body, empty when commenting disabled
	DryRun     bool
}
