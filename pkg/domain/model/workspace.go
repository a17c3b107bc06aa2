package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// WorkspacePackage is a member package discovered in a monorepo workspace
type WorkspacePackage struct {
	Name         string
	Version      string
	Path         string            // manifest path relative to workspace root
	Dependencies map[string]string // declared dependency name -> version range
}

// PackageRelationship is a typed edge between two workspace packages.
// Version-consistency edges are recorded whether or not the declared ranges
// already agree; the edge signals "consider these together".
type PackageRelationship struct {
	From       string
	To         string
	Type       types.RelationshipType
	Dependency string // dependency name driving the edge
}

// WorkspaceAnalysis is the multi-package analyzer's result
type WorkspaceAnalysis struct {
	Packages         []WorkspacePackage
	AffectedPackages []string
	Relationships    []PackageRelationship
	RiskLevel        types.RiskLevel
	Strategy         types.ChangesetStrategy
	SplitRecommended bool
	Recommendations  []string
}

// HasWorkspace reports whether a multi-package workspace was discovered
func (a *WorkspaceAnalysis) HasWorkspace() bool {
	return len(a.Packages) > 1
}
