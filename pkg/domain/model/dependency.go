package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// DependencyChange represents a single dependency update extracted from a PR.
// Instances are immutable once produced by extraction.
type DependencyChange struct {
	Name             string
	Scope            string // npm scope without the leading "@", empty otherwise
	CurrentVersion   string
	NewVersion       string
	Manager          types.Manager
	UpdateType       types.BumpType
	IsSecurityUpdate bool
	SecuritySeverity types.Severity
	IsGroupedUpdate  bool
	GroupName        string
	SourceFile       string // file the change was detected in, if any
}

// Key identifies a change for deduplication within one source file
func (d *DependencyChange) Key() string {
	return d.Name + "|" + d.CurrentVersion + "|" + d.NewVersion + "|" + d.SourceFile
}
