package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// DependencyImpact holds the per-dependency facts derived by the semver assessor
type DependencyImpact struct {
	Name           string
	CurrentVersion string
	NewVersion     string
	SemverImpact   types.BumpType
	IsBreaking     bool
	IsDowngrade    bool
	IsPrerelease   bool
	Confidence     types.Confidence
	Reasons        []string
}

// ImpactAssessment aggregates all per-dependency impacts for a PR.
// Exactly one impact exists per input dependency, addressable by name.
type ImpactAssessment struct {
	Impacts map[string]DependencyImpact

	OverallImpact      types.BumpType
	RecommendedType    types.BumpType
	HasSecurityUpdates bool
	HasBreakingChanges bool
	HasDowngrades      bool
	HasPrereleases     bool
	Confidence         types.Confidence
	VulnerabilityCount int
	HighSeverityCount  int
	RiskScore          float64 // 0-100
}

// Impact looks up the impact for a dependency name
func (a *ImpactAssessment) Impact(name string) (DependencyImpact, bool) {
	impact, ok := a.Impacts[name]
	return impact, ok
}
