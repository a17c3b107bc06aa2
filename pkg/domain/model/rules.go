package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// ManagerRule customizes decision/categorization behavior per package manager
type ManagerRule struct {
	MaxBumpType    types.BumpType                    `yaml:"maxBumpType,omitempty"`
	MajorAsMinor   bool                              `yaml:"majorAsMinor,omitempty"`
	CategoryRemap  map[types.Category]types.Category `yaml:"categoryRemap,omitempty"`
	RiskAdjustment float64                           `yaml:"riskAdjustment,omitempty"` // multiplier, 1.0 = neutral
	Template       string                            `yaml:"template,omitempty"`
}

// DependencyRule caps the bump type for dependencies matching a name pattern
type DependencyRule struct {
	Pattern     string         `yaml:"pattern"` // regular expression matched against the name
	MaxBumpType types.BumpType `yaml:"maxBumpType"`
}

// OrganizationRules holds org-wide decision policy
type OrganizationRules struct {
	Conservative    bool             `yaml:"conservative,omitempty"` // downgrade major to minor
	DependencyRules []DependencyRule `yaml:"dependencyRules,omitempty"`
}

// RiskThresholds force bump upgrades when the aggregate risk score is high
type RiskThresholds struct {
	Major float64 `yaml:"major"`
	Minor float64 `yaml:"minor"`
}

// SummaryRules configures the Markdown summary generator
type SummaryRules struct {
	IncludeVersionDetails   bool   `yaml:"includeVersionDetails"`
	MaxDependenciesToList   int    `yaml:"maxDependenciesToList"`
	SortDependencies        bool   `yaml:"sortDependencies"`
	SuppressBreakingWarning bool   `yaml:"suppressBreakingWarning,omitempty"`
	Template                string `yaml:"template,omitempty"`
}

// WorkspaceRules configures workspace discovery
type WorkspaceRules struct {
	Root                 string `yaml:"root,omitempty"`
	MaxPackagesToAnalyze int    `yaml:"maxPackagesToAnalyze"`
}

// RulesConfig is the optional YAML configuration blob. Absent fields use the
// defaults from DefaultRules.
type RulesConfig struct {
	DefaultBumpType           types.BumpType                   `yaml:"defaultBumpType"`
	SecurityPrecedence        bool                             `yaml:"securityPrecedence"`
	SecurityMinimumBump       map[types.Severity]types.BumpType `yaml:"securityMinimumBump,omitempty"`
	BreakingChangeRule        bool                             `yaml:"breakingChangeRule"`
	ManagerRules              map[types.Manager]ManagerRule    `yaml:"managerRules,omitempty"`
	Organization              OrganizationRules                `yaml:"organization,omitempty"`
	RiskThresholds            RiskThresholds                   `yaml:"riskThresholds"`
	GroupedHandling           types.GroupedHandling            `yaml:"groupedUpdateHandling"`
	PrereleaseAsLowerPriority bool                             `yaml:"prereleaseAsLowerPriority"`
	BranchPrefixes            []string                         `yaml:"branchPrefixes,omitempty"`
	Summary                   SummaryRules                     `yaml:"summary"`
	Workspace                 WorkspaceRules                   `yaml:"workspace"`
}

// DefaultRules returns the built-in configuration used when no rules file is given
func DefaultRules() *RulesConfig {
	return &RulesConfig{
		DefaultBumpType:    types.BumpPatch,
		SecurityPrecedence: true,
		SecurityMinimumBump: map[types.Severity]types.BumpType{
			types.SeverityCritical: types.BumpMajor,
			types.SeverityHigh:     types.BumpMinor,
			types.SeverityModerate: types.BumpPatch,
			types.SeverityLow:      types.BumpPatch,
		},
		BreakingChangeRule: true,
		RiskThresholds: RiskThresholds{
			Major: 80,
			Minor: 50,
		},
		GroupedHandling:           types.GroupedConservative,
		PrereleaseAsLowerPriority: true,
		Summary: SummaryRules{
			IncludeVersionDetails: true,
			MaxDependenciesToList: 10,
			SortDependencies:      false,
		},
		Workspace: WorkspaceRules{
			MaxPackagesToAnalyze: 50,
		},
	}
}
