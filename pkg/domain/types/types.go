package types

// Version is the application version, overridden at build time via ldflags
var Version = "dev"

// BumpType is a semantic versioning increment
type BumpType string

const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
	BumpNone  BumpType = "none"
)

// Rank returns the ordering of a bump type for comparisons (major > minor > patch > none)
func (b BumpType) Rank() int {
	switch b {
	case BumpMajor:
		return 3
	case BumpMinor:
		return 2
	case BumpPatch:
		return 1
	default:
		return 0
	}
}

// Max returns the higher-severity of two bump types
func (b BumpType) Max(other BumpType) BumpType {
	if other.Rank() > b.Rank() {
		return other
	}
	return b
}

// Min returns the lower-severity of two bump types
func (b BumpType) Min(other BumpType) BumpType {
	if other.Rank() < b.Rank() {
		return other
	}
	return b
}

// Severity is a security severity level
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering of a severity (critical > high > moderate > low)
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// SecurityAction is the recommended handling for a security update
type SecurityAction string

const (
	ActionProceed        SecurityAction = "proceed"
	ActionInvestigate    SecurityAction = "investigate"
	ActionReviewRequired SecurityAction = "review_required"
	ActionBlock          SecurityAction = "block_until_patched"
	ActionImmediate      SecurityAction = "immediate_update"
)

// Rank returns action strength (immediate > block > review > investigate > proceed)
func (a SecurityAction) Rank() int {
	switch a {
	case ActionImmediate:
		return 4
	case ActionBlock:
		return 3
	case ActionReviewRequired:
		return 2
	case ActionInvestigate:
		return 1
	default:
		return 0
	}
}

// Category is the resolved change category for a dependency
type Category string

const (
	CategorySecurity Category = "security"
	CategoryMajor    Category = "major"
	CategoryMinor    Category = "minor"
	CategoryPatch    Category = "patch"
)

// Rank returns category precedence (security > major > minor > patch)
func (c Category) Rank() int {
	switch c {
	case CategorySecurity:
		return 4
	case CategoryMajor:
		return 3
	case CategoryMinor:
		return 2
	case CategoryPatch:
		return 1
	default:
		return 0
	}
}

// Confidence is a qualitative confidence level
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank returns confidence ordering (high > medium > low)
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Min returns the lower of two confidence levels
func (c Confidence) Min(other Confidence) Confidence {
	if other.Rank() < c.Rank() {
		return other
	}
	return c
}

// Degrade lowers a confidence level by one step, bottoming out at low
func (c Confidence) Degrade() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// RiskLevel is a qualitative risk bucket
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelFromScore buckets a numeric risk score into a level
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score >= 90:
		return RiskCritical
	case score >= 65:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// BranchType classifies a PR head branch by its naming convention
type BranchType string

const (
	BranchRenovate   BranchType = "renovate"
	BranchDependabot BranchType = "dependabot"
	BranchCustom     BranchType = "custom"
	BranchUnknown    BranchType = "unknown"
)

// ChangesetStrategy decides how many changesets a PR produces
type ChangesetStrategy string

const (
	StrategySingle   ChangesetStrategy = "single"
	StrategyGrouped  ChangesetStrategy = "grouped"
	StrategyMultiple ChangesetStrategy = "multiple"
)

// RelationshipType is the kind of edge between two workspace packages
type RelationshipType string

const (
	RelationInternalDependency RelationshipType = "internal-dependency"
	RelationVersionConsistency RelationshipType = "version-consistency"
)

// GroupedHandling selects how grouped updates resolve to one bump type
type GroupedHandling string

const (
	GroupedConservative GroupedHandling = "conservative"
	GroupedMajority     GroupedHandling = "majority"
)
