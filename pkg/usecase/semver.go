package usecase

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// SemverAssessor computes per-dependency version impacts and the aggregate
// assessment including the 0-100 risk score
type SemverAssessor struct{}

// NewSemverAssessor creates a new SemverAssessor
func NewSemverAssessor() *SemverAssessor {
	return &SemverAssessor{}
}

// VersionChange is the result of comparing two version strings
type VersionChange struct {
	Magnitude    types.BumpType
	Parsed       bool
	IsDowngrade  bool
	IsPrerelease bool
}

// CompareVersions classifies the change between two version strings by
// standard semver precedence: first differing component wins. Unparseable
// versions report patch magnitude with Parsed=false.
func CompareVersions(current, next string) VersionChange {
	cur, errCur := semver.NewVersion(current)
	nxt, errNxt := semver.NewVersion(next)
	if errCur != nil || errNxt != nil {
		return VersionChange{Magnitude: types.BumpPatch}
	}

	change := VersionChange{
		Parsed:       true,
		IsDowngrade:  nxt.LessThan(cur),
		IsPrerelease: nxt.Prerelease() != "",
	}

	switch {
	case cur.Major() != nxt.Major():
		change.Magnitude = types.BumpMajor
	case cur.Minor() != nxt.Minor():
		change.Magnitude = types.BumpMinor
	case cur.Patch() != nxt.Patch():
		change.Magnitude = types.BumpPatch
	default:
		change.Magnitude = types.BumpNone
	}
	return change
}

// Assess produces exactly one impact per input dependency plus the aggregate
// assessment. breakingSignal marks upstream breaking-change text supplied by
// the caller (e.g. a "!" conventional commit), which can mark even non-major
// bumps as breaking.
func (a *SemverAssessor) Assess(ctx context.Context, deps []model.DependencyChange, breakingSignal bool) *model.ImpactAssessment {
	logger := ctxlog.From(ctx)

	assessment := &model.ImpactAssessment{
		Impacts:       make(map[string]model.DependencyImpact, len(deps)),
		OverallImpact: types.BumpNone,
		Confidence:    types.ConfidenceHigh,
	}

	var score float64

	for _, dep := range deps {
		impact := a.assessOne(dep, breakingSignal)
		assessment.Impacts[dep.Name] = impact

		assessment.OverallImpact = assessment.OverallImpact.Max(impact.SemverImpact)
		assessment.Confidence = assessment.Confidence.Min(impact.Confidence)
		if impact.IsBreaking {
			assessment.HasBreakingChanges = true
			score += 25
		}
		if impact.IsDowngrade {
			assessment.HasDowngrades = true
			score += 15
		}
		if impact.IsPrerelease {
			assessment.HasPrereleases = true
			score += 5
		}

		switch impact.SemverImpact {
		case types.BumpMajor:
			score += 30
		case types.BumpMinor:
			score += 12
		default:
			score += 5
		}

		if dep.IsSecurityUpdate {
			assessment.HasSecurityUpdates = true
			assessment.VulnerabilityCount++
			switch dep.SecuritySeverity {
			case types.SeverityCritical:
				score += 35
				assessment.HighSeverityCount++
			case types.SeverityHigh:
				score += 25
				assessment.HighSeverityCount++
			default:
				score += 15
			}
		}
	}

	if score > 100 {
		score = 100
	}
	assessment.RiskScore = score

	assessment.RecommendedType = assessment.OverallImpact
	if assessment.RecommendedType == types.BumpNone {
		assessment.RecommendedType = types.BumpPatch
	}

	logger.Debug("Semver assessment complete",
		"overall", assessment.OverallImpact,
		"risk_score", assessment.RiskScore,
		"confidence", assessment.Confidence,
	)

	return assessment
}

func (a *SemverAssessor) assessOne(dep model.DependencyChange, breakingSignal bool) model.DependencyImpact {
	impact := model.DependencyImpact{
		Name:           dep.Name,
		CurrentVersion: dep.CurrentVersion,
		NewVersion:     dep.NewVersion,
		Confidence:     types.ConfidenceHigh,
	}

	change := CompareVersions(dep.CurrentVersion, dep.NewVersion)
	impact.SemverImpact = change.Magnitude
	impact.IsDowngrade = change.IsDowngrade
	impact.IsPrerelease = change.IsPrerelease

	if !change.Parsed {
		impact.Confidence = types.ConfidenceLow
		impact.Reasons = append(impact.Reasons,
			fmt.Sprintf("versions %q -> %q not parseable as semver, defaulting to patch", dep.CurrentVersion, dep.NewVersion))
	} else {
		impact.Reasons = append(impact.Reasons,
			fmt.Sprintf("version change %s -> %s classified as %s", dep.CurrentVersion, dep.NewVersion, change.Magnitude))
	}

	// An explicit update type from extraction outranks the computed one
	// when the computed one is weaker (e.g. unparseable docker tags).
	if dep.UpdateType != "" && dep.UpdateType != types.BumpNone && dep.UpdateType.Rank() > impact.SemverImpact.Rank() {
		impact.SemverImpact = dep.UpdateType
		impact.Reasons = append(impact.Reasons, fmt.Sprintf("extraction reported %s update", dep.UpdateType))
	}

	if impact.SemverImpact == types.BumpMajor {
		impact.IsBreaking = true
		impact.Reasons = append(impact.Reasons, "major version bump is breaking by default")
	} else if breakingSignal {
		impact.IsBreaking = true
		impact.Reasons = append(impact.Reasons, "breaking change signaled by commit or PR text")
	}

	if impact.IsDowngrade {
		impact.Confidence = impact.Confidence.Degrade()
		impact.Reasons = append(impact.Reasons, "downgrade detected, confidence reduced")
	}

	return impact
}
