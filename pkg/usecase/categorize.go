package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// Categorizer merges semver, security and manager-specific override rules
// into a final category per dependency
type Categorizer struct {
	rules *model.RulesConfig
}

// NewCategorizer creates a new Categorizer
func NewCategorizer(rules *model.RulesConfig) *Categorizer {
	if rules == nil {
		rules = model.DefaultRules()
	}
	return &Categorizer{rules: rules}
}

// Categorize produces the categorization result. A dependency without a
// corresponding impact entry is a contract violation between pipeline stages
// and returns an error naming the dependency; it is never silently skipped.
func (c *Categorizer) Categorize(ctx context.Context, deps []model.DependencyChange, assessment *model.ImpactAssessment) (*model.CategorizationResult, error) {
	logger := ctxlog.From(ctx)

	result := &model.CategorizationResult{
		CategoryCounts: map[types.Category]int{},
		Confidence:     types.ConfidenceHigh,
	}

	if len(deps) == 0 {
		result.PrimaryCategory = categoryForBump(assessment.OverallImpact)
		result.RecommendedType = assessment.RecommendedType
		result.Confidence = assessment.Confidence
		return result, nil
	}

	var totalRisk float64
	maxSeverity := types.SeverityNone

	for _, dep := range deps {
		impact, ok := assessment.Impact(dep.Name)
		if !ok {
			return nil, goerr.New(fmt.Sprintf("no impact assessment for dependency %q", dep.Name),
				goerr.V("dependency", dep.Name))
		}

		categorized := c.categorizeOne(dep, impact)
		result.Dependencies = append(result.Dependencies, categorized)
		result.CategoryCounts[categorized.Category]++
		result.Confidence = result.Confidence.Min(impact.Confidence)
		totalRisk += categorized.RiskLevel

		if dep.IsSecurityUpdate && dep.SecuritySeverity.Rank() > maxSeverity.Rank() {
			maxSeverity = dep.SecuritySeverity
		}
	}

	result.AverageRisk = totalRisk / float64(len(result.Dependencies))

	for _, categorized := range result.Dependencies {
		if categorized.Category.Rank() > result.PrimaryCategory.Rank() {
			result.PrimaryCategory = categorized.Category
		}
	}
	result.AllCategories = distinctCategories(result.CategoryCounts)
	result.RecommendedType = c.recommendedType(result.PrimaryCategory, maxSeverity, assessment)

	logger.Debug("Categorization complete",
		"primary", result.PrimaryCategory,
		"average_risk", result.AverageRisk,
		"recommended", result.RecommendedType,
	)

	return result, nil
}

func (c *Categorizer) categorizeOne(dep model.DependencyChange, impact model.DependencyImpact) model.CategorizedDependency {
	categorized := model.CategorizedDependency{Dependency: dep}

	if dep.IsSecurityUpdate {
		categorized.Category = types.CategorySecurity
		categorized.Reasons = append(categorized.Reasons, "security update takes category precedence")
	} else {
		categorized.Category = categoryForBump(impact.SemverImpact)
		categorized.Reasons = append(categorized.Reasons,
			fmt.Sprintf("category %s from semver impact", categorized.Category))
	}

	// Breaking non-major changes carry major as a secondary category
	// without changing the primary.
	if impact.IsBreaking && categorized.Category != types.CategoryMajor {
		categorized.SecondaryCategories = append(categorized.SecondaryCategories, types.CategoryMajor)
		categorized.Reasons = append(categorized.Reasons, "breaking change adds major as secondary category")
	}

	risk := baselineRisk(categorized.Category, dep.SecuritySeverity)

	if rule, ok := c.rules.ManagerRules[dep.Manager]; ok {
		if remapped, ok := rule.CategoryRemap[categorized.Category]; ok {
			categorized.Reasons = append(categorized.Reasons,
				fmt.Sprintf("Manager-specific override: %s %s → %s", dep.Manager, categorized.Category, remapped))
			categorized.Category = remapped
		}
		if rule.RiskAdjustment > 0 {
			risk *= rule.RiskAdjustment
			categorized.Reasons = append(categorized.Reasons,
				fmt.Sprintf("risk adjusted by %s factor %.2f", dep.Manager, rule.RiskAdjustment))
		}
	}

	if impact.IsDowngrade {
		risk += 10
		categorized.Reasons = append(categorized.Reasons, "downgrade elevates risk")
	}
	if impact.IsPrerelease {
		risk -= 10
		categorized.Reasons = append(categorized.Reasons, "prerelease lowers risk")
	}
	if risk < 0 {
		risk = 0
	}
	if risk > 100 {
		risk = 100
	}

	categorized.RiskLevel = risk
	categorized.RiskBucket = types.RiskLevelFromScore(risk)

	categorized.HighPriority = categorized.Category == types.CategorySecurity || categorized.Category == types.CategoryMajor
	if impact.IsPrerelease && c.rules.PrereleaseAsLowerPriority {
		categorized.HighPriority = false
		categorized.Reasons = append(categorized.Reasons, "prerelease is never high priority")
	}

	return categorized
}

// baselineRisk follows the fixed category baselines: patch=25, minor=50,
// major=75, critical security=100
func baselineRisk(category types.Category, severity types.Severity) float64 {
	switch category {
	case types.CategorySecurity:
		switch severity {
		case types.SeverityCritical:
			return 100
		case types.SeverityHigh:
			return 85
		default:
			return 75
		}
	case types.CategoryMajor:
		return 75
	case types.CategoryMinor:
		return 50
	default:
		return 25
	}
}

func categoryForBump(bump types.BumpType) types.Category {
	switch bump {
	case types.BumpMajor:
		return types.CategoryMajor
	case types.BumpMinor:
		return types.CategoryMinor
	default:
		return types.CategoryPatch
	}
}

func distinctCategories(counts map[types.Category]int) []types.Category {
	categories := make([]types.Category, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Rank() > categories[j].Rank()
	})
	return categories
}

// recommendedType maps the primary category to a changeset type; security
// primaries are floored by the configured minimum bump for the worst severity
func (c *Categorizer) recommendedType(primary types.Category, maxSeverity types.Severity, assessment *model.ImpactAssessment) types.BumpType {
	switch primary {
	case types.CategorySecurity:
		minimum := types.BumpPatch
		if bump, ok := c.rules.SecurityMinimumBump[maxSeverity]; ok {
			minimum = bump
		}
		return assessment.RecommendedType.Max(minimum)
	case types.CategoryMajor:
		return types.BumpMajor
	case types.CategoryMinor:
		return types.BumpMinor
	default:
		return types.BumpPatch
	}
}
