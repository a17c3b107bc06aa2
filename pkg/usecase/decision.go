package usecase

import (
	"context"
	"fmt"
	"regexp"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// DecisionEngine resolves one final bump type from all upstream analysis
// results by folding an ordered rule list over a tentative decision
type DecisionEngine struct {
	rules *model.RulesConfig
}

// NewDecisionEngine creates a new DecisionEngine
func NewDecisionEngine(rules *model.RulesConfig) *DecisionEngine {
	if rules == nil {
		rules = model.DefaultRules()
	}
	return &DecisionEngine{rules: rules}
}

// DecisionInput carries everything the rule chain consults
type DecisionInput struct {
	Assessment      *model.ImpactAssessment
	Categorization  *model.CategorizationResult
	Context         *model.PRContext
	Manager         types.Manager
	IsGroupedUpdate bool
	DependencyCount int
}

// decisionRule receives the tentative decision and may override it,
// appending reasoning and override records as it goes
type decisionRule struct {
	name  string
	apply func(e *DecisionEngine, d *model.BumpDecision, in *DecisionInput)
}

var decisionRules = []decisionRule{
	{"security-precedence", (*DecisionEngine).applySecurityRule},
	{"breaking-changes", (*DecisionEngine).applyBreakingRule},
	{"manager-rules", (*DecisionEngine).applyManagerRules},
	{"organization-rules", (*DecisionEngine).applyOrganizationRules},
	{"risk-assessment", (*DecisionEngine).applyRiskThresholds},
	{"grouped-update", (*DecisionEngine).applyGroupedHandling},
}

// Decide runs the precedence chain and returns the final bump decision
func (e *DecisionEngine) Decide(ctx context.Context, input *DecisionInput) *model.BumpDecision {
	logger := ctxlog.From(ctx)

	decision := e.baseline(input)

	for _, rule := range decisionRules {
		rule.apply(e, decision, input)
	}

	decision.Risk = model.DecisionRisk{
		Level:   types.RiskLevelFromScore(input.Assessment.RiskScore),
		Score:   input.Assessment.RiskScore,
		Factors: riskFactors(input.Assessment),
	}

	if decision.PrimaryReason == "" && len(decision.ReasoningChain) > 0 {
		decision.PrimaryReason = decision.ReasoningChain[len(decision.ReasoningChain)-1]
	}

	logger.Info("Bump decision made",
		"bump_type", decision.BumpType,
		"confidence", decision.Confidence,
		"factors", decision.InfluencingFactors,
	)

	return decision
}

// baseline prefers the categorization recommendation when its confidence is
// not low, then the semver assessment, then the configured default
func (e *DecisionEngine) baseline(input *DecisionInput) *model.BumpDecision {
	decision := &model.BumpDecision{
		Confidence: input.Categorization.Confidence.Min(input.Assessment.Confidence),
	}

	switch {
	case input.Categorization.Confidence != types.ConfidenceLow:
		decision.BumpType = input.Categorization.RecommendedType
		decision.InfluencingFactors = append(decision.InfluencingFactors, "baseline-categorization")
		decision.ReasoningChain = append(decision.ReasoningChain,
			fmt.Sprintf("baseline %s from categorization (confidence %s)", decision.BumpType, input.Categorization.Confidence))
	case input.Assessment.Confidence != types.ConfidenceLow:
		decision.BumpType = input.Assessment.RecommendedType
		decision.InfluencingFactors = append(decision.InfluencingFactors, "baseline-semver")
		decision.ReasoningChain = append(decision.ReasoningChain,
			fmt.Sprintf("baseline %s from semver assessment", decision.BumpType))
	default:
		decision.BumpType = e.rules.DefaultBumpType
		decision.InfluencingFactors = append(decision.InfluencingFactors, "baseline-default")
		decision.ReasoningChain = append(decision.ReasoningChain,
			fmt.Sprintf("low confidence everywhere, using default %s", decision.BumpType))
	}

	return decision
}

// override replaces the tentative bump type, recording the old one as an
// alternative and appending an override description
func override(d *model.BumpDecision, next types.BumpType, stage, overridden string) {
	if d.BumpType == next {
		return
	}
	d.Alternatives = append(d.Alternatives, model.BumpAlternative{BumpType: d.BumpType, Source: stage})
	d.OverriddenRules = append(d.OverriddenRules, overridden)
	d.BumpType = next
}

func addFactor(d *model.BumpDecision, factor string) {
	for _, f := range d.InfluencingFactors {
		if f == factor {
			return
		}
	}
	d.InfluencingFactors = append(d.InfluencingFactors, factor)
}

func (e *DecisionEngine) applySecurityRule(d *model.BumpDecision, in *DecisionInput) {
	if !e.rules.SecurityPrecedence || !in.Assessment.HasSecurityUpdates {
		return
	}

	severity := maxSecuritySeverity(in)
	minimum, ok := e.rules.SecurityMinimumBump[severity]
	if !ok {
		minimum = types.BumpPatch
	}

	addFactor(d, "security-precedence")
	d.ReasoningChain = append(d.ReasoningChain,
		fmt.Sprintf("security update (%s severity) requires at least %s", severity, minimum))

	if minimum.Rank() > d.BumpType.Rank() {
		override(d, minimum, "security-precedence",
			fmt.Sprintf("security minimum %s overrides tentative %s", minimum, d.BumpType))
		d.PrimaryReason = fmt.Sprintf("security severity %s enforces %s bump", severity, minimum)
	}
}

func (e *DecisionEngine) applyBreakingRule(d *model.BumpDecision, in *DecisionInput) {
	if !e.rules.BreakingChangeRule || !in.Assessment.HasBreakingChanges {
		return
	}

	addFactor(d, "breaking-changes")
	d.ReasoningChain = append(d.ReasoningChain, "breaking change detected, forcing major")

	if d.BumpType != types.BumpMajor {
		override(d, types.BumpMajor, "breaking-changes",
			fmt.Sprintf("breaking change overrides tentative %s with major", d.BumpType))
	}
	d.PrimaryReason = "breaking change forces major bump"
}

func (e *DecisionEngine) applyManagerRules(d *model.BumpDecision, in *DecisionInput) {
	rule, ok := e.rules.ManagerRules[in.Manager]
	if !ok {
		return
	}

	addFactor(d, fmt.Sprintf("manager-rules-%s", in.Manager))

	if rule.MajorAsMinor && d.BumpType == types.BumpMajor {
		override(d, types.BumpMinor, "manager-rules",
			fmt.Sprintf("manager rule for %s remaps major to minor", in.Manager))
		d.ReasoningChain = append(d.ReasoningChain,
			fmt.Sprintf("%s majorAsMinor remapped major to minor", in.Manager))
		d.PrimaryReason = fmt.Sprintf("%s manager policy remaps major to minor", in.Manager)
	}

	if rule.MaxBumpType != "" && rule.MaxBumpType.Rank() < d.BumpType.Rank() {
		prev := d.BumpType
		override(d, rule.MaxBumpType, "manager-rules",
			fmt.Sprintf("manager rule restriction for %s: %s capped at %s", in.Manager, prev, rule.MaxBumpType))
		d.ReasoningChain = append(d.ReasoningChain,
			fmt.Sprintf("%s maximum bump type is %s", in.Manager, rule.MaxBumpType))
		d.PrimaryReason = fmt.Sprintf("%s manager cap limits bump to %s", in.Manager, rule.MaxBumpType)
	}
}

func (e *DecisionEngine) applyOrganizationRules(d *model.BumpDecision, in *DecisionInput) {
	org := e.rules.Organization

	if org.Conservative && d.BumpType == types.BumpMajor {
		addFactor(d, "organization-rules")
		override(d, types.BumpMinor, "organization-rules",
			"conservative organization policy downgrades major to minor")
		d.ReasoningChain = append(d.ReasoningChain, "conservative mode downgraded major to minor")
	}

	for _, rule := range org.DependencyRules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			continue
		}
		for _, categorized := range in.Categorization.Dependencies {
			if !re.MatchString(categorized.Dependency.Name) {
				continue
			}
			if rule.MaxBumpType.Rank() < d.BumpType.Rank() {
				addFactor(d, "organization-rules")
				override(d, rule.MaxBumpType, "organization-rules",
					fmt.Sprintf("dependency rule %q caps %s at %s", rule.Pattern, categorized.Dependency.Name, rule.MaxBumpType))
				d.ReasoningChain = append(d.ReasoningChain,
					fmt.Sprintf("dependency %s matches pattern %q, capped at %s", categorized.Dependency.Name, rule.Pattern, rule.MaxBumpType))
			}
		}
	}
}

func (e *DecisionEngine) applyRiskThresholds(d *model.BumpDecision, in *DecisionInput) {
	score := in.Assessment.RiskScore

	// Risk-driven upgrades never pierce a manager's hard cap.
	maxBump := types.BumpMajor
	if rule, ok := e.rules.ManagerRules[in.Manager]; ok && rule.MaxBumpType != "" {
		maxBump = rule.MaxBumpType
	}

	if e.rules.RiskThresholds.Major > 0 && score > e.rules.RiskThresholds.Major {
		addFactor(d, "risk-assessment")
		d.ReasoningChain = append(d.ReasoningChain,
			fmt.Sprintf("risk score %.0f exceeds major threshold %.0f", score, e.rules.RiskThresholds.Major))
		next := types.BumpMajor.Min(maxBump)
		if next.Rank() > d.BumpType.Rank() {
			override(d, next, "risk-assessment",
				fmt.Sprintf("risk score %.0f forces %s", score, next))
		}
		return
	}

	if e.rules.RiskThresholds.Minor > 0 && score > e.rules.RiskThresholds.Minor && d.BumpType == types.BumpPatch {
		next := types.BumpMinor.Min(maxBump)
		if next.Rank() > d.BumpType.Rank() {
			addFactor(d, "risk-assessment")
			override(d, next, "risk-assessment",
				fmt.Sprintf("risk score %.0f upgrades patch to %s", score, next))
			d.ReasoningChain = append(d.ReasoningChain,
				fmt.Sprintf("risk score %.0f exceeds minor threshold %.0f", score, e.rules.RiskThresholds.Minor))
		}
	}
}

func (e *DecisionEngine) applyGroupedHandling(d *model.BumpDecision, in *DecisionInput) {
	if !in.IsGroupedUpdate || in.DependencyCount <= 1 {
		return
	}

	addFactor(d, "grouped-update")
	d.Confidence = d.Confidence.Degrade()

	switch e.rules.GroupedHandling {
	case types.GroupedMajority:
		majority := majorityBump(in.Assessment)
		d.ReasoningChain = append(d.ReasoningChain,
			fmt.Sprintf("grouped update: majority of dependencies are %s", majority))
		if majority != d.BumpType {
			override(d, majority, "grouped-update",
				fmt.Sprintf("grouped majority %s replaces %s", majority, d.BumpType))
		}
	default:
		downgraded := downgradeOneStep(d.BumpType)
		d.ReasoningChain = append(d.ReasoningChain,
			fmt.Sprintf("grouped update: conservative strategy downgrades %s to %s", d.BumpType, downgraded))
		if downgraded != d.BumpType {
			override(d, downgraded, "grouped-update",
				fmt.Sprintf("conservative grouped handling downgrades %s", d.BumpType))
		}
	}
}

// majorityBump selects the bump type held by the plurality of dependencies,
// ties broken toward the higher-severity type
func majorityBump(assessment *model.ImpactAssessment) types.BumpType {
	counts := map[types.BumpType]int{}
	for _, impact := range assessment.Impacts {
		bump := impact.SemverImpact
		if bump == types.BumpNone {
			bump = types.BumpPatch
		}
		counts[bump]++
	}

	best := types.BumpPatch
	bestCount := -1
	for _, bump := range []types.BumpType{types.BumpMajor, types.BumpMinor, types.BumpPatch} {
		if counts[bump] > bestCount {
			best = bump
			bestCount = counts[bump]
		}
	}
	return best
}

func downgradeOneStep(bump types.BumpType) types.BumpType {
	switch bump {
	case types.BumpMajor:
		return types.BumpMinor
	default:
		return types.BumpPatch
	}
}

func maxSecuritySeverity(in *DecisionInput) types.Severity {
	severity := types.SeverityNone
	for _, categorized := range in.Categorization.Dependencies {
		dep := categorized.Dependency
		if dep.IsSecurityUpdate && dep.SecuritySeverity.Rank() > severity.Rank() {
			severity = dep.SecuritySeverity
		}
	}
	if severity == types.SeverityNone && in.Context != nil {
		severity = in.Context.SecuritySeverity
	}
	if severity == types.SeverityNone {
		severity = types.SeverityHigh // unknown severity treated conservatively
	}
	return severity
}

func riskFactors(assessment *model.ImpactAssessment) []string {
	var factors []string
	if assessment.HasBreakingChanges {
		factors = append(factors, "breaking changes present")
	}
	if assessment.HasSecurityUpdates {
		factors = append(factors, fmt.Sprintf("%d security-flagged dependencies", assessment.VulnerabilityCount))
	}
	if assessment.HasDowngrades {
		factors = append(factors, "version downgrade present")
	}
	if assessment.HasPrereleases {
		factors = append(factors, "prerelease version present")
	}
	return factors
}
