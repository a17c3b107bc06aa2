package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// SecurityDetector classifies the security relevance of one dependency from
// its flags and any free-text signals
type SecurityDetector struct{}

// NewSecurityDetector creates a new SecurityDetector
func NewSecurityDetector() *SecurityDetector {
	return &SecurityDetector{}
}

var cveRe = regexp.MustCompile(`(?i)\b(CVE-\d{4}-\d{4,})\b`)
var ghsaRe = regexp.MustCompile(`(?i)\b(GHSA(?:-[23456789cfghjmpqrvwx]{4}){3})\b`)

// Assess produces a security assessment for one dependency. A flagged update
// with unknown severity is treated conservatively as high rather than
// silently downgraded to "no issue".
func (d *SecurityDetector) Assess(ctx context.Context, dep model.DependencyChange, signals ...string) *model.SecurityAssessment {
	logger := ctxlog.From(ctx)

	text := strings.Join(signals, "\n")
	textSecurity, textSeverity := DetectSecuritySeverity(text)

	assessment := &model.SecurityAssessment{
		DependencyName: dep.Name,
		Confidence:     types.ConfidenceHigh,
	}

	if !dep.IsSecurityUpdate && !textSecurity {
		assessment.RecommendedAction = types.ActionProceed
		return assessment
	}

	assessment.HasSecurityIssues = true

	severity := dep.SecuritySeverity
	if severity == types.SeverityNone {
		severity = textSeverity
		if severity != types.SeverityNone {
			assessment.Reasons = append(assessment.Reasons, "severity derived from text signals")
		}
	}
	if severity == types.SeverityNone {
		severity = types.SeverityHigh
		assessment.Confidence = types.ConfidenceLow
		assessment.Reasons = append(assessment.Reasons, "unknown severity on security update, treating as high")
	}
	assessment.OverallSeverity = severity

	assessment.Vulnerabilities = extractVulnerabilities(text, severity)
	assessment.CVECount = len(assessment.Vulnerabilities)
	assessment.RecommendedAction = ActionForSeverity(severity)

	logger.Debug("Security assessment",
		"dependency", dep.Name,
		"severity", severity,
		"action", assessment.RecommendedAction,
		"cve_count", assessment.CVECount,
	)

	return assessment
}

// ActionForSeverity maps a severity to a recommended action. The mapping is
// monotonic: a higher severity never maps to a weaker action.
func ActionForSeverity(severity types.Severity) types.SecurityAction {
	switch severity {
	case types.SeverityCritical:
		return types.ActionImmediate
	case types.SeverityHigh:
		return types.ActionBlock
	case types.SeverityModerate:
		return types.ActionReviewRequired
	case types.SeverityLow:
		return types.ActionInvestigate
	default:
		return types.ActionProceed
	}
}

// extractVulnerabilities pulls CVE and GHSA identifiers out of free text.
// An empty result with HasSecurityIssues=true is valid: absence of
// enumerable advisories is not absence of risk.
func extractVulnerabilities(text string, severity types.Severity) []model.Vulnerability {
	var vulns []model.Vulnerability
	seen := map[string]bool{}

	for _, re := range []*regexp.Regexp{cveRe, ghsaRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			id := strings.ToUpper(m[1])
			if seen[id] {
				continue
			}
			seen[id] = true
			vulns = append(vulns, model.Vulnerability{ID: id, Severity: severity})
		}
	}
	return vulns
}
