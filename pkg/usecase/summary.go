package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// SummaryGenerator renders the human-readable Markdown changeset summary
type SummaryGenerator struct {
	rules model.SummaryRules
}

// NewSummaryGenerator creates a new SummaryGenerator
func NewSummaryGenerator(rules model.SummaryRules) *SummaryGenerator {
	if rules.MaxDependenciesToList <= 0 {
		rules.MaxDependenciesToList = model.DefaultRules().Summary.MaxDependenciesToList
	}
	return &SummaryGenerator{rules: rules}
}

// SummaryInput is everything the generator consumes
type SummaryInput struct {
	Context        *model.PRContext
	Assessment     *model.ImpactAssessment
	Categorization *model.CategorizationResult
	Manager        types.Manager
	Dependencies   []model.DependencyChange
	Template       string // optional custom template, overrides the configured one
}

type managerPhrase struct {
	emoji    string
	singular string
	plural   string
}

// managerPhrases covers the supported ecosystems; unknown managers fall back
// to the generic phrasing and never fail rendering.
var managerPhrases = map[types.Manager]managerPhrase{
	types.ManagerNPM:           {"📦", "npm dependency", "npm dependencies"},
	types.ManagerPNPM:          {"📦", "pnpm dependency", "pnpm dependencies"},
	types.ManagerYarn:          {"📦", "Yarn dependency", "Yarn dependencies"},
	types.ManagerGitHubActions: {"⚙️", "GitHub Action", "GitHub Actions"},
	types.ManagerDocker:        {"🐳", "Docker image", "Docker images"},
	types.ManagerPip:           {"🐍", "Python package", "Python packages"},
	types.ManagerPipenv:        {"🐍", "Pipenv package", "Pipenv packages"},
	types.ManagerPoetry:        {"🐍", "Poetry package", "Poetry packages"},
	types.ManagerNuget:         {"💎", ".NET package", ".NET packages"},
	types.ManagerComposer:      {"🐘", "PHP dependency", "PHP dependencies"},
	types.ManagerCargo:         {"🦀", "Rust crate", "Rust crates"},
	types.ManagerHelm:          {"⎈", "Helm chart", "Helm charts"},
	types.ManagerTerraform:     {"🏗️", "Terraform module", "Terraform modules"},
	types.ManagerAnsible:       {"🤖", "Ansible role", "Ansible roles"},
	types.ManagerPreCommit:     {"🪝", "pre-commit hook", "pre-commit hooks"},
	types.ManagerGitLabCI:      {"🦊", "GitLab CI dependency", "GitLab CI dependencies"},
	types.ManagerCircleCI:      {"🔄", "CircleCI orb", "CircleCI orbs"},
	types.ManagerGoMod:         {"🐹", "Go module", "Go modules"},
	types.ManagerGradle:        {"☕", "Gradle dependency", "Gradle dependencies"},
	types.ManagerMaven:         {"☕", "Maven dependency", "Maven dependencies"},
	types.ManagerBundler:       {"💎", "Ruby gem", "Ruby gems"},
}

var genericPhrase = managerPhrase{"📋", "dependency", "dependencies"}

// PhraseForManager returns the emoji/phrasing entry for a manager, falling
// back to the generic one
func PhraseForManager(manager types.Manager) (string, string, string) {
	phrase, ok := managerPhrases[manager]
	if !ok {
		phrase = genericPhrase
	}
	return phrase.emoji, phrase.singular, phrase.plural
}

// Render produces the Markdown summary string
func (g *SummaryGenerator) Render(input *SummaryInput) string {
	template := input.Template
	if template == "" {
		template = g.rules.Template
	}
	if template != "" {
		return g.renderTemplate(template, input)
	}
	return g.renderDefault(input)
}

func (g *SummaryGenerator) renderDefault(input *SummaryInput) string {
	emoji, singular, plural := PhraseForManager(input.Manager)
	deps := input.Dependencies

	var sb strings.Builder

	if isSecurityInput(input) {
		sb.WriteString("🔒 ")
	}
	sb.WriteString(emoji)
	sb.WriteString(" Update ")

	names := dependencyNames(deps, g.rules.SortDependencies)

	switch {
	case len(deps) == 0:
		sb.WriteString(plural)
	case len(deps) == 1:
		sb.WriteString(singular)
		sb.WriteString(" `")
		sb.WriteString(names[0])
		sb.WriteString("`")
		g.appendVersionClause(&sb, deps[0])
	case len(deps) > g.rules.MaxDependenciesToList:
		fmt.Fprintf(&sb, "%d %s", len(deps), plural)
	default:
		fmt.Fprintf(&sb, "%d %s: ", len(deps), plural)
		quoted := make([]string, len(names))
		for i, name := range names {
			quoted[i] = "`" + name + "`"
		}
		sb.WriteString(strings.Join(quoted, ", "))
	}

	g.appendSecurityNote(&sb, input)
	g.appendBreakingWarning(&sb, input)

	return sb.String()
}

// appendVersionClause adds "from `old` to `new`" only when both versions are
// known; a partial pair renders nothing rather than leaking placeholders
func (g *SummaryGenerator) appendVersionClause(sb *strings.Builder, dep model.DependencyChange) {
	if !g.rules.IncludeVersionDetails {
		return
	}
	if dep.CurrentVersion == "" || dep.NewVersion == "" {
		return
	}
	fmt.Fprintf(sb, " from `%s` to `%s`", dep.CurrentVersion, dep.NewVersion)
}

func (g *SummaryGenerator) appendSecurityNote(sb *strings.Builder, input *SummaryInput) {
	if !isSecurityInput(input) || input.Assessment == nil {
		return
	}
	if input.Assessment.VulnerabilityCount > 0 {
		fmt.Fprintf(sb, "\n\nAddresses %d vulnerabilities (%d high severity)",
			input.Assessment.VulnerabilityCount, input.Assessment.HighSeverityCount)
	}
}

func (g *SummaryGenerator) appendBreakingWarning(sb *strings.Builder, input *SummaryInput) {
	if g.rules.SuppressBreakingWarning {
		return
	}
	if input.Assessment == nil || !input.Assessment.HasBreakingChanges {
		return
	}
	sb.WriteString("\n\n⚠️ **BREAKING CHANGES**: this update contains breaking changes, review before merging.")
}

// renderTemplate interpolates the recognized placeholders, leaving unknown
// ones verbatim
func (g *SummaryGenerator) renderTemplate(template string, input *SummaryInput) string {
	emoji, _, _ := PhraseForManager(input.Manager)
	names := dependencyNames(input.Dependencies, g.rules.SortDependencies)

	updateType := ""
	riskLevel := ""
	hasBreaking := "false"
	if input.Assessment != nil {
		updateType = string(input.Assessment.OverallImpact)
		riskLevel = string(types.RiskLevelFromScore(input.Assessment.RiskScore))
		if input.Assessment.HasBreakingChanges {
			hasBreaking = "true"
		}
	}

	version := ""
	if len(input.Dependencies) == 1 {
		version = input.Dependencies[0].NewVersion
	}

	replacer := strings.NewReplacer(
		"{updateType}", updateType,
		"{dependencies}", strings.Join(names, ", "),
		"{version}", version,
		"{emoji}", emoji,
		"{riskLevel}", riskLevel,
		"{hasBreakingChanges}", hasBreaking,
	)
	return replacer.Replace(template)
}

func dependencyNames(deps []model.DependencyChange, sorted bool) []string {
	names := make([]string, len(deps))
	for i, dep := range deps {
		names[i] = dep.Name
	}
	if sorted {
		sort.Strings(names)
	}
	return names
}

func isSecurityInput(input *SummaryInput) bool {
	if input.Assessment != nil && input.Assessment.HasSecurityUpdates {
		return true
	}
	for _, dep := range input.Dependencies {
		if dep.IsSecurityUpdate {
			return true
		}
	}
	return false
}
