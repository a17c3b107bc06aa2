package usecase

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// Extractor builds a PRContext from raw pull request data
type Extractor struct {
	rules *model.RulesConfig
}

// NewExtractor creates a new Extractor
func NewExtractor(rules *model.RulesConfig) *Extractor {
	if rules == nil {
		rules = model.DefaultRules()
	}
	return &Extractor{rules: rules}
}

// ExtractInput is the raw PR data consumed by extraction. Missing title/body
// are treated as empty strings, never as errors.
type ExtractInput struct {
	BranchName     string
	Title          string
	Body           string
	Author         string
	CommitMessages []string
	ChangedFiles   []model.ChangedFile
}

// Extract parses the PR data into a structured context
func (x *Extractor) Extract(ctx context.Context, input *ExtractInput) *model.PRContext {
	logger := ctxlog.From(ctx)

	prCtx := &model.PRContext{
		BranchName:     input.BranchName,
		Title:          input.Title,
		Body:           input.Body,
		Author:         input.Author,
		CommitMessages: input.CommitMessages,
		ChangedFiles:   input.ChangedFiles,
	}

	prCtx.BranchType = ClassifyBranch(input.BranchName, x.rules.BranchPrefixes)
	prCtx.IsRenovateBot = prCtx.BranchType == types.BranchRenovate ||
		prCtx.BranchType == types.BranchDependabot ||
		prCtx.BranchType == types.BranchCustom ||
		IsBotAuthor(input.Author)

	for _, msg := range input.CommitMessages {
		prCtx.Commits = append(prCtx.Commits, ParseConventionalCommit(msg))
	}

	prCtx.Manager = x.detectManager(prCtx)

	fullText := strings.Join(append([]string{input.Title, input.Body}, input.CommitMessages...), "\n")

	isSecurity, severity := DetectSecuritySeverity(fullText)
	prCtx.IsSecurityUpdate = isSecurity
	prCtx.SecuritySeverity = severity
	prCtx.IsGroupedUpdate = DetectGroupedUpdate(fullText)
	prCtx.UpdateType = DetectUpdateTypeHint(fullText)

	prCtx.Dependencies = x.extractDependencies(prCtx)

	logger.Info("Extracted PR context",
		"branch_type", prCtx.BranchType,
		"manager", prCtx.Manager,
		"dependency_count", len(prCtx.Dependencies),
		"is_security", prCtx.IsSecurityUpdate,
		"is_grouped", prCtx.IsGroupedUpdate,
	)

	return prCtx
}

// detectManager resolves the manager tag: conventional-commit scope first,
// then changed-file patterns, then unknown.
func (x *Extractor) detectManager(prCtx *model.PRContext) types.Manager {
	for _, commit := range prCtx.Commits {
		if commit.Scope == "" {
			continue
		}
		if mgr := ManagerFromScope(commit.Scope); mgr != types.ManagerUnknown {
			return mgr
		}
	}

	for _, file := range prCtx.ChangedFiles {
		if mgr := ManagerFromFilename(file.Filename); mgr != types.ManagerUnknown {
			return mgr
		}
	}

	return types.ManagerUnknown
}

// extractDependencies pulls dependency changes out of the PR's free text,
// deduplicated by name with the last match winning.
func (x *Extractor) extractDependencies(prCtx *model.PRContext) []model.DependencyChange {
	sources := append([]string{prCtx.Title, prCtx.Body}, prCtx.CommitMessages...)

	byName := map[string]int{}
	var deps []model.DependencyChange

	for _, text := range sources {
		for _, candidate := range ExtractDependencyNames(text) {
			dep := candidate
			dep.Manager = prCtx.Manager
			dep.IsSecurityUpdate = prCtx.IsSecurityUpdate
			dep.SecuritySeverity = prCtx.SecuritySeverity
			dep.IsGroupedUpdate = prCtx.IsGroupedUpdate

			if idx, ok := byName[dep.Name]; ok {
				deps[idx] = dep
				continue
			}
			byName[dep.Name] = len(deps)
			deps = append(deps, dep)
		}
	}

	return deps
}

var branchPatterns = []struct {
	prefix     string
	branchType types.BranchType
}{
	{"renovate/", types.BranchRenovate},
	{"chore/renovate-", types.BranchRenovate},
	{"dependabot/", types.BranchDependabot},
}

// ClassifyBranch matches a branch name against known bot-branch conventions.
// Custom glob patterns are checked after the built-in prefixes. Unmatched
// branches are unknown and do not block processing.
func ClassifyBranch(branch string, customPatterns []string) types.BranchType {
	for _, p := range branchPatterns {
		if strings.HasPrefix(branch, p.prefix) {
			return p.branchType
		}
	}
	for _, pattern := range customPatterns {
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return types.BranchCustom
		}
		if strings.HasPrefix(branch, strings.TrimSuffix(pattern, "*")) && strings.HasSuffix(pattern, "*") {
			return types.BranchCustom
		}
	}
	return types.BranchUnknown
}

var botAuthors = []string{
	"renovate[bot]",
	"renovate-bot",
	"dependabot[bot]",
	"dependabot-preview[bot]",
	"mend[bot]",
}

// IsBotAuthor reports whether the PR author is a known dependency-update bot
func IsBotAuthor(author string) bool {
	lower := strings.ToLower(author)
	for _, bot := range botAuthors {
		if lower == bot {
			return true
		}
	}
	return false
}

var conventionalCommitRe = regexp.MustCompile(`^(\w+)(?:\(([^)]*)\))?(!)?:\s*(.+)`)

// ParseConventionalCommit parses a conventional commit message. On parse
// failure the whole message becomes an opaque chore description with
// IsBreaking=false.
func ParseConventionalCommit(message string) model.CommitInfo {
	lines := strings.SplitN(message, "\n", 2)
	header := strings.TrimSpace(lines[0])
	body := ""
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}

	m := conventionalCommitRe.FindStringSubmatch(header)
	if m == nil {
		return model.CommitInfo{
			Type:        "chore",
			Description: strings.TrimSpace(message),
		}
	}

	return model.CommitInfo{
		Type:        m[1],
		Scope:       m[2],
		Description: m[4],
		Body:        body,
		IsBreaking:  m[3] == "!" || strings.Contains(body, "BREAKING CHANGE:"),
	}
}

var scopeManagers = map[string]types.Manager{
	"deps":           types.ManagerNPM,
	"npm":            types.ManagerNPM,
	"pnpm":           types.ManagerPNPM,
	"yarn":           types.ManagerYarn,
	"docker":         types.ManagerDocker,
	"dockerfile":     types.ManagerDocker,
	"docker-compose": types.ManagerDocker,
	"pip":            types.ManagerPip,
	"python":         types.ManagerPip,
	"pipenv":         types.ManagerPipenv,
	"poetry":         types.ManagerPoetry,
	"gradle":         types.ManagerGradle,
	"maven":          types.ManagerMaven,
	"gomod":          types.ManagerGoMod,
	"go":             types.ManagerGoMod,
	"nuget":          types.ManagerNuget,
	"composer":       types.ManagerComposer,
	"cargo":          types.ManagerCargo,
	"rust":           types.ManagerCargo,
	"helm":           types.ManagerHelm,
	"terraform":      types.ManagerTerraform,
	"ansible":        types.ManagerAnsible,
	"pre-commit":     types.ManagerPreCommit,
	"gitlab-ci":      types.ManagerGitLabCI,
	"gitlabci":       types.ManagerGitLabCI,
	"circleci":       types.ManagerCircleCI,
	"github-actions": types.ManagerGitHubActions,
	"actions":        types.ManagerGitHubActions,
	"bundler":        types.ManagerBundler,
}

// ManagerFromScope maps a conventional-commit scope to a manager tag
func ManagerFromScope(scope string) types.Manager {
	if mgr, ok := scopeManagers[strings.ToLower(scope)]; ok {
		return mgr
	}
	return types.ManagerUnknown
}

var filenameManagers = []struct {
	match   func(base, full string) bool
	manager types.Manager
}{
	{func(base, full string) bool { return base == "pnpm-lock.yaml" || base == "pnpm-workspace.yaml" }, types.ManagerPNPM},
	{func(base, full string) bool { return base == "yarn.lock" }, types.ManagerYarn},
	{func(base, full string) bool { return base == "package.json" || base == "package-lock.json" }, types.ManagerNPM},
	{func(base, full string) bool {
		return strings.HasPrefix(base, "Dockerfile") || strings.HasPrefix(base, "docker-compose") ||
			base == "compose.yml" || base == "compose.yaml"
	}, types.ManagerDocker},
	{func(base, full string) bool { return base == "Pipfile" || base == "Pipfile.lock" }, types.ManagerPipenv},
	{func(base, full string) bool { return base == "pyproject.toml" || base == "poetry.lock" }, types.ManagerPoetry},
	{func(base, full string) bool { return base == "requirements.txt" || strings.HasSuffix(base, "requirements.in") }, types.ManagerPip},
	{func(base, full string) bool { return base == "build.gradle" || base == "build.gradle.kts" || base == "gradle.properties" }, types.ManagerGradle},
	{func(base, full string) bool { return base == "pom.xml" }, types.ManagerMaven},
	{func(base, full string) bool { return base == "go.mod" || base == "go.sum" }, types.ManagerGoMod},
	{func(base, full string) bool { return strings.HasSuffix(base, ".csproj") || base == "packages.config" || base == "Directory.Packages.props" }, types.ManagerNuget},
	{func(base, full string) bool { return base == "composer.json" || base == "composer.lock" }, types.ManagerComposer},
	{func(base, full string) bool { return base == "Cargo.toml" || base == "Cargo.lock" }, types.ManagerCargo},
	{func(base, full string) bool { return base == "Chart.yaml" || base == "values.yaml" }, types.ManagerHelm},
	{func(base, full string) bool { return strings.HasSuffix(base, ".tf") || base == ".terraform.lock.hcl" }, types.ManagerTerraform},
	{func(base, full string) bool { return base == "requirements.yml" || base == "galaxy.yml" }, types.ManagerAnsible},
	{func(base, full string) bool { return base == ".pre-commit-config.yaml" }, types.ManagerPreCommit},
	{func(base, full string) bool { return base == ".gitlab-ci.yml" }, types.ManagerGitLabCI},
	{func(base, full string) bool { return strings.Contains(full, ".circleci/") }, types.ManagerCircleCI},
	{func(base, full string) bool {
		return strings.Contains(full, ".github/workflows/") || strings.Contains(full, ".github/actions/")
	}, types.ManagerGitHubActions},
	{func(base, full string) bool { return base == "Gemfile" || base == "Gemfile.lock" }, types.ManagerBundler},
}

// ManagerFromFilename maps a changed file name to a manager tag
func ManagerFromFilename(filename string) types.Manager {
	base := path.Base(filename)
	for _, entry := range filenameManagers {
		if entry.match(base, filename) {
			return entry.manager
		}
	}
	return types.ManagerUnknown
}

// namePattern is a loose dependency name: scoped npm names, paths, dotted ids
const namePattern = `(@?[\w.\-]+(?:/[\w.\-]+)*)`
const versionPattern = `v?([\w.\-+]+)`

// dependencyPatterns are evaluated in order; later matches for the same name
// replace earlier ones (most-specific wins within one text source).
var dependencyPatterns = []struct {
	re      *regexp.Regexp
	extract func(m []string) model.DependencyChange
}{
	{
		re: regexp.MustCompile(`(?i)bump\s+` + namePattern + `\s+from\s+` + versionPattern + `\s+to\s+` + versionPattern),
		extract: func(m []string) model.DependencyChange {
			return model.DependencyChange{Name: m[1], CurrentVersion: m[2], NewVersion: m[3]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)upgrade\s+` + namePattern + `\s+\(` + versionPattern + `\s*(?:→|->)\s*` + versionPattern + `\)`),
		extract: func(m []string) model.DependencyChange {
			return model.DependencyChange{Name: m[1], CurrentVersion: m[2], NewVersion: m[3]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)update\s+(?:dependency|module|dev dependency)\s+` + namePattern + `\s+to\s+` + versionPattern),
		extract: func(m []string) model.DependencyChange {
			return model.DependencyChange{Name: m[1], NewVersion: m[2]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)update\s+` + namePattern + `\s+(?:action\s+)?to\s+` + versionPattern),
		extract: func(m []string) model.DependencyChange {
			return model.DependencyChange{Name: m[1], NewVersion: m[2]}
		},
	},
}

// ExtractDependencyNames applies the ordered pattern set to one text source.
// Multiple matches for the same name collapse to the last one seen.
func ExtractDependencyNames(text string) []model.DependencyChange {
	byName := map[string]int{}
	var deps []model.DependencyChange

	for _, pattern := range dependencyPatterns {
		for _, m := range pattern.re.FindAllStringSubmatch(text, -1) {
			dep := pattern.extract(m)
			if dep.Name == "" {
				continue
			}
			if strings.HasPrefix(dep.Name, "@") {
				if idx := strings.Index(dep.Name, "/"); idx > 1 {
					dep.Scope = dep.Name[1:idx]
				}
			}
			if idx, ok := byName[dep.Name]; ok {
				deps[idx] = dep
				continue
			}
			byName[dep.Name] = len(deps)
			deps = append(deps, dep)
		}
	}

	return deps
}

// severityKeywords are checked in precedence order
var severityKeywords = []struct {
	keyword  string
	severity types.Severity
}{
	{"critical", types.SeverityCritical},
	{"high severity", types.SeverityHigh},
	{"high-severity", types.SeverityHigh},
	{"severity: high", types.SeverityHigh},
	{"moderate", types.SeverityModerate},
	{"medium severity", types.SeverityModerate},
	{"severity: medium", types.SeverityModerate},
	{"low severity", types.SeverityLow},
	{"severity: low", types.SeverityLow},
}

var securityKeywords = []string{
	"cve-",
	"ghsa-",
	"vulnerability",
	"vulnerabilities",
	"security fix",
	"security update",
	"security advisory",
	"exploit",
	"advisory",
}

// DetectSecuritySeverity scans text for security and severity cues. A
// security update may be detected with no severity keyword at all; the
// severity is then empty.
func DetectSecuritySeverity(text string) (bool, types.Severity) {
	lower := strings.ToLower(text)

	isSecurity := false
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			isSecurity = true
			break
		}
	}

	if !isSecurity {
		return false, types.SeverityNone
	}

	for _, entry := range severityKeywords {
		if strings.Contains(lower, entry.keyword) {
			return true, entry.severity
		}
	}
	return true, types.SeverityNone
}

var groupedKeywords = []string{
	"group",
	"grouped",
	"batch",
	"bundle",
	"multiple dependencies",
	"all non-major",
	"monorepo packages",
}

// DetectGroupedUpdate scans text for grouped-update cues
func DetectGroupedUpdate(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range groupedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DetectUpdateTypeHint looks for an explicit update-type word in the text
func DetectUpdateTypeHint(text string) types.BumpType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "major update") || strings.Contains(lower, "(major)"):
		return types.BumpMajor
	case strings.Contains(lower, "minor update") || strings.Contains(lower, "(minor)"):
		return types.BumpMinor
	case strings.Contains(lower, "patch update") || strings.Contains(lower, "(patch)"):
		return types.BumpPatch
	default:
		return types.BumpNone
	}
}
