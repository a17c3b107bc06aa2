package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bellwether/pkg/domain/interfaces"
	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// Changeset orchestrates the full pipeline for one pull request: extraction,
// analysis, categorization, decision, rendering and persistence.
type Changeset struct {
	ghClient interfaces.GitHubClient
	store    interfaces.FragmentStore
	notifier interfaces.Notifier
	rules    *model.RulesConfig

	extractor   *Extractor
	docker      *DockerDetector
	assessor    *SemverAssessor
	security    *SecurityDetector
	workspace   *WorkspaceAnalyzer
	categorizer *Categorizer
	decision    *DecisionEngine
	summary     *SummaryGenerator

	releaseUnit     string
	dryRun          bool
	commentOnPR     bool
	skipBranchCheck bool
}

// ChangesetOption is a functional option for the Changeset use case
type ChangesetOption func(*Changeset)

// WithRules sets the rules configuration
func WithRules(rules *model.RulesConfig) ChangesetOption {
	return func(uc *Changeset) {
		uc.rules = rules
	}
}

// WithDryRun suppresses all writes while keeping classification identical
func WithDryRun(dryRun bool) ChangesetOption {
	return func(uc *Changeset) {
		uc.dryRun = dryRun
	}
}

// WithComment enables or disables PR comment posting
func WithComment(comment bool) ChangesetOption {
	return func(uc *Changeset) {
		uc.commentOnPR = comment
	}
}

// WithSkipBranchCheck processes PRs regardless of bot-branch detection
func WithSkipBranchCheck(skip bool) ChangesetOption {
	return func(uc *Changeset) {
		uc.skipBranchCheck = skip
	}
}

// WithReleaseUnit sets the release-unit name used in fragment front matter.
// Defaults to the repository name.
func WithReleaseUnit(name string) ChangesetOption {
	return func(uc *Changeset) {
		uc.releaseUnit = name
	}
}

// WithNotifier attaches an optional non-critical notification sink
func WithNotifier(notifier interfaces.Notifier) ChangesetOption {
	return func(uc *Changeset) {
		uc.notifier = notifier
	}
}

// NewChangeset creates the changeset use case
func NewChangeset(ghClient interfaces.GitHubClient, store interfaces.FragmentStore, opts ...ChangesetOption) *Changeset {
	uc := &Changeset{
		ghClient:    ghClient,
		store:       store,
		rules:       model.DefaultRules(),
		commentOnPR: true,
	}
	for _, opt := range opts {
		opt(uc)
	}

	uc.extractor = NewExtractor(uc.rules)
	uc.docker = NewDockerDetector()
	uc.assessor = NewSemverAssessor()
	uc.security = NewSecurityDetector()
	uc.workspace = NewWorkspaceAnalyzer(uc.rules.Workspace)
	uc.categorizer = NewCategorizer(uc.rules)
	uc.decision = NewDecisionEngine(uc.rules)
	uc.summary = NewSummaryGenerator(uc.rules.Summary)

	return uc
}

// ProcessPullRequest runs the pipeline. Upstream API failures are fatal;
// comment and notification failures are warnings only.
func (uc *Changeset) ProcessPullRequest(ctx context.Context, owner, repo string, number int) (*model.ProcessResult, error) {
	logger := ctxlog.From(ctx)

	pr, err := uc.ghClient.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch pull request",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("number", number))
	}

	changedFiles, err := uc.ghClient.ListChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list changed files")
	}

	commits, err := uc.ghClient.ListCommitMessages(ctx, owner, repo, number)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list commit messages")
	}

	prCtx := uc.extractor.Extract(ctx, &ExtractInput{
		BranchName:     pr.HeadRef,
		Title:          pr.Title,
		Body:           pr.Body,
		Author:         pr.Author,
		CommitMessages: commits,
		ChangedFiles:   changedFiles,
	})

	if !uc.skipBranchCheck && !prCtx.IsRenovateBot {
		logger.Info("Not a dependency-bot PR, skipping",
			"branch", prCtx.BranchName, "author", prCtx.Author)
		return &model.ProcessResult{DryRun: uc.dryRun}, nil
	}

	dockerChanges, err := uc.detectDockerChanges(ctx, pr, changedFiles)
	if err != nil {
		return nil, err
	}
	deps := mergeDependencies(prCtx.Dependencies, dockerChanges)
	if len(dockerChanges) > 0 && prCtx.Manager == types.ManagerUnknown {
		prCtx.Manager = types.ManagerDocker
	}

	breakingSignal := false
	for _, commit := range prCtx.Commits {
		if commit.IsBreaking {
			breakingSignal = true
		}
	}

	assessment := uc.assessor.Assess(ctx, deps, breakingSignal)
	uc.enrichSecurity(ctx, deps, prCtx, assessment)

	workspaceAnalysis := uc.workspace.Analyze(ctx, deps, changedFiles)

	categorization, err := uc.categorizer.Categorize(ctx, deps, assessment)
	if err != nil {
		return nil, goerr.Wrap(err, "categorization failed")
	}

	decision := uc.decision.Decide(ctx, &DecisionInput{
		Assessment:      assessment,
		Categorization:  categorization,
		Context:         prCtx,
		Manager:         prCtx.Manager,
		IsGroupedUpdate: prCtx.IsGroupedUpdate,
		DependencyCount: len(deps),
	})

	result := &model.ProcessResult{
		Decision: decision,
		DryRun:   uc.dryRun,
	}

	for _, unit := range uc.releaseUnits(repo, workspaceAnalysis) {
		summary := uc.summary.Render(&SummaryInput{
			Context:        prCtx,
			Assessment:     assessment,
			Categorization: categorization,
			Manager:        prCtx.Manager,
			Dependencies:   deps,
		})
		result.Changesets = append(result.Changesets, model.Changeset{
			ID:          fmt.Sprintf("renovate-%s", uuid.NewString()[:8]),
			ReleaseUnit: unit,
			BumpType:    decision.BumpType,
			Summary:     summary,
		})
	}

	if !uc.dryRun {
		for i := range result.Changesets {
			path, err := uc.store.Write(ctx, &result.Changesets[i])
			if err != nil {
				return nil, goerr.Wrap(err, "failed to write changeset fragment",
					goerr.V("id", result.Changesets[i].ID))
			}
			result.FilePaths = append(result.FilePaths, path)
		}
	}

	result.Comment = uc.renderComment(result, decision)
	if uc.commentOnPR {
		if err := uc.ghClient.CreateComment(ctx, owner, repo, number, result.Comment); err != nil {
			// Comment posting is a non-critical side effect: warn and continue.
			logger.Warn("Failed to post PR comment", "error", err)
		}
	}

	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, owner+"/"+repo, number, result); err != nil {
			logger.Warn("Failed to send notification", "error", err)
		}
	}

	logger.Info("Processed pull request",
		"changesets", len(result.Changesets),
		"bump_type", decision.BumpType,
		"dry_run", uc.dryRun,
	)

	return result, nil
}

// detectDockerChanges fetches base/head revisions of Docker-pattern files
// and diffs their image references
func (uc *Changeset) detectDockerChanges(ctx context.Context, pr *model.PullRequestMeta, changedFiles []model.ChangedFile) ([]model.DependencyChange, error) {
	files := map[string]FileRevision{}

	for _, file := range changedFiles {
		if !IsDockerFile(file.Filename) {
			continue
		}
		base, err := uc.ghClient.GetFileContent(ctx, pr.Owner, pr.Repo, file.Filename, pr.BaseRef)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read base revision", goerr.V("file", file.Filename))
		}
		head, err := uc.ghClient.GetFileContent(ctx, pr.Owner, pr.Repo, file.Filename, pr.HeadRef)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read head revision", goerr.V("file", file.Filename))
		}
		files[file.Filename] = FileRevision{Base: base, Head: head}
	}

	if len(files) == 0 {
		return nil, nil
	}
	return uc.docker.Detect(ctx, files), nil
}

// enrichSecurity runs the security detector over each dependency and folds
// CVE counts into the assessment
func (uc *Changeset) enrichSecurity(ctx context.Context, deps []model.DependencyChange, prCtx *model.PRContext, assessment *model.ImpactAssessment) {
	cveTotal := 0
	for _, dep := range deps {
		sec := uc.security.Assess(ctx, dep, prCtx.Title, prCtx.Body)
		cveTotal += sec.CVECount
	}
	if cveTotal > assessment.VulnerabilityCount {
		assessment.VulnerabilityCount = cveTotal
	}
}

// releaseUnits decides which release units get a changeset based on the
// workspace strategy
func (uc *Changeset) releaseUnits(repo string, analysis *model.WorkspaceAnalysis) []string {
	fallback := uc.releaseUnit
	if fallback == "" {
		fallback = repo
	}

	if analysis.Strategy == types.StrategyMultiple && len(analysis.AffectedPackages) > 0 {
		return analysis.AffectedPackages
	}
	if analysis.Strategy == types.StrategyGrouped && len(analysis.AffectedPackages) > 0 {
		return analysis.AffectedPackages[:1]
	}
	return []string{fallback}
}

func (uc *Changeset) renderComment(result *model.ProcessResult, decision *model.BumpDecision) string {
	var sb strings.Builder

	if uc.dryRun {
		sb.WriteString("## 🔍 Changeset preview (dry-run)\n\n")
		sb.WriteString("No changeset file was written.\n\n")
	} else {
		sb.WriteString("## 🦋 Changeset created\n\n")
	}

	for _, cs := range result.Changesets {
		fmt.Fprintf(&sb, "**%s**: `%s`\n\n", cs.ReleaseUnit, cs.BumpType)
		sb.WriteString(cs.Summary)
		sb.WriteString("\n\n")
	}

	if decision.PrimaryReason != "" {
		fmt.Fprintf(&sb, "**Reason**: %s\n\n", decision.PrimaryReason)
	}

	sb.WriteString("---\n")
	sb.WriteString("🤖 Generated by bellwether\n")
	return sb.String()
}

// mergeDependencies combines text-extracted and Docker-detected changes,
// with Docker entries replacing same-name text entries (they carry versions)
func mergeDependencies(extracted, docker []model.DependencyChange) []model.DependencyChange {
	byName := map[string]int{}
	merged := make([]model.DependencyChange, 0, len(extracted)+len(docker))

	for _, dep := range extracted {
		byName[dep.Name] = len(merged)
		merged = append(merged, dep)
	}
	for _, dep := range docker {
		if idx, ok := byName[dep.Name]; ok && merged[idx].SourceFile == "" {
			merged[idx] = dep
			continue
		}
		merged = append(merged, dep)
	}
	return merged
}
