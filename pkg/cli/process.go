package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/bellwether/pkg/cli/config"
	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/infra/store"
	"github.com/m-mizutani/bellwether/pkg/usecase"
)

func cmdProcess() *cli.Command {
	var (
		githubCfg config.GitHub
		rulesCfg  config.Rules
		notifyCfg config.Notify

		repoFlag        string
		prNumber        int64
		outDir          string
		releaseUnit     string
		dryRun          bool
		comment         bool
		skipBranchCheck bool
	)

	flags := append(githubCfg.Flags(), rulesCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "Target repository as owner/name",
			Required:    true,
			Destination: &repoFlag,
			Sources:     cli.EnvVars("BELLWETHER_REPO", "GITHUB_REPOSITORY"),
		},
		&cli.Int64Flag{
			Name:        "pr",
			Usage:       "Pull request number",
			Required:    true,
			Destination: &prNumber,
			Sources:     cli.EnvVars("BELLWETHER_PR"),
		},
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Repository root where changeset fragments are written",
			Value:       ".",
			Destination: &outDir,
			Sources:     cli.EnvVars("BELLWETHER_DIR"),
		},
		&cli.StringFlag{
			Name:        "release-unit",
			Usage:       "Release unit name in fragment front matter (defaults to the repository name)",
			Destination: &releaseUnit,
			Sources:     cli.EnvVars("BELLWETHER_RELEASE_UNIT"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Classify without writing fragments",
			Destination: &dryRun,
			Sources:     cli.EnvVars("BELLWETHER_DRY_RUN"),
		},
		&cli.BoolFlag{
			Name:        "comment",
			Usage:       "Post the result as a PR comment",
			Value:       true,
			Destination: &comment,
			Sources:     cli.EnvVars("BELLWETHER_COMMENT"),
		},
		&cli.BoolFlag{
			Name:        "skip-branch-check",
			Usage:       "Process the PR even when it is not from a known dependency bot",
			Destination: &skipBranchCheck,
			Sources:     cli.EnvVars("BELLWETHER_SKIP_BRANCH_CHECK"),
		},
	)

	return &cli.Command{
		Name:    "process",
		Aliases: []string{"p"},
		Usage:   "Process one pull request and emit changeset fragments",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			owner, repo, ok := strings.Cut(repoFlag, "/")
			if !ok || owner == "" || repo == "" {
				return goerr.New("invalid --repo value, expected owner/name",
					goerr.V("repo", repoFlag))
			}

			ghClient, err := githubCfg.Build()
			if err != nil {
				return err
			}

			rules, err := rulesCfg.Load()
			if err != nil {
				return err
			}

			opts := []usecase.ChangesetOption{
				usecase.WithRules(rules),
				usecase.WithDryRun(dryRun),
				usecase.WithComment(comment && !dryRun),
				usecase.WithSkipBranchCheck(skipBranchCheck),
				usecase.WithReleaseUnit(releaseUnit),
			}
			if notifier := notifyCfg.Build(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}

			uc := usecase.NewChangeset(ghClient, store.NewFragmentStore(outDir), opts...)

			result, err := uc.ProcessPullRequest(ctx, owner, repo, int(prNumber))
			if err != nil {
				return goerr.Wrap(err, "failed to process pull request",
					goerr.V("repo", repoFlag), goerr.V("pr", prNumber))
			}

			printResult(result)

			if err := writeActionOutputs(result); err != nil {
				logger.Warn("Failed to write action outputs", slog.Any("error", err))
			}

			return nil
		},
	}
}

// printResult renders a human-readable run report to stdout
func printResult(result *model.ProcessResult) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite, color.Bold)

	if result.Decision == nil {
		fmt.Println("No changeset generated (not a dependency update PR)")
		return
	}

	if result.DryRun {
		title.Println("Dry-run: no files written")
	} else {
		title.Println("Changeset files written")
	}

	label.Print("Bump type: ")
	fmt.Println(result.Decision.BumpType)
	label.Print("Risk: ")
	fmt.Printf("%s (%.0f)\n", result.Decision.Risk.Level, result.Decision.Risk.Score)
	label.Print("Reason: ")
	fmt.Println(result.Decision.PrimaryReason)

	for _, cs := range result.Changesets {
		fmt.Println()
		label.Printf("%s (%s)\n", cs.ID, cs.ReleaseUnit)
		fmt.Println(cs.Render())
	}

	for _, path := range result.FilePaths {
		fmt.Println("wrote", path)
	}
}

// writeActionOutputs appends key=value outputs to $GITHUB_OUTPUT when running
// inside GitHub Actions
func writeActionOutputs(result *model.ProcessResult) error {
	outputPath := os.Getenv("GITHUB_OUTPUT")
	if outputPath == "" {
		return nil
	}

	f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to open GITHUB_OUTPUT", goerr.V("path", outputPath))
	}
	defer f.Close()

	published := !result.DryRun && len(result.FilePaths) > 0
	lines := []string{
		fmt.Sprintf("published=%t", published),
		fmt.Sprintf("changesets=%d", len(result.Changesets)),
	}
	if result.Decision != nil {
		lines = append(lines,
			fmt.Sprintf("bump_type=%s", result.Decision.BumpType),
			fmt.Sprintf("risk_level=%s", result.Decision.Risk.Level),
		)
	}
	if len(result.FilePaths) > 0 {
		lines = append(lines, fmt.Sprintf("files=%s", strings.Join(result.FilePaths, ",")))
	}

	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return goerr.Wrap(err, "failed to write GITHUB_OUTPUT")
	}
	return nil
}
