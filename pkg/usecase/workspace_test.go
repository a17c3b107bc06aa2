package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
	"github.com/m-mizutani/bellwether/pkg/usecase"
)

// writeWorkspace lays out a temp monorepo with the given member manifests
func writeWorkspace(t *testing.T, rootManifest string, members map[string]string) string {
	t.Helper()
	root := t.TempDir()

	gt.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(rootManifest), 0644))
	for rel, content := range members {
		dir := filepath.Join(root, filepath.Dir(rel))
		gt.NoError(t, os.MkdirAll(dir, 0755))
		gt.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0644))
	}
	return root
}

func TestWorkspaceAnalyzer_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("no workspace yields single strategy", func(t *testing.T) {
		root := t.TempDir()
		a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
		analysis := a.Analyze(ctx, []model.DependencyChange{{Name: "lodash"}}, nil)

		gt.False(t, analysis.HasWorkspace())
		gt.Equal(t, analysis.Strategy, types.StrategySingle)
		gt.Equal(t, analysis.RiskLevel, types.RiskLow)
	})

	t.Run("npm workspace with shared dependency", func(t *testing.T) {
		root := writeWorkspace(t,
			`{"name":"monorepo","workspaces":["packages/*"]}`,
			map[string]string{
				"packages/app/package.json": `{"name":"@acme/app","version":"1.0.0","dependencies":{"lodash":"^4.17.20","@acme/lib":"workspace:*"}}`,
				"packages/lib/package.json": `{"name":"@acme/lib","version":"1.0.0","dependencies":{"lodash":"^4.17.20"}}`,
			})

		a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
		analysis := a.Analyze(ctx, []model.DependencyChange{{Name: "lodash"}}, nil)

		gt.True(t, analysis.HasWorkspace())
		gt.Equal(t, len(analysis.Packages), 2)
		gt.Equal(t, analysis.AffectedPackages, []string{"@acme/app", "@acme/lib"})

		// One internal-dependency edge plus version-consistency edges in
		// both directions.
		var internal, consistency int
		for _, rel := range analysis.Relationships {
			switch rel.Type {
			case types.RelationInternalDependency:
				internal++
			case types.RelationVersionConsistency:
				consistency++
			}
		}
		gt.Equal(t, internal, 1)
		gt.Equal(t, consistency, 2)
		gt.Equal(t, analysis.Strategy, types.StrategyGrouped)
	})

	t.Run("unrelated affected packages split", func(t *testing.T) {
		root := writeWorkspace(t,
			`{"name":"monorepo","workspaces":["packages/*"]}`,
			map[string]string{
				"packages/app/package.json": `{"name":"@acme/app","version":"1.0.0","dependencies":{"react":"^18.0.0"}}`,
				"packages/cli/package.json": `{"name":"@acme/cli","version":"1.0.0","dependencies":{"yargs":"^17.0.0"}}`,
			})

		a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
		analysis := a.Analyze(ctx,
			[]model.DependencyChange{{Name: "react"}, {Name: "yargs"}}, nil)

		gt.Equal(t, len(analysis.AffectedPackages), 2)
		gt.Equal(t, len(analysis.Relationships), 0)
		gt.Equal(t, analysis.Strategy, types.StrategyMultiple)
		gt.True(t, analysis.SplitRecommended)
	})

	t.Run("changed file under package dir marks it affected", func(t *testing.T) {
		root := writeWorkspace(t,
			`{"name":"monorepo","workspaces":["packages/*"]}`,
			map[string]string{
				"packages/app/package.json": `{"name":"@acme/app","version":"1.0.0"}`,
			})

		a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
		analysis := a.Analyze(ctx, nil, []model.ChangedFile{
			{Filename: "packages/app/src/index.ts", Status: "modified"},
		})
		gt.Equal(t, analysis.AffectedPackages, []string{"@acme/app"})
	})

	t.Run("member limit truncates deterministically", func(t *testing.T) {
		members := map[string]string{
			"packages/a/package.json": `{"name":"pkg-a","version":"1.0.0","dependencies":{"lodash":"*"}}`,
			"packages/b/package.json": `{"name":"pkg-b","version":"1.0.0","dependencies":{"lodash":"*"}}`,
			"packages/c/package.json": `{"name":"pkg-c","version":"1.0.0","dependencies":{"lodash":"*"}}`,
		}
		root := writeWorkspace(t, `{"name":"monorepo","workspaces":["packages/*"]}`, members)

		a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root, MaxPackagesToAnalyze: 2})
		analysis := a.Analyze(ctx, []model.DependencyChange{{Name: "lodash"}}, nil)

		gt.Equal(t, len(analysis.Packages), 2)
		gt.Equal(t, analysis.Packages[0].Name, "pkg-a")
		gt.Equal(t, analysis.Packages[1].Name, "pkg-b")
	})

	t.Run("broken member manifest is skipped", func(t *testing.T) {
		root := writeWorkspace(t,
			`{"name":"monorepo","workspaces":["packages/*"]}`,
			map[string]string{
				"packages/good/package.json": `{"name":"good","version":"1.0.0"}`,
				"packages/bad/package.json":  `{not json`,
			})

		a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
		analysis := a.Analyze(ctx, nil, nil)
		gt.Equal(t, len(analysis.Packages), 1)
		gt.Equal(t, analysis.Packages[0].Name, "good")
	})
}

func TestWorkspaceAnalyzer_PnpmWorkspace(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	gt.NoError(t, os.WriteFile(filepath.Join(root, "pnpm-workspace.yaml"),
		[]byte("packages:\n  - apps/*\n"), 0644))
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "apps", "web"), 0755))
	gt.NoError(t, os.WriteFile(filepath.Join(root, "apps", "web", "package.json"),
		[]byte(`{"name":"web","version":"0.1.0","dependencies":{"next":"^14.0.0"}}`), 0644))

	a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
	analysis := a.Analyze(ctx, []model.DependencyChange{{Name: "next"}}, nil)

	gt.Equal(t, len(analysis.Packages), 1)
	gt.Equal(t, analysis.AffectedPackages, []string{"web"})
}

func TestWorkspaceAnalyzer_CargoWorkspace(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	gt.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"),
		[]byte("[workspace]\nmembers = [\"crates/*\"]\n"), 0644))
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "crates", "core"), 0755))
	gt.NoError(t, os.WriteFile(filepath.Join(root, "crates", "core", "Cargo.toml"),
		[]byte("[package]\nname = \"core\"\nversion = \"0.2.0\"\n\n[dependencies]\nserde = \"1.0\"\n"), 0644))

	a := usecase.NewWorkspaceAnalyzer(model.WorkspaceRules{Root: root})
	analysis := a.Analyze(ctx, []model.DependencyChange{{Name: "serde"}}, nil)

	gt.Equal(t, len(analysis.Packages), 1)
	gt.Equal(t, analysis.Packages[0].Name, "core")
	gt.Equal(t, analysis.AffectedPackages, []string{"core"})
}
