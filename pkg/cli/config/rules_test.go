package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/cli/config"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

func TestRules_Load(t *testing.T) {
	t.Run("no path yields defaults", func(t *testing.T) {
		rules, err := (&config.Rules{}).Load()
		gt.NoError(t, err)
		gt.Equal(t, rules.DefaultBumpType, types.BumpPatch)
		gt.True(t, rules.SecurityPrecedence)
		gt.Equal(t, rules.SecurityMinimumBump[types.SeverityCritical], types.BumpMajor)
		gt.Equal(t, rules.RiskThresholds.Major, 80.0)
		gt.Equal(t, rules.RiskThresholds.Minor, 50.0)
		gt.Equal(t, rules.GroupedHandling, types.GroupedConservative)
		gt.Equal(t, rules.Summary.MaxDependenciesToList, 10)
		gt.Equal(t, rules.Workspace.MaxPackagesToAnalyze, 50)
	})

	t.Run("file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yml")
		content := `
groupedUpdateHandling: majority
riskThresholds:
  major: 70
  minor: 40
managerRules:
  docker:
    maxBumpType: patch
  github-actions:
    majorAsMinor: true
organization:
  conservative: true
  dependencyRules:
    - pattern: "^@types/"
      maxBumpType: patch
summary:
  maxDependenciesToList: 5
  sortDependencies: true
`
		gt.NoError(t, os.WriteFile(path, []byte(content), 0644))

		rules, err := (&config.Rules{Path: path}).Load()
		gt.NoError(t, err)

		gt.Equal(t, rules.GroupedHandling, types.GroupedMajority)
		gt.Equal(t, rules.RiskThresholds.Major, 70.0)
		gt.Equal(t, rules.ManagerRules[types.ManagerDocker].MaxBumpType, types.BumpPatch)
		gt.True(t, rules.ManagerRules[types.ManagerGitHubActions].MajorAsMinor)
		gt.True(t, rules.Organization.Conservative)
		gt.Equal(t, len(rules.Organization.DependencyRules), 1)
		gt.Equal(t, rules.Summary.MaxDependenciesToList, 5)
		gt.True(t, rules.Summary.SortDependencies)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := (&config.Rules{Path: "/nonexistent/rules.yml"}).Load()
		gt.Error(t, err)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yml")
		gt.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
		_, err := (&config.Rules{Path: path}).Load()
		gt.Error(t, err)
	})
}
