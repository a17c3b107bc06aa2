package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
	"github.com/m-mizutani/bellwether/pkg/usecase"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name           string
		current        string
		next           string
		wantMagnitude  types.BumpType
		wantParsed     bool
		wantDowngrade  bool
		wantPrerelease bool
	}{
		{"major bump", "1.2.3", "2.0.0", types.BumpMajor, true, false, false},
		{"minor bump", "1.2.3", "1.3.0", types.BumpMinor, true, false, false},
		{"patch bump", "4.17.20", "4.17.21", types.BumpPatch, true, false, false},
		{"identical versions", "1.2.3", "1.2.3", types.BumpNone, true, false, false},
		{"downgrade", "2.0.0", "1.9.0", types.BumpMajor, true, true, false},
		{"prerelease target", "1.2.3", "1.3.0-beta.1", types.BumpMinor, true, false, true},
		{"v prefix", "v1.2.3", "v1.3.0", types.BumpMinor, true, false, false},
		{"unparseable current", "latest", "1.2.3", types.BumpPatch, false, false, false},
		{"unparseable next", "1.2.3", "next", types.BumpPatch, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.CompareVersions(tt.current, tt.next)
			gt.Equal(t, got.Magnitude, tt.wantMagnitude)
			gt.Equal(t, got.Parsed, tt.wantParsed)
			gt.Equal(t, got.IsDowngrade, tt.wantDowngrade)
			gt.Equal(t, got.IsPrerelease, tt.wantPrerelease)
		})
	}
}

func TestSemverAssessor_Assess(t *testing.T) {
	ctx := context.Background()
	a := usecase.NewSemverAssessor()

	t.Run("one impact per dependency", func(t *testing.T) {
		deps := []model.DependencyChange{
			{Name: "lodash", CurrentVersion: "4.17.20", NewVersion: "4.17.21"},
			{Name: "react", CurrentVersion: "18.2.0", NewVersion: "19.0.0"},
			{Name: "express", CurrentVersion: "4.18.0", NewVersion: "4.19.0"},
		}
		assessment := a.Assess(ctx, deps, false)

		gt.Equal(t, len(assessment.Impacts), len(deps))
		for _, dep := range deps {
			impact, ok := assessment.Impacts[dep.Name]
			gt.True(t, ok)
			gt.Equal(t, impact.Name, dep.Name)
		}
		gt.Equal(t, assessment.OverallImpact, types.BumpMajor)
		gt.True(t, assessment.HasBreakingChanges)
	})

	t.Run("major bump is breaking by default", func(t *testing.T) {
		assessment := a.Assess(ctx, []model.DependencyChange{
			{Name: "react", CurrentVersion: "18.2.0", NewVersion: "19.0.0"},
		}, false)
		gt.True(t, assessment.Impacts["react"].IsBreaking)
	})

	t.Run("breaking signal marks non-major bumps", func(t *testing.T) {
		assessment := a.Assess(ctx, []model.DependencyChange{
			{Name: "lodash", CurrentVersion: "4.17.20", NewVersion: "4.17.21"},
		}, true)
		gt.True(t, assessment.Impacts["lodash"].IsBreaking)
		gt.True(t, assessment.HasBreakingChanges)
	})

	t.Run("unparseable versions degrade confidence", func(t *testing.T) {
		assessment := a.Assess(ctx, []model.DependencyChange{
			{Name: "node", CurrentVersion: "lts", NewVersion: "current"},
		}, false)
		gt.Equal(t, assessment.Impacts["node"].SemverImpact, types.BumpPatch)
		gt.Equal(t, assessment.Confidence, types.ConfidenceLow)
	})

	t.Run("extraction hint outranks weaker computed magnitude", func(t *testing.T) {
		assessment := a.Assess(ctx, []model.DependencyChange{
			{Name: "node", CurrentVersion: "20-alpine", NewVersion: "22-alpine", UpdateType: types.BumpMajor},
		}, false)
		gt.Equal(t, assessment.Impacts["node"].SemverImpact, types.BumpMajor)
	})

	t.Run("downgrade raises risk and flags", func(t *testing.T) {
		assessment := a.Assess(ctx, []model.DependencyChange{
			{Name: "express", CurrentVersion: "4.19.0", NewVersion: "4.18.0"},
		}, false)
		gt.True(t, assessment.HasDowngrades)
		gt.True(t, assessment.Impacts["express"].IsDowngrade)
	})

	t.Run("risk score is clamped to 100", func(t *testing.T) {
		var deps []model.DependencyChange
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			deps = append(deps, model.DependencyChange{
				Name:             name,
				CurrentVersion:   "1.0.0",
				NewVersion:       "2.0.0",
				IsSecurityUpdate: true,
				SecuritySeverity: types.SeverityCritical,
			})
		}
		assessment := a.Assess(ctx, deps, false)
		gt.Equal(t, assessment.RiskScore, 100.0)
	})

	t.Run("empty input yields patch recommendation", func(t *testing.T) {
		assessment := a.Assess(ctx, nil, false)
		gt.Equal(t, assessment.OverallImpact, types.BumpNone)
		gt.Equal(t, assessment.RecommendedType, types.BumpPatch)
		gt.Equal(t, assessment.RiskScore, 0.0)
	})

	t.Run("security updates counted", func(t *testing.T) {
		assessment := a.Assess(ctx, []model.DependencyChange{
			{Name: "openssl", CurrentVersion: "3.0.0", NewVersion: "3.0.1",
				IsSecurityUpdate: true, SecuritySeverity: types.SeverityHigh},
			{Name: "lodash", CurrentVersion: "4.17.20", NewVersion: "4.17.21"},
		}, false)
		gt.True(t, assessment.HasSecurityUpdates)
		gt.Equal(t, assessment.VulnerabilityCount, 1)
		gt.Equal(t, assessment.HighSeverityCount, 1)
	})
}
