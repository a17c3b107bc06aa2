package usecase_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
	"github.com/m-mizutani/bellwether/pkg/usecase"
)

func TestSummaryGenerator_RenderDefault(t *testing.T) {
	g := usecase.NewSummaryGenerator(model.DefaultRules().Summary)

	t.Run("single npm dependency with versions", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "lodash", CurrentVersion: "4.17.20", NewVersion: "4.17.21"},
			},
		})
		gt.Equal(t, summary, "📦 Update npm dependency `lodash` from `4.17.20` to `4.17.21`")
	})

	t.Run("missing version renders no version clause", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "typescript", NewVersion: "5.3.3"},
			},
		})
		gt.Equal(t, summary, "📦 Update npm dependency `typescript`")
		gt.False(t, strings.Contains(summary, "undefined"))
		gt.False(t, strings.Contains(summary, "from ``"))
	})

	t.Run("zero dependencies still renders", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{Manager: types.ManagerUnknown})
		gt.Equal(t, summary, "📋 Update dependencies")
	})

	t.Run("few dependencies are listed", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerGoMod,
			Dependencies: []model.DependencyChange{
				{Name: "golang.org/x/crypto"},
				{Name: "golang.org/x/net"},
			},
		})
		gt.Equal(t, summary, "🐹 Update 2 Go modules: `golang.org/x/crypto`, `golang.org/x/net`")
	})

	t.Run("many dependencies collapse to a count", func(t *testing.T) {
		var deps []model.DependencyChange
		for i := 0; i < 12; i++ {
			deps = append(deps, model.DependencyChange{Name: fmt.Sprintf("pkg-%02d", i)})
		}
		summary := g.Render(&usecase.SummaryInput{
			Manager:      types.ManagerNPM,
			Dependencies: deps,
		})
		gt.Equal(t, summary, "📦 Update 12 npm dependencies")
	})

	t.Run("security update gets lock prefix and note", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "lodash", CurrentVersion: "4.17.20", NewVersion: "4.17.21", IsSecurityUpdate: true},
			},
			Assessment: &model.ImpactAssessment{
				HasSecurityUpdates: true,
				VulnerabilityCount: 2,
				HighSeverityCount:  1,
			},
		})
		gt.True(t, strings.HasPrefix(summary, "🔒 📦 Update npm dependency `lodash`"))
		gt.True(t, strings.Contains(summary, "Addresses 2 vulnerabilities (1 high severity)"))
	})

	t.Run("breaking warning", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "react", CurrentVersion: "18.2.0", NewVersion: "19.0.0"},
			},
			Assessment: &model.ImpactAssessment{HasBreakingChanges: true},
		})
		gt.True(t, strings.Contains(summary, "⚠️ **BREAKING CHANGES**"))
	})

	t.Run("breaking warning suppressed by rule", func(t *testing.T) {
		rules := model.DefaultRules().Summary
		rules.SuppressBreakingWarning = true
		quiet := usecase.NewSummaryGenerator(rules)

		summary := quiet.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "react", CurrentVersion: "18.2.0", NewVersion: "19.0.0"},
			},
			Assessment: &model.ImpactAssessment{HasBreakingChanges: true},
		})
		gt.False(t, strings.Contains(summary, "BREAKING"))
	})

	t.Run("sorted dependency order", func(t *testing.T) {
		rules := model.DefaultRules().Summary
		rules.SortDependencies = true
		sorted := usecase.NewSummaryGenerator(rules)

		summary := sorted.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "zod"}, {Name: "axios"},
			},
		})
		gt.True(t, strings.Index(summary, "axios") < strings.Index(summary, "zod"))
	})

	t.Run("docker phrasing", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerDocker,
			Dependencies: []model.DependencyChange{
				{Name: "node", CurrentVersion: "20.10.0", NewVersion: "20.11.0"},
			},
		})
		gt.Equal(t, summary, "🐳 Update Docker image `node` from `20.10.0` to `20.11.0`")
	})
}

func TestSummaryGenerator_RenderTemplate(t *testing.T) {
	g := usecase.NewSummaryGenerator(model.DefaultRules().Summary)

	t.Run("placeholders are interpolated", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "lodash", CurrentVersion: "4.17.20", NewVersion: "4.17.21"},
			},
			Assessment: &model.ImpactAssessment{
				OverallImpact: types.BumpPatch,
				RiskScore:     25,
			},
			Template: "{emoji} {updateType} update of {dependencies} to {version} (risk: {riskLevel}, breaking: {hasBreakingChanges})",
		})
		gt.Equal(t, summary, "📦 patch update of lodash to 4.17.21 (risk: low, breaking: false)")
	})

	t.Run("unknown placeholders stay verbatim", func(t *testing.T) {
		summary := g.Render(&usecase.SummaryInput{
			Manager:  types.ManagerNPM,
			Template: "{mystery} and {dependencies}",
		})
		gt.Equal(t, summary, "{mystery} and ")
	})

	t.Run("configured template is used when input has none", func(t *testing.T) {
		rules := model.DefaultRules().Summary
		rules.Template = "deps: {dependencies}"
		custom := usecase.NewSummaryGenerator(rules)

		summary := custom.Render(&usecase.SummaryInput{
			Manager: types.ManagerNPM,
			Dependencies: []model.DependencyChange{
				{Name: "axios"},
			},
		})
		gt.Equal(t, summary, "deps: axios")
	})
}

func TestPhraseForManager(t *testing.T) {
	emoji, singular, plural := usecase.PhraseForManager(types.ManagerCargo)
	gt.Equal(t, emoji, "🦀")
	gt.Equal(t, singular, "Rust crate")
	gt.Equal(t, plural, "Rust crates")

	emoji, singular, plural = usecase.PhraseForManager(types.ManagerUnknown)
	gt.Equal(t, emoji, "📋")
	gt.Equal(t, singular, "dependency")
	gt.Equal(t, plural, "dependencies")
}
