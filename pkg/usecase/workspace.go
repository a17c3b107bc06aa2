package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// highRiskPackageCount is the affected-package count above which workspace
// risk is high
const highRiskPackageCount = 5

// WorkspaceAnalyzer discovers a monorepo workspace and computes package
// relationships for the dependencies being updated
type WorkspaceAnalyzer struct {
	rules model.WorkspaceRules
}

// NewWorkspaceAnalyzer creates a new WorkspaceAnalyzer
func NewWorkspaceAnalyzer(rules model.WorkspaceRules) *WorkspaceAnalyzer {
	if rules.MaxPackagesToAnalyze <= 0 {
		rules.MaxPackagesToAnalyze = model.DefaultRules().Workspace.MaxPackagesToAnalyze
	}
	return &WorkspaceAnalyzer{rules: rules}
}

// Analyze inspects the workspace (if any) rooted at the configured directory.
// Every introspection failure degrades to a single-package result; the
// pipeline must still produce a changeset when workspace discovery fails
// entirely.
func (a *WorkspaceAnalyzer) Analyze(ctx context.Context, deps []model.DependencyChange, changedFiles []model.ChangedFile) *model.WorkspaceAnalysis {
	logger := ctxlog.From(ctx)

	analysis := &model.WorkspaceAnalysis{
		RiskLevel: types.RiskLow,
		Strategy:  types.StrategySingle,
	}

	packages := a.discoverPackages(ctx)
	if len(packages) == 0 {
		logger.Debug("No workspace discovered, using single-package strategy")
		return analysis
	}
	analysis.Packages = packages

	analysis.AffectedPackages = affectedPackages(packages, deps, changedFiles)
	analysis.Relationships = packageRelationships(packages, deps)

	analysis.Strategy = decideStrategy(analysis)
	analysis.RiskLevel = workspaceRisk(analysis, deps)

	if analysis.Strategy == types.StrategyMultiple {
		analysis.SplitRecommended = true
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("affected packages share no relationships; consider %d separate changesets", len(analysis.AffectedPackages)))
	}

	logger.Info("Workspace analysis complete",
		"packages", len(analysis.Packages),
		"affected", len(analysis.AffectedPackages),
		"relationships", len(analysis.Relationships),
		"strategy", analysis.Strategy,
		"risk", analysis.RiskLevel,
	)

	return analysis
}

// discoverPackages reads the root manifest and enumerates workspace members.
// Member globs are expanded deterministically and truncated at
// MaxPackagesToAnalyze.
func (a *WorkspaceAnalyzer) discoverPackages(ctx context.Context) []model.WorkspacePackage {
	logger := ctxlog.From(ctx)
	root := a.rules.Root
	if root == "" {
		root = "."
	}

	globs := workspaceGlobs(root)
	if len(globs) == 0 {
		return nil
	}

	var dirs []string
	for _, pattern := range globs {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			continue
		}
		dirs = append(dirs, matches...)
	}
	sort.Strings(dirs)

	var packages []model.WorkspacePackage
	for _, dir := range dirs {
		if len(packages) >= a.rules.MaxPackagesToAnalyze {
			logger.Warn("Workspace member limit reached, truncating",
				"limit", a.rules.MaxPackagesToAnalyze)
			break
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if pkg := readMemberManifest(root, dir); pkg != nil {
			packages = append(packages, *pkg)
		}
	}

	return packages
}

// workspaceGlobs extracts member glob patterns from whichever root manifest
// declares a workspace. Unparseable manifests yield no globs.
func workspaceGlobs(root string) []string {
	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		if globs := parseNPMWorkspaces(data); len(globs) > 0 {
			return globs
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml")); err == nil {
		if globs := parsePnpmWorkspace(data); len(globs) > 0 {
			return globs
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "Cargo.toml")); err == nil {
		if globs := parseCargoWorkspace(data); len(globs) > 0 {
			return globs
		}
	}
	return nil
}

// parseNPMWorkspaces handles both the array and the {packages: []} forms
func parseNPMWorkspaces(data []byte) []string {
	var direct struct {
		Workspaces []string `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &direct); err == nil && len(direct.Workspaces) > 0 {
		return direct.Workspaces
	}

	var nested struct {
		Workspaces struct {
			Packages []string `json:"packages"`
		} `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &nested); err == nil {
		return nested.Workspaces.Packages
	}
	return nil
}

func parsePnpmWorkspace(data []byte) []string {
	var parsed struct {
		Packages []string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil
	}
	return parsed.Packages
}

func parseCargoWorkspace(data []byte) []string {
	var parsed struct {
		Workspace struct {
			Members []string `toml:"members"`
		} `toml:"workspace"`
	}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil
	}
	return parsed.Workspace.Members
}

// readMemberManifest parses one member directory's manifest. Missing or
// unparseable manifests return nil; a single bad member must not block the
// rest of the workspace.
func readMemberManifest(root, dir string) *model.WorkspacePackage {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}

	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		var manifest struct {
			Name            string            `json:"name"`
			Version         string            `json:"version"`
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
		}
		if err := json.Unmarshal(data, &manifest); err == nil && manifest.Name != "" {
			depMap := map[string]string{}
			for name, ver := range manifest.Dependencies {
				depMap[name] = ver
			}
			for name, ver := range manifest.DevDependencies {
				depMap[name] = ver
			}
			return &model.WorkspacePackage{
				Name:         manifest.Name,
				Version:      manifest.Version,
				Path:         filepath.Join(rel, "package.json"),
				Dependencies: depMap,
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml")); err == nil {
		var manifest struct {
			Package struct {
				Name    string `toml:"name"`
				Version string `toml:"version"`
			} `toml:"package"`
			Dependencies map[string]any `toml:"dependencies"`
		}
		if err := toml.Unmarshal(data, &manifest); err == nil && manifest.Package.Name != "" {
			depMap := map[string]string{}
			for name, spec := range manifest.Dependencies {
				switch v := spec.(type) {
				case string:
					depMap[name] = v
				default:
					depMap[name] = ""
				}
			}
			return &model.WorkspacePackage{
				Name:         manifest.Package.Name,
				Version:      manifest.Package.Version,
				Path:         filepath.Join(rel, "Cargo.toml"),
				Dependencies: depMap,
			}
		}
	}

	return nil
}

// affectedPackages selects packages that declare an updated dependency or
// whose directory contains a changed file
func affectedPackages(packages []model.WorkspacePackage, deps []model.DependencyChange, changedFiles []model.ChangedFile) []string {
	affected := map[string]bool{}

	for _, pkg := range packages {
		for _, dep := range deps {
			if _, ok := pkg.Dependencies[dep.Name]; ok {
				affected[pkg.Name] = true
			}
		}
		pkgDir := filepath.Dir(pkg.Path)
		for _, file := range changedFiles {
			if strings.HasPrefix(file.Filename, pkgDir+"/") {
				affected[pkg.Name] = true
			}
		}
	}

	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// packageRelationships computes internal-dependency and version-consistency
// edges. Version-consistency edges are recorded in both directions whether
// or not the declared ranges already match.
func packageRelationships(packages []model.WorkspacePackage, deps []model.DependencyChange) []model.PackageRelationship {
	var relations []model.PackageRelationship

	byName := map[string]bool{}
	for _, pkg := range packages {
		byName[pkg.Name] = true
	}

	for _, consumer := range packages {
		for depName := range consumer.Dependencies {
			if byName[depName] && depName != consumer.Name {
				relations = append(relations, model.PackageRelationship{
					From:       consumer.Name,
					To:         depName,
					Type:       types.RelationInternalDependency,
					Dependency: depName,
				})
			}
		}
	}

	for _, dep := range deps {
		for i := range packages {
			for j := range packages {
				if i == j {
					continue
				}
				_, iHas := packages[i].Dependencies[dep.Name]
				_, jHas := packages[j].Dependencies[dep.Name]
				if iHas && jHas {
					relations = append(relations, model.PackageRelationship{
						From:       packages[i].Name,
						To:         packages[j].Name,
						Type:       types.RelationVersionConsistency,
						Dependency: dep.Name,
					})
				}
			}
		}
	}

	sort.SliceStable(relations, func(i, j int) bool {
		if relations[i].From != relations[j].From {
			return relations[i].From < relations[j].From
		}
		if relations[i].To != relations[j].To {
			return relations[i].To < relations[j].To
		}
		return relations[i].Type < relations[j].Type
	})

	return relations
}

// decideStrategy picks the changeset strategy deterministically
func decideStrategy(analysis *model.WorkspaceAnalysis) types.ChangesetStrategy {
	affected := map[string]bool{}
	for _, name := range analysis.AffectedPackages {
		affected[name] = true
	}

	related := false
	for _, rel := range analysis.Relationships {
		if affected[rel.From] || affected[rel.To] {
			related = true
			break
		}
	}

	switch {
	case len(analysis.AffectedPackages) <= 1 && !related:
		return types.StrategySingle
	case related:
		return types.StrategyGrouped
	default:
		return types.StrategyMultiple
	}
}

// workspaceRisk scales risk by affected count, relationship count and the
// dependency risk signals
func workspaceRisk(analysis *model.WorkspaceAnalysis, deps []model.DependencyChange) types.RiskLevel {
	if len(analysis.AffectedPackages) > highRiskPackageCount {
		return types.RiskHigh
	}

	elevated := len(analysis.Relationships) > 0
	for _, dep := range deps {
		if dep.IsSecurityUpdate || dep.UpdateType == types.BumpMajor {
			elevated = true
		}
	}
	if elevated && len(analysis.AffectedPackages) > 0 {
		return types.RiskMedium
	}
	return types.RiskLow
}
