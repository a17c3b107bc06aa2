package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// CategorizedDependency joins a dependency with its resolved category
type CategorizedDependency struct {
	Dependency          DependencyChange
	Category            types.Category
	SecondaryCategories []types.Category
	HighPriority        bool
	RiskLevel           float64
	RiskBucket          types.RiskLevel
	Reasons             []string
}

// CategorizationResult is the categorization engine's aggregate output
type CategorizationResult struct {
	Dependencies    []CategorizedDependency
	PrimaryCategory types.Category
	AllCategories   []types.Category // distinct, precedence order
	CategoryCounts  map[types.Category]int
	AverageRisk     float64
	Confidence      types.Confidence
	RecommendedType types.BumpType
}
