package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// BumpAlternative is a bump type that was considered viable at some stage
type BumpAlternative struct {
	BumpType types.BumpType
	Source   string // rule stage that proposed it
}

// DecisionRisk is the risk assessment attached to a bump decision
type DecisionRisk struct {
	Level   types.RiskLevel
	Score   float64
	Factors []string
}

// BumpDecision is the final output of the decision engine
type BumpDecision struct {
	BumpType           types.BumpType
	Confidence         types.Confidence
	PrimaryReason      string
	ReasoningChain     []string
	OverriddenRules    []string
	InfluencingFactors []string
	Risk               DecisionRisk
	Alternatives       []BumpAlternative
}
