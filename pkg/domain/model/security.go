package model

import "github.com/m-mizutani/bellwether/pkg/domain/types"

// Vulnerability is a single identifiable advisory attached to a dependency
type Vulnerability struct {
	ID       string // CVE or advisory identifier when known
	Severity types.Severity
	Summary  string
}

// SecurityAssessment is the security detector's verdict for one dependency.
// Vulnerabilities may be empty even when HasSecurityIssues is true: absence
// of enumerable CVEs is not absence of risk.
type SecurityAssessment struct {
	DependencyName    string
	HasSecurityIssues bool
	OverallSeverity   types.Severity
	Vulnerabilities   []Vulnerability
	CVECount          int
	RecommendedAction types.SecurityAction
	Confidence        types.Confidence
	Reasons           []string
}
