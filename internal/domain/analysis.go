package domain

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel grades the severity of an identified issue
type RiskLevel string

const (
	RiskLevelLow     RiskLevel = "low"
	RiskLevelMedium  RiskLevel = "medium"
	RiskLevelHigh    RiskLevel = "high"
	RiskLevelUnknown RiskLevel = "unknown"
)

// IssueCategory classifies an issue into the fixed review taxonomy
type IssueCategory string

const (
	CategoryWorkplaceMisconduct  IssueCategory = "workplace misconduct"
	CategoryPolicyViolation      IssueCategory = "policy violation"
	CategoryCompliance           IssueCategory = "compliance"
	CategoryContract             IssueCategory = "contract"
	CategoryFraud                IssueCategory = "fraud"
	CategoryCybersecurity        IssueCategory = "cybersecurity"
	CategoryIntellectualProperty IssueCategory = "intellectual property"
	CategoryOperational          IssueCategory = "operational"
	CategoryLegalProcess         IssueCategory = "legal process"
	CategoryCommunication        IssueCategory = "communication"
	CategoryGovernance           IssueCategory = "governance"
)

// IssueCategories lists every category in the taxonomy
var IssueCategories = []IssueCategory{
	CategoryWorkplaceMisconduct,
	CategoryPolicyViolation,
	CategoryCompliance,
	CategoryContract,
	CategoryFraud,
	CategoryCybersecurity,
	CategoryIntellectualProperty,
	CategoryOperational,
	CategoryLegalProcess,
	CategoryCommunication,
	CategoryGovernance,
}

// Issue is one finding produced by a case analysis
type Issue struct {
	Title           string
	Description     string
	RiskLevel       RiskLevel
	Category        IssueCategory
	PartiesInvolved string
	Citations       string
}

// SourceRef names a source file that contributed retrieved context,
// with the best similarity score any of its chunks achieved
type SourceRef struct {
	File  string
	Score float64
}

// Analysis is the structured result of analyzing a case
type Analysis struct {
	ID        string
	CaseID    string
	Summary   string
	Issues    []Issue
	Sources   []SourceRef
	Model     string
	CreatedAt time.Time
}

// NormalizeRiskLevel coerces a provider-supplied risk value into the fixed
// set. Anything unrecognized, including the empty string, maps to unknown
// rather than invalidating the issue.
func NormalizeRiskLevel(raw string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case RiskLevelLow:
		return RiskLevelLow
	case RiskLevelMedium:
		return RiskLevelMedium
	case RiskLevelHigh:
		return RiskLevelHigh
	}
	return RiskLevelUnknown
}

// NormalizeIssueCategory coerces a provider-supplied category into the
// taxonomy. Unrecognized values map to the operational bucket.
func NormalizeIssueCategory(raw string) IssueCategory {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = strings.Join(strings.Fields(normalized), " ")

	for _, c := range IssueCategories {
		if normalized == string(c) {
			return c
		}
	}
	return CategoryOperational
}

// ValidateAnalysis validates an Analysis instance
func ValidateAnalysis(a *Analysis) error {
	if a == nil {
		return fmt.Errorf("analysis cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("analysis ID is required")
	}

	if a.CaseID == "" {
		return fmt.Errorf("analysis CaseID is required")
	}

	for i, issue := range a.Issues {
		if issue.Title == "" {
			return fmt.Errorf("issue %d: Title is required", i)
		}
		if !isValidRiskLevel(issue.RiskLevel) {
			return fmt.Errorf("issue %d: RiskLevel is invalid: %s", i, issue.RiskLevel)
		}
		if !isValidIssueCategory(issue.Category) {
			return fmt.Errorf("issue %d: Category is invalid: %s", i, issue.Category)
		}
	}

	return nil
}

// isValidRiskLevel checks if a RiskLevel is valid
func isValidRiskLevel(r RiskLevel) bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelUnknown:
		return true
	}
	return false
}

// isValidIssueCategory checks if an IssueCategory is in the taxonomy
func isValidIssueCategory(c IssueCategory) bool {
	for _, known := range IssueCategories {
		if c == known {
			return true
		}
	}
	return false
}
