package domain

import (
	"fmt"
	"strings"
	"time"
)

// CaseStatus represents the lifecycle status of a case
type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "open"
	CaseStatusAnalyzed CaseStatus = "analyzed"
	CaseStatusClosed   CaseStatus = "closed"
)

// CaseMetadata holds the intake record supplied with a case. Every field is
// free text and optional; the analysis prompt folds the non-empty ones in.
type CaseMetadata struct {
	Overview          string
	People            string
	Organizations     string
	Terms             string
	AdditionalContext string
}

// IsEmpty reports whether no metadata field carries content
func (m CaseMetadata) IsEmpty() bool {
	return strings.TrimSpace(m.Overview) == "" &&
		strings.TrimSpace(m.People) == "" &&
		strings.TrimSpace(m.Organizations) == "" &&
		strings.TrimSpace(m.Terms) == "" &&
		strings.TrimSpace(m.AdditionalContext) == ""
}

// Case represents a matter under investigation
type Case struct {
	ID        string
	Title     string
	Status    CaseStatus
	Metadata  CaseMetadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCase creates a new Case instance
func NewCase(id, title string, metadata CaseMetadata, createdAt time.Time) *Case {
	return &Case{
		ID:        id,
		Title:     title,
		Status:    CaseStatusOpen,
		Metadata:  metadata,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidateCase validates a Case instance
func ValidateCase(c *Case) error {
	if c == nil {
		return fmt.Errorf("case cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("case ID is required")
	}

	if c.Title == "" {
		return fmt.Errorf("case Title is required")
	}

	if !isValidCaseStatus(c.Status) {
		return fmt.Errorf("case Status is invalid: %s", c.Status)
	}

	return nil
}

// isValidCaseStatus checks if a CaseStatus is valid
func isValidCaseStatus(s CaseStatus) bool {
	switch s {
	case CaseStatusOpen, CaseStatusAnalyzed, CaseStatusClosed:
		return true
	}
	return false
}
