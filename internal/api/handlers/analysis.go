package handlers

import (
	"context"
	"net/http"

	"github.com/Aashrithhh/Legal-Assistant/internal/api"
	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AnalysisService interface {
	Analyze(ctx context.Context, caseID string) (*domain.Analysis, error)
	GetLatest(ctx context.Context, caseID string) (*domain.Analysis, error)
}

type AnalysisHandler struct {
	svc AnalysisService
}

func NewAnalysisHandler(svc AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

type IssueResponse struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	RiskLevel       string `json:"risk_level"`
	Category        string `json:"category"`
	PartiesInvolved string `json:"parties_involved,omitempty"`
	Citations       string `json:"citations,omitempty"`
}

type SourceResponse struct {
	File  string  `json:"file"`
	Score float64 `json:"score"`
}

type AnalysisResponse struct {
	ID        string           `json:"id"`
	CaseID    string           `json:"case_id"`
	Summary   string           `json:"summary"`
	Issues    []IssueResponse  `json:"issues"`
	Sources   []SourceResponse `json:"sources"`
	Model     string           `json:"model,omitempty"`
	CreatedAt string           `json:"created_at"`
}

func analysisToResponse(a *domain.Analysis) *AnalysisResponse {
	resp := &AnalysisResponse{
		ID:        a.ID,
		CaseID:    a.CaseID,
		Summary:   a.Summary,
		Issues:    make([]IssueResponse, len(a.Issues)),
		Sources:   make([]SourceResponse, len(a.Sources)),
		Model:     a.Model,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for i, issue := range a.Issues {
		resp.Issues[i] = IssueResponse{
			Title:           issue.Title,
			Description:     issue.Description,
			RiskLevel:       string(issue.RiskLevel),
			Category:        string(issue.Category),
			PartiesInvolved: issue.PartiesInvolved,
			Citations:       issue.Citations,
		}
	}
	for i, src := range a.Sources {
		resp.Sources[i] = SourceResponse{File: src.File, Score: src.Score}
	}
	return resp
}

func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	analysis, err := h.svc.Analyze(r.Context(), caseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, analysisToResponse(analysis))
}

func (h *AnalysisHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	analysis, err := h.svc.GetLatest(r.Context(), caseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, analysisToResponse(analysis))
}
