package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Aashrithhh/Legal-Assistant/internal/api"
	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
	"github.com/go-chi/chi/v5"
)

type CaseService interface {
	Create(ctx context.Context, input service.CreateCaseInput) (*domain.Case, error)
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context, input service.ListCasesInput) (*service.ListCasesOutput, error)
	UpdateMetadata(ctx context.Context, id string, meta domain.CaseMetadata) (*domain.Case, error)
	Delete(ctx context.Context, id string) error
}

type CaseHandler struct {
	svc CaseService
}

func NewCaseHandler(svc CaseService) *CaseHandler {
	return &CaseHandler{svc: svc}
}

// CaseMetadataPayload carries the intake form fields. Every field is free
// text and optional.
type CaseMetadataPayload struct {
	MatterOverview          string `json:"matter_overview"`
	PeopleAndAliases        string `json:"people_and_aliases"`
	NoteworthyOrganizations string `json:"noteworthy_organizations"`
	NoteworthyTerms         string `json:"noteworthy_terms"`
	AdditionalContext       string `json:"additional_context"`
}

func (p CaseMetadataPayload) toDomain() domain.CaseMetadata {
	return domain.CaseMetadata{
		Overview:          p.MatterOverview,
		People:            p.PeopleAndAliases,
		Organizations:     p.NoteworthyOrganizations,
		Terms:             p.NoteworthyTerms,
		AdditionalContext: p.AdditionalContext,
	}
}

func metadataToPayload(m domain.CaseMetadata) CaseMetadataPayload {
	return CaseMetadataPayload{
		MatterOverview:          m.Overview,
		PeopleAndAliases:        m.People,
		NoteworthyOrganizations: m.Organizations,
		NoteworthyTerms:         m.Terms,
		AdditionalContext:       m.AdditionalContext,
	}
}

type CreateCaseRequest struct {
	Title    string              `json:"title"`
	Metadata CaseMetadataPayload `json:"metadata"`
}

type CaseResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Status    string              `json:"status"`
	Metadata  CaseMetadataPayload `json:"metadata"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

func caseToResponse(c *domain.Case) *CaseResponse {
	return &CaseResponse{
		ID:        c.ID,
		Title:     c.Title,
		Status:    string(c.Status),
		Metadata:  metadataToPayload(c.Metadata),
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	input := service.CreateCaseInput{
		Title:             req.Title,
		Overview:          req.Metadata.MatterOverview,
		People:            req.Metadata.PeopleAndAliases,
		Organizations:     req.Metadata.NoteworthyOrganizations,
		Terms:             req.Metadata.NoteworthyTerms,
		AdditionalContext: req.Metadata.AdditionalContext,
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, caseToResponse(created))
}

func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	c, err := h.svc.GetByID(r.Context(), caseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, caseToResponse(c))
}

type CaseListResponse struct {
	Items   []*CaseResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 0
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListCasesInput{
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*CaseResponse, len(output.Items))
	for i, c := range output.Items {
		responses[i] = caseToResponse(c)
	}

	api.Success(w, http.StatusOK, CaseListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *CaseHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	var req CaseMetadataPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.UpdateMetadata(r.Context(), caseID, req.toDomain())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, caseToResponse(updated))
}

func (h *CaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), caseID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": caseID, "status": "deleted"})
}
