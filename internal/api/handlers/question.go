package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Aashrithhh/Legal-Assistant/internal/api"
	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
	"github.com/go-chi/chi/v5"
)

type QuestionService interface {
	Ask(ctx context.Context, input service.AskInput) (*service.AskOutput, error)
}

type QuestionHandler struct {
	svc QuestionService
}

func NewQuestionHandler(svc QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

type ExchangePayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AskRequest struct {
	Question string            `json:"question"`
	History  []ExchangePayload `json:"history,omitempty"`
}

type AskResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
}

func (h *QuestionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history := make([]domain.Exchange, len(req.History))
	for i, e := range req.History {
		history[i] = domain.Exchange{Question: e.Question, Answer: e.Answer}
	}

	output, err := h.svc.Ask(r.Context(), service.AskInput{
		CaseID:   caseID,
		Question: req.Question,
		History:  history,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]SourceResponse, len(output.Sources))
	for i, src := range output.Sources {
		sources[i] = SourceResponse{File: src.File, Score: src.Score}
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:  output.Answer,
		Sources: sources,
	})
}
