package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/telemetry"
)

// AnalysisRepositoryInterface defines the repository interface for analysis persistence
type AnalysisRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Analysis) error
	GetLatestByCase(ctx context.Context, caseID string) (*domain.Analysis, error)
}

// ChatClientInterface defines the chat completion capability
type ChatClientInterface interface {
	Complete(ctx context.Context, system, user string, history []domain.Exchange) (string, error)
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// CaseRetriever defines the retrieval capability the answer composers consume
type CaseRetriever interface {
	RetrieveForAnalysis(ctx context.Context, caseID, query string) ([]*domain.RetrievalHit, error)
	RetrieveForQuestion(ctx context.Context, caseID, query string) ([]*domain.RetrievalHit, error)
	EnsureIndexed(ctx context.Context, caseID string) error
}

// AnalysisService runs the structured case analysis: it builds the case
// question from the intake metadata, retrieves context, prompts the chat
// model for a JSON analysis, and validates the result against the issue
// taxonomy before persisting it.
type AnalysisService struct {
	caseRepo     CaseRepositoryInterface
	documentRepo DocumentRepositoryInterface
	retriever    CaseRetriever
	chat         ChatClientInterface
	analysisRepo AnalysisRepositoryInterface
	model        string
	uuidGen      UUIDGenerator
}

// NewAnalysisService creates a new AnalysisService instance. The model name
// is informational and recorded on persisted analyses.
func NewAnalysisService(
	caseRepo CaseRepositoryInterface,
	documentRepo DocumentRepositoryInterface,
	retriever CaseRetriever,
	chat ChatClientInterface,
	analysisRepo AnalysisRepositoryInterface,
	model string,
) *AnalysisService {
	return &AnalysisService{
		caseRepo:     caseRepo,
		documentRepo: documentRepo,
		retriever:    retriever,
		chat:         chat,
		analysisRepo: analysisRepo,
		model:        model,
		uuidGen:      &DefaultUUIDGenerator{},
	}
}

// analysisPayload is the JSON shape requested from the chat model
type analysisPayload struct {
	Analysis string       `json:"analysis"`
	Issues   []modelIssue `json:"issues"`
}

type modelIssue struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	RiskLevel       string `json:"riskLevel"`
	Category        string `json:"category"`
	PartiesInvolved string `json:"partiesInvolved"`
	Citations       string `json:"citations"`
}

var analysisSystemPrompt = buildAnalysisSystemPrompt()

func buildAnalysisSystemPrompt() string {
	categories := make([]string, len(domain.IssueCategories))
	for i, c := range domain.IssueCategories {
		categories[i] = string(c)
	}

	return fmt.Sprintf(`You are an experienced employment and workplace investigations lawyer. You will be given a high-level description of a legal matter and a set of retrieved excerpts from documents. Your task is to produce a formal but easy-to-understand analysis for legal analysts and lawyers.

IMPORTANT:
- Base your analysis ONLY on the provided context.
- If something is not supported by the context, say so explicitly.
- Return your answer as valid JSON with this exact structure:
{
  "analysis": "string - narrative summary with headings like Executive Summary, Key Allegations, Risk Assessment, Recommended Next Steps",
  "issues": [
    {
      "title": "short issue title",
      "description": "2-5 sentence description of the issue",
      "riskLevel": "low" | "medium" | "high" | "unknown",
      "category": "one of: %s",
      "partiesInvolved": "names or roles of key parties, if available",
      "citations": "short references to sources used, e.g. file names"
    }
  ]
}
- Do NOT include any other top-level keys.
- Ensure the JSON is syntactically valid.`, strings.Join(categories, ", "))
}

func analysisUserPrompt(question, contextBlock string) string {
	return fmt.Sprintf("CASE DESCRIPTION (from intake form):\n%s\n\nRETRIEVED CONTEXT:\n%s\n\nNow produce the JSON response as specified.", question, contextBlock)
}

// Analyze produces and persists a structured analysis of a case
func (s *AnalysisService) Analyze(ctx context.Context, caseID string) (*domain.Analysis, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnalysisService.Analyze", telemetry.SpanAttributes{
		CaseID:    caseID,
		Operation: "analyze",
	})
	defer span.End()

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := s.retriever.EnsureIndexed(ctx, caseID); err != nil {
		return nil, err
	}

	fileNames, err := s.documentRepo.ListFileNames(ctx, caseID)
	if err != nil {
		return nil, err
	}

	question := buildCaseQuestion(c.Metadata, fileNames)

	hits, err := s.retriever.RetrieveForAnalysis(ctx, caseID, question)
	if err != nil {
		return nil, err
	}

	raw, err := s.chat.CompleteJSON(ctx, analysisSystemPrompt, analysisUserPrompt(question, buildContext(hits)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChatUnavailable, err)
	}

	var payload analysisPayload
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, err
	}

	summary := strings.TrimSpace(payload.Analysis)
	if summary == "" {
		summary = stripCodeFences(raw)
	}

	analysis := &domain.Analysis{
		ID:        s.uuidGen.NewString(),
		CaseID:    caseID,
		Summary:   summary,
		Issues:    normalizeIssues(payload.Issues),
		Sources:   collectSources(hits),
		Model:     s.model,
		CreatedAt: time.Now().UTC(),
	}

	if err := domain.ValidateAnalysis(analysis); err != nil {
		return nil, err
	}

	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		return nil, err
	}

	if err := s.caseRepo.UpdateStatus(ctx, caseID, domain.CaseStatusAnalyzed); err != nil {
		log.Printf("failed to mark case %s analyzed: %v", caseID, err)
	}

	return analysis, nil
}

// GetLatest returns the most recent persisted analysis of a case
func (s *AnalysisService) GetLatest(ctx context.Context, caseID string) (*domain.Analysis, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnalysisService.GetLatest", telemetry.SpanAttributes{
		CaseID:    caseID,
		Operation: "get",
	})
	defer span.End()

	if _, err := s.caseRepo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}

	return s.analysisRepo.GetLatestByCase(ctx, caseID)
}

// buildCaseQuestion turns the intake metadata into the retrieval query and
// case description used by the analysis prompt.
func buildCaseQuestion(meta domain.CaseMetadata, fileNames []string) string {
	docs := "not specified"
	if len(fileNames) > 0 {
		docs = strings.Join(fileNames, ", ")
	}

	return strings.TrimSpace(fmt.Sprintf(`Matter overview:
%s

People and aliases:
%s

Noteworthy organizations:
%s

Noteworthy terms:
%s

Additional context:
%s

Documents provided (filenames):
%s`,
		strings.TrimSpace(meta.Overview),
		strings.TrimSpace(meta.People),
		strings.TrimSpace(meta.Organizations),
		strings.TrimSpace(meta.Terms),
		strings.TrimSpace(meta.AdditionalContext),
		docs,
	))
}

// buildContext renders retrieval hits into the prompt context block
func buildContext(hits []*domain.RetrievalHit) string {
	var b strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&b, "Source: %s | Score: %.4f\n", hit.Chunk.SourceFile, hit.Score)
		b.WriteString(hit.Chunk.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// collectSources lists the unique source files of the hits in first-seen
// order. Hits arrive ranked, so the recorded score is the file's best one.
func collectSources(hits []*domain.RetrievalHit) []domain.SourceRef {
	var sources []domain.SourceRef
	seen := make(map[string]bool)
	for _, hit := range hits {
		if seen[hit.Chunk.SourceFile] {
			continue
		}
		seen[hit.Chunk.SourceFile] = true
		sources = append(sources, domain.SourceRef{File: hit.Chunk.SourceFile, Score: hit.Score})
	}
	return sources
}

// normalizeIssues coerces the model's issues into the fixed taxonomy. The
// model output is untrusted: risk levels and categories are normalized
// field by field, and an issue is only dropped when it carries no content
// at all.
func normalizeIssues(raw []modelIssue) []domain.Issue {
	issues := make([]domain.Issue, 0, len(raw))
	for _, entry := range raw {
		title := strings.TrimSpace(entry.Title)
		description := strings.TrimSpace(entry.Description)
		if title == "" && description == "" {
			continue
		}
		if title == "" {
			title = "Untitled issue"
		}

		issues = append(issues, domain.Issue{
			Title:           title,
			Description:     description,
			RiskLevel:       domain.NormalizeRiskLevel(entry.RiskLevel),
			Category:        domain.NormalizeIssueCategory(entry.Category),
			PartiesInvolved: strings.TrimSpace(entry.PartiesInvolved),
			Citations:       strings.TrimSpace(entry.Citations),
		})
	}
	return issues
}
