package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// AnalysisRepository persists structured case analyses.
type AnalysisRepository struct {
	db dbtx
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: pool}
}

func NewAnalysisRepositoryWithTx(tx pgx.Tx) *AnalysisRepository {
	return &AnalysisRepository{db: tx}
}

// issueRecord mirrors domain.Issue for JSONB storage with stable keys.
type issueRecord struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	RiskLevel       string `json:"riskLevel"`
	Category        string `json:"category"`
	PartiesInvolved string `json:"partiesInvolved"`
	Citations       string `json:"citations"`
}

type sourceRecord struct {
	File  string  `json:"file"`
	Score float64 `json:"score"`
}

func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	issues := make([]issueRecord, 0, len(a.Issues))
	for _, issue := range a.Issues {
		issues = append(issues, issueRecord{
			Title:           issue.Title,
			Description:     issue.Description,
			RiskLevel:       string(issue.RiskLevel),
			Category:        string(issue.Category),
			PartiesInvolved: issue.PartiesInvolved,
			Citations:       issue.Citations,
		})
	}
	sources := make([]sourceRecord, 0, len(a.Sources))
	for _, src := range a.Sources {
		sources = append(sources, sourceRecord{File: src.File, Score: src.Score})
	}

	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return err
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO analyses (id, case_id, summary, issues, sources, model, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.CaseID, a.Summary, issuesJSON, sourcesJSON, nullableString(a.Model), a.CreatedAt,
	)
	return err
}

func (r *AnalysisRepository) GetLatestByCase(ctx context.Context, caseID string) (*domain.Analysis, error) {
	var a domain.Analysis
	var issuesJSON, sourcesJSON []byte
	var model *string
	err := r.db.QueryRow(ctx,
		`SELECT id, case_id, summary, issues, sources, model, created_at
		 FROM analyses
		 WHERE case_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		caseID,
	).Scan(&a.ID, &a.CaseID, &a.Summary, &issuesJSON, &sourcesJSON, &model, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnalysisNotFound
		}
		return nil, err
	}
	if model != nil {
		a.Model = *model
	}

	var issues []issueRecord
	if len(issuesJSON) > 0 {
		if err := json.Unmarshal(issuesJSON, &issues); err != nil {
			return nil, err
		}
	}
	for _, rec := range issues {
		a.Issues = append(a.Issues, domain.Issue{
			Title:           rec.Title,
			Description:     rec.Description,
			RiskLevel:       domain.RiskLevel(rec.RiskLevel),
			Category:        domain.IssueCategory(rec.Category),
			PartiesInvolved: rec.PartiesInvolved,
			Citations:       rec.Citations,
		})
	}

	var sources []sourceRecord
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &sources); err != nil {
			return nil, err
		}
	}
	for _, rec := range sources {
		a.Sources = append(a.Sources, domain.SourceRef{File: rec.File, Score: rec.Score})
	}

	return &a, nil
}
