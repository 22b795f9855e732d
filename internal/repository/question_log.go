package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aashrithhh/Legal-Assistant/internal/service"
)

// QuestionLogRepository stores answered questions for audit and evaluation.
type QuestionLogRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionLogRepository(pool *pgxpool.Pool) *QuestionLogRepository {
	return &QuestionLogRepository{pool: pool}
}

func (r *QuestionLogRepository) CreateQuestionLog(ctx context.Context, entry service.QuestionLogEntry) (string, error) {
	sources := make([]sourceRecord, 0, len(entry.Sources))
	for _, src := range entry.Sources {
		sources = append(sources, sourceRecord{File: src.File, Score: src.Score})
	}
	sourcesJSON, _ := json.Marshal(sources)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO question_logs (case_id, question, answer, sources, history_length, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		entry.CaseID,
		entry.Question,
		entry.Answer,
		sourcesJSON,
		entry.HistoryLength,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
