package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3

	// DefaultClaimLimit bounds how many jobs one pass claims
	DefaultClaimLimit = 100
)

// EmbeddingJobRepository defines the interface for embedding job persistence
type EmbeddingJobRepository interface {
	// ClaimPending atomically claims up to limit pending jobs for processing
	ClaimPending(ctx context.Context, limit int) ([]*domain.EmbeddingJob, error)

	// UpdateStatus updates the status of an embedding job
	UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// DocumentEmbedder embeds the pending chunks of one document
type DocumentEmbedder interface {
	ProcessDocument(ctx context.Context, documentID string) (*service.EmbedOutcome, error)
}

// EmbeddingWorker drains the embedding job queue. Each job covers one
// ingested document; the worker embeds that document's pending chunks and
// records the outcome on the job row.
type EmbeddingWorker struct {
	repo       EmbeddingJobRepository
	embedder   DocumentEmbedder
	claimLimit int
}

// NewEmbeddingWorker creates a new EmbeddingWorker instance
func NewEmbeddingWorker(repo EmbeddingJobRepository, embedder DocumentEmbedder) *EmbeddingWorker {
	return &EmbeddingWorker{
		repo:       repo,
		embedder:   embedder,
		claimLimit: DefaultClaimLimit,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *EmbeddingWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, w.claimLimit)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending embedding jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *EmbeddingWorker) processJob(ctx context.Context, job *domain.EmbeddingJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.DocumentID)

	outcome, err := w.embedder.ProcessDocument(ctx, job.DocumentID)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	// Chunk-level failures are terminal: the chunks are marked failed and a
	// re-run would not see them as pending again. The job completes either
	// way, with the failure count recorded on the row.
	errMsg := ""
	if outcome.Failed > 0 {
		errMsg = fmt.Sprintf("%d of %d chunks failed embedding", outcome.Failed, outcome.Ready+outcome.Failed)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusCompleted, errMsg); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d chunks ready, %d failed", job.ID, outcome.Ready, outcome.Failed)
	return nil
}

// handleJobFailure requeues a job that hit an infrastructure failure, marking
// it failed once the attempt budget is spent.
func (w *EmbeddingWorker) handleJobFailure(ctx context.Context, job *domain.EmbeddingJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
