package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEmbeddingJobRepository is a mock implementation of EmbeddingJobRepository
type MockEmbeddingJobRepository struct {
	mock.Mock
}

func (m *MockEmbeddingJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.EmbeddingJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmbeddingJob), args.Error(1)
}

func (m *MockEmbeddingJobRepository) UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockEmbeddingJobRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDocumentEmbedder is a mock implementation of DocumentEmbedder
type MockDocumentEmbedder struct {
	mock.Mock
}

func (m *MockDocumentEmbedder) ProcessDocument(ctx context.Context, documentID string) (*service.EmbedOutcome, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EmbedOutcome), args.Error(1)
}

func pendingJob(id, documentID string, retries int32) *domain.EmbeddingJob {
	return &domain.EmbeddingJob{
		ID:         id,
		DocumentID: documentID,
		Status:     domain.EmbeddingJobStatusPending,
		Retries:    retries,
	}
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_RunsImmediatelyOnStart tests that the first pass does not wait
// for the poll interval
func TestWorker_RunsImmediatelyOnStart(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertNumberOfCalls(t, "ProcessJobs", 1)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestEmbeddingWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestEmbeddingWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return([]*domain.EmbeddingJob{}, nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything)
}

// TestEmbeddingWorker_ProcessJobs_Success tests successful job processing
func TestEmbeddingWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	job := pendingJob("job-1", "doc-1", 0)

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessDocument", mock.Anything, "doc-1").Return(&service.EmbedOutcome{Ready: 5}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusCompleted, "").Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
}

// TestEmbeddingWorker_ProcessJobs_PartialChunkFailure tests that chunk-level
// failures complete the job with the failure count recorded
func TestEmbeddingWorker_ProcessJobs_PartialChunkFailure(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	job := pendingJob("job-1", "doc-1", 0)

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessDocument", mock.Anything, "doc-1").Return(&service.EmbedOutcome{Ready: 3, Failed: 2}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusCompleted, "2 of 5 chunks failed embedding").Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "IncrementRetries", mock.Anything, mock.Anything)
}

// TestEmbeddingWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestEmbeddingWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	job := pendingJob("job-1", "doc-1", 0)

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessDocument", mock.Anything, "doc-1").Return(nil, errors.New("database error"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
}

// TestEmbeddingWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestEmbeddingWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	job := pendingJob("job-1", "doc-1", 2)

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessDocument", mock.Anything, "doc-1").Return(nil, errors.New("database error"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
}

// TestEmbeddingWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestEmbeddingWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	jobs := []*domain.EmbeddingJob{
		pendingJob("job-1", "doc-1", 0),
		pendingJob("job-2", "doc-2", 0),
	}

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return(jobs, nil)

	// First document embeds cleanly, the second hits an infrastructure
	// failure; the second job is requeued without blocking the first.
	mockEmbedder.On("ProcessDocument", mock.Anything, "doc-1").Return(&service.EmbedOutcome{Ready: 2}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusCompleted, "").Return(nil)

	mockEmbedder.On("ProcessDocument", mock.Anything, "doc-2").Return(nil, errors.New("timeout"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-2").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-2", domain.EmbeddingJobStatusPending, mock.Anything).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
}

// TestEmbeddingWorker_ProcessJobs_RepositoryError tests repository error handling
func TestEmbeddingWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockDocumentEmbedder)

	mockRepo.On("ClaimPending", mock.Anything, DefaultClaimLimit).Return(nil, errors.New("database error"))

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to claim pending jobs")
	mockRepo.AssertExpectations(t)
}
