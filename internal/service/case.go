package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/pagination"
	"github.com/Aashrithhh/Legal-Assistant/internal/telemetry"
)

// CaseRepositoryInterface defines the repository interface for case persistence
type CaseRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*CasePageResult, error)
	UpdateMetadata(ctx context.Context, id string, meta domain.CaseMetadata) error
	UpdateStatus(ctx context.Context, id string, status domain.CaseStatus) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type CasePageResult struct {
	Items      []*domain.Case
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// CaseService handles business logic for cases
type CaseService struct {
	caseRepo CaseRepositoryInterface
	storage  StorageClientInterface
	uuidGen  UUIDGenerator
}

// NewCaseService creates a new CaseService instance
func NewCaseService(caseRepo CaseRepositoryInterface) *CaseService {
	return &CaseService{
		caseRepo: caseRepo,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// NewCaseServiceWithStorage creates a CaseService that also removes archived
// uploads from object storage on case teardown
func NewCaseServiceWithStorage(caseRepo CaseRepositoryInterface, storage StorageClientInterface) *CaseService {
	return &CaseService{
		caseRepo: caseRepo,
		storage:  storage,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// NewCaseServiceWithUUIDGen creates a new CaseService with custom UUID generator (for testing)
func NewCaseServiceWithUUIDGen(caseRepo CaseRepositoryInterface, storage StorageClientInterface, uuidGen UUIDGenerator) *CaseService {
	return &CaseService{
		caseRepo: caseRepo,
		storage:  storage,
		uuidGen:  uuidGen,
	}
}

// CreateCaseInput represents the input for creating a case
type CreateCaseInput struct {
	Title             string
	Overview          string
	People            string
	Organizations     string
	Terms             string
	AdditionalContext string
}

type ListCasesInput struct {
	Cursor string
	Limit  int
}

type ListCasesOutput struct {
	Items   []*domain.Case
	Cursor  string
	HasMore bool
}

// Create creates a new case with its intake metadata record
func (s *CaseService) Create(ctx context.Context, input CreateCaseInput) (*domain.Case, error) {
	ctx, span := telemetry.StartSpan(ctx, "CaseService.Create", telemetry.SpanAttributes{
		Operation: "create",
	})
	defer span.End()

	now := time.Now().UTC()
	c := domain.NewCase(s.uuidGen.NewString(), input.Title, domain.CaseMetadata{
		Overview:          input.Overview,
		People:            input.People,
		Organizations:     input.Organizations,
		Terms:             input.Terms,
		AdditionalContext: input.AdditionalContext,
	}, now)

	if err := domain.ValidateCase(c); err != nil {
		return nil, err
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// GetByID retrieves a case by ID
func (s *CaseService) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	ctx, span := telemetry.StartSpan(ctx, "CaseService.GetByID", telemetry.SpanAttributes{
		CaseID:    id,
		Operation: "get",
	})
	defer span.End()

	return s.caseRepo.GetByID(ctx, id)
}

func (s *CaseService) List(ctx context.Context, input ListCasesInput) (*ListCasesOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "CaseService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.caseRepo.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListCasesOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// UpdateMetadata replaces the intake metadata record of a case
func (s *CaseService) UpdateMetadata(ctx context.Context, id string, meta domain.CaseMetadata) (*domain.Case, error) {
	ctx, span := telemetry.StartSpan(ctx, "CaseService.UpdateMetadata", telemetry.SpanAttributes{
		CaseID:    id,
		Operation: "update",
	})
	defer span.End()

	if err := s.caseRepo.UpdateMetadata(ctx, id, meta); err != nil {
		return nil, err
	}

	return s.caseRepo.GetByID(ctx, id)
}

// Delete tears down a case. The database cascade removes documents, chunks,
// analyses and question logs; archived uploads are removed from object
// storage best-effort afterwards.
func (s *CaseService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "CaseService.Delete", telemetry.SpanAttributes{
		CaseID:    id,
		Operation: "delete",
	})
	defer span.End()

	if _, err := s.caseRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.caseRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.DeletePrefix(ctx, caseStoragePrefix(id)); err != nil {
			log.Printf("failed to delete archived uploads for case %s: %v", id, err)
		}
	}

	return nil
}
