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

// QuestionLogRepositoryInterface records answered questions for audit
type QuestionLogRepositoryInterface interface {
	CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error)
}

// QuestionLogEntry is one answered question as recorded in the audit log
type QuestionLogEntry struct {
	CaseID        string
	Question      string
	Answer        string
	Sources       []domain.SourceRef
	HistoryLength int
	DurationMs    int64
}

// ConversationService answers free-form questions about a case, grounded in
// the retrieved chunks of that case only.
type ConversationService struct {
	caseRepo    CaseRepositoryInterface
	retriever   CaseRetriever
	chat        ChatClientInterface
	questionLog QuestionLogRepositoryInterface
}

// NewConversationService creates a new ConversationService instance
func NewConversationService(
	caseRepo CaseRepositoryInterface,
	retriever CaseRetriever,
	chat ChatClientInterface,
) *ConversationService {
	return &ConversationService{
		caseRepo:  caseRepo,
		retriever: retriever,
		chat:      chat,
	}
}

// NewConversationServiceWithLog creates a ConversationService that records
// each answered question in the audit log.
func NewConversationServiceWithLog(
	caseRepo CaseRepositoryInterface,
	retriever CaseRetriever,
	chat ChatClientInterface,
	questionLog QuestionLogRepositoryInterface,
) *ConversationService {
	s := NewConversationService(caseRepo, retriever, chat)
	s.questionLog = questionLog
	return s
}

const questionSystemPrompt = "You are a legal assistant. Given the retrieved legal text chunks, answer clearly and accurately. Cite the source file names inside your explanation."

func questionUserPrompt(question, contextBlock string) string {
	return fmt.Sprintf("Question:\n%s\n\nRelevant context:\n%s\n\nProvide a concise legal answer based ONLY on this context.", question, contextBlock)
}

// AskInput contains the input parameters for answering a question
type AskInput struct {
	CaseID   string
	Question string
	History  []domain.Exchange
}

// AskOutput contains the answer and the source files it drew on
type AskOutput struct {
	Answer  string
	Sources []domain.SourceRef
}

// Ask answers a question about a case. Prior exchanges are replayed to the
// model verbatim; they are never re-embedded or used for retrieval.
func (s *ConversationService) Ask(ctx context.Context, input AskInput) (*AskOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ConversationService.Ask", telemetry.SpanAttributes{
		CaseID:    input.CaseID,
		Operation: "ask",
	})
	defer span.End()

	started := time.Now()

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	if _, err := s.caseRepo.GetByID(ctx, input.CaseID); err != nil {
		return nil, err
	}

	if err := s.retriever.EnsureIndexed(ctx, input.CaseID); err != nil {
		return nil, err
	}

	hits, err := s.retriever.RetrieveForQuestion(ctx, input.CaseID, question)
	if err != nil {
		return nil, err
	}

	answer, err := s.chat.Complete(ctx, questionSystemPrompt, questionUserPrompt(question, buildContext(hits)), input.History)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChatUnavailable, err)
	}

	output := &AskOutput{
		Answer:  answer,
		Sources: collectSources(hits),
	}

	if s.questionLog != nil {
		_, logErr := s.questionLog.CreateQuestionLog(ctx, QuestionLogEntry{
			CaseID:        input.CaseID,
			Question:      question,
			Answer:        answer,
			Sources:       output.Sources,
			HistoryLength: len(input.History),
			DurationMs:    time.Since(started).Milliseconds(),
		})
		if logErr != nil {
			log.Printf("failed to record question log for case %s: %v", input.CaseID, logErr)
		}
	}

	return output, nil
}
