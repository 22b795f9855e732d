package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// MockQuestionLogRepository is a mock implementation of QuestionLogRepositoryInterface
type MockQuestionLogRepository struct {
	mock.Mock
}

func (m *MockQuestionLogRepository) CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

type conversationFixture struct {
	caseRepo  *MockCaseRepository
	retriever *MockCaseRetriever
	chat      *MockChatClient
	qlog      *MockQuestionLogRepository
	svc       *ConversationService
}

func newConversationFixture() *conversationFixture {
	f := &conversationFixture{
		caseRepo:  new(MockCaseRepository),
		retriever: new(MockCaseRetriever),
		chat:      new(MockChatClient),
		qlog:      new(MockQuestionLogRepository),
	}
	f.svc = NewConversationServiceWithLog(f.caseRepo, f.retriever, f.chat, f.qlog)
	return f
}

func (f *conversationFixture) stubAnswerableCase(hits []*domain.RetrievalHit) {
	c := domain.NewCase("case-1", "Test matter", domain.CaseMetadata{}, time.Now())
	f.caseRepo.On("GetByID", mock.Anything, "case-1").Return(c, nil)
	f.retriever.On("EnsureIndexed", mock.Anything, "case-1").Return(nil)
	f.retriever.On("RetrieveForQuestion", mock.Anything, "case-1", mock.Anything).Return(hits, nil)
}

// TestConversationService_Ask tests grounded question answering
func TestConversationService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with cited sources and logs the exchange", func(t *testing.T) {
		f := newConversationFixture()
		hits := []*domain.RetrievalHit{
			textHit("memo.txt", "the memo text", 0.9),
			textHit("contract.pdf", "the clause", 0.8),
			textHit("memo.txt", "more memo", 0.7),
		}
		f.stubAnswerableCase(hits)

		f.chat.On("Complete", mock.Anything, mock.Anything, mock.Anything, []domain.Exchange(nil)).
			Return("Per memo.txt, notice was given.", nil)
		f.qlog.On("CreateQuestionLog", mock.Anything, mock.MatchedBy(func(entry QuestionLogEntry) bool {
			return entry.CaseID == "case-1" &&
				entry.Question == "Was notice given?" &&
				entry.Answer == "Per memo.txt, notice was given." &&
				len(entry.Sources) == 2 &&
				entry.HistoryLength == 0 &&
				entry.DurationMs >= 0
		})).Return("log-1", nil)

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "Was notice given?"})

		require.NoError(t, err)
		assert.Equal(t, "Per memo.txt, notice was given.", output.Answer)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, "memo.txt", output.Sources[0].File)
		assert.Equal(t, "contract.pdf", output.Sources[1].File)
		f.qlog.AssertExpectations(t)
	})

	t.Run("builds the grounded prompt from retrieved chunks", func(t *testing.T) {
		f := newConversationFixture()
		f.stubAnswerableCase([]*domain.RetrievalHit{textHit("memo.txt", "the memo text", 0.9)})

		var capturedSystem, capturedUser string
		f.chat.On("Complete", mock.Anything, mock.MatchedBy(func(s string) bool {
			capturedSystem = s
			return true
		}), mock.MatchedBy(func(u string) bool {
			capturedUser = u
			return true
		}), mock.Anything).Return("answer", nil)
		f.qlog.On("CreateQuestionLog", mock.Anything, mock.Anything).Return("log-1", nil)

		_, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "  What happened?  "})

		require.NoError(t, err)
		assert.Contains(t, capturedSystem, "legal assistant")
		assert.Contains(t, capturedUser, "Question:\nWhat happened?")
		assert.Contains(t, capturedUser, "Source: memo.txt | Score: 0.9000")
		assert.Contains(t, capturedUser, "based ONLY on this context")
	})

	t.Run("replays conversation history to the model", func(t *testing.T) {
		f := newConversationFixture()
		f.stubAnswerableCase([]*domain.RetrievalHit{textHit("memo.txt", "text", 0.9)})

		history := []domain.Exchange{
			{Question: "Who is involved?", Answer: "J. Doe and Acme."},
			{Question: "When did it start?", Answer: "In March."},
		}
		f.chat.On("Complete", mock.Anything, mock.Anything, mock.Anything, history).Return("follow-up answer", nil)
		f.qlog.On("CreateQuestionLog", mock.Anything, mock.MatchedBy(func(entry QuestionLogEntry) bool {
			return entry.HistoryLength == 2
		})).Return("log-1", nil)

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "And then?", History: history})

		require.NoError(t, err)
		assert.Equal(t, "follow-up answer", output.Answer)
		f.chat.AssertExpectations(t)
	})

	t.Run("rejects an empty question", func(t *testing.T) {
		f := newConversationFixture()

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "   "})

		require.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
		f.caseRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("returns not found for unknown case", func(t *testing.T) {
		f := newConversationFixture()
		f.caseRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrCaseNotFound)

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "missing", Question: "What happened?"})

		require.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrCaseNotFound)
	})

	t.Run("rejects a case with nothing indexed", func(t *testing.T) {
		f := newConversationFixture()
		c := domain.NewCase("case-1", "Test matter", domain.CaseMetadata{}, time.Now())
		f.caseRepo.On("GetByID", mock.Anything, "case-1").Return(c, nil)
		f.retriever.On("EnsureIndexed", mock.Anything, "case-1").Return(domain.ErrNoChunksIndexed)

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "What happened?"})

		require.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrNoChunksIndexed)
		f.chat.AssertNotCalled(t, "Complete")
	})

	t.Run("wraps chat provider failure", func(t *testing.T) {
		f := newConversationFixture()
		f.stubAnswerableCase([]*domain.RetrievalHit{textHit("memo.txt", "text", 0.9)})

		f.chat.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("connection refused"))

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "What happened?"})

		require.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrChatUnavailable)
		f.qlog.AssertNotCalled(t, "CreateQuestionLog")
	})

	t.Run("log failure does not fail the answer", func(t *testing.T) {
		f := newConversationFixture()
		f.stubAnswerableCase([]*domain.RetrievalHit{textHit("memo.txt", "text", 0.9)})

		f.chat.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("answer", nil)
		f.qlog.On("CreateQuestionLog", mock.Anything, mock.Anything).Return("", errors.New("insert failed"))

		output, err := f.svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "What happened?"})

		require.NoError(t, err)
		assert.Equal(t, "answer", output.Answer)
	})

	t.Run("works without a question log", func(t *testing.T) {
		caseRepo := new(MockCaseRepository)
		retriever := new(MockCaseRetriever)
		chat := new(MockChatClient)
		svc := NewConversationService(caseRepo, retriever, chat)

		c := domain.NewCase("case-1", "Test matter", domain.CaseMetadata{}, time.Now())
		caseRepo.On("GetByID", mock.Anything, "case-1").Return(c, nil)
		retriever.On("EnsureIndexed", mock.Anything, "case-1").Return(nil)
		retriever.On("RetrieveForQuestion", mock.Anything, "case-1", mock.Anything).
			Return([]*domain.RetrievalHit{textHit("memo.txt", "text", 0.9)}, nil)
		chat.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("answer", nil)

		output, err := svc.Ask(ctx, AskInput{CaseID: "case-1", Question: "What happened?"})

		require.NoError(t, err)
		assert.Equal(t, "answer", output.Answer)
	})
}

// TestCollectSources tests source deduplication
func TestCollectSources(t *testing.T) {
	t.Run("keeps first-seen score per file", func(t *testing.T) {
		hits := []*domain.RetrievalHit{
			textHit("a.txt", "one", 0.9),
			textHit("b.txt", "two", 0.8),
			textHit("a.txt", "three", 0.7),
			textHit("c.txt", "four", 0.6),
		}

		sources := collectSources(hits)

		require.Len(t, sources, 3)
		assert.Equal(t, domain.SourceRef{File: "a.txt", Score: 0.9}, sources[0])
		assert.Equal(t, domain.SourceRef{File: "b.txt", Score: 0.8}, sources[1])
		assert.Equal(t, domain.SourceRef{File: "c.txt", Score: 0.6}, sources[2])
	})

	t.Run("empty hits produce no sources", func(t *testing.T) {
		assert.Empty(t, collectSources(nil))
	})
}
