package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-consult-agent/server/internal/agent/model"
	"github.com/legal-consult-agent/server/internal/agent/repo"
	errx "github.com/legal-consult-agent/server/internal/core/error"
	"github.com/legal-consult-agent/server/internal/retrieval"
)

// stubChatModel scripts completions per prompt so the full state machine can
// run without a live model service.
type stubChatModel struct {
	respond func(prompt string) (string, error)
}

func (s *stubChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	content, err := s.respond(input[len(input)-1].Content)
	if err != nil {
		return nil, err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 40, TotalTokens: 160},
		},
	}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming is not supported by the stub model")
}

var criminalDocs = []model.Document{
	{
		ID:      "crim-1",
		Title:   "Criminal intimidation",
		Content: "Whoever threatens another with injury commits criminal intimidation and faces imprisonment.",
	},
	{
		ID:      "crim-2",
		Title:   "Assault",
		Content: "Causing bodily harm constitutes assault under the criminal code.",
	},
}

func newTestPipeline(t *testing.T, respond func(string) (string, error)) (*Pipeline, *repo.MemoryConversationRepository) {
	t.Helper()

	stub := &stubChatModel{respond: respond}
	services, err := NewServices(stub, stub, "gemini-2.5-flash-lite", "gemini-2.5-flash",
		model.ServiceConfig{MaxAttempts: 1, MaxParallel: 2})
	require.NoError(t, err)

	registry, err := retrieval.NewRegistry(
		retrieval.NewMemoryRetriever(4, criminalDocs...),
		retrieval.NewMemoryRetriever(4),
		retrieval.NewMemoryRetriever(4),
	)
	require.NoError(t, err)

	store := repo.NewMemoryConversationRepository()
	pipe, err := New(Config{
		Services: services,
		Registry: registry,
		Repo:     store,
		Conversation: model.ConversationConfig{
			MaxTurns:     10,
			NoInfoAnswer: "Sorry, I could not find relevant legal information.",
		},
		Rerank:  defaultRerankConfig(),
		Service: model.ServiceConfig{MaxAttempts: 1, MaxParallel: 2},
	})
	require.NoError(t, err)
	return pipe, store
}

// respondDirect scripts a turn answerable from history: no retrieval.
func respondDirect(prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "semantic router"):
		return `{"retrieve": "No"}`, nil
	case strings.Contains(prompt, "Generate the answer to the question."):
		return "general legal guidance", nil
	case strings.Contains(prompt, "You are given a question and a consultation answer."):
		return `{"is_useful": 4}`, nil
	}
	return "", fmt.Errorf("unexpected prompt: %.80s", prompt)
}

// respondRetrieval scripts a criminal-law turn over both seeded documents.
// The intimidation candidate is judged Fully/5, the assault one Partial/3,
// so reranking must select the intimidation answer.
func respondRetrieval(prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "semantic router"):
		return `{"retrieve": "Yes"}`, nil
	case strings.Contains(prompt, `"legal_topic"`):
		return `{"legal_topic": "Criminal", "query": "criminal intimidation threats penalty"}`, nil
	case strings.Contains(prompt, `"is_relevant"`):
		return `{"is_relevant": "Yes"}`, nil
	case strings.Contains(prompt, "helpful critic"):
		if strings.Contains(prompt, "intimidation answer") {
			return `{"is_support": "Fully", "is_useful": 5}`, nil
		}
		return `{"is_support": "Partial", "is_useful": "3"}`, nil
	case strings.Contains(prompt, "legal consultant"):
		if strings.Contains(prompt, "criminal intimidation") {
			return "intimidation answer", nil
		}
		return "assault answer", nil
	}
	return "", fmt.Errorf("unexpected prompt: %.80s", prompt)
}

func TestRunTurnDirectPath(t *testing.T) {
	pipe, store := newTestPipeline(t, respondDirect)
	ctx := context.Background()

	res, err := pipe.RunTurn(ctx, model.TurnRequest{Question: "Can you summarize that?"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID, "missing session id must be minted")
	assert.Equal(t, "general legal guidance", res.Answer)
	assert.Greater(t, res.CostUSD, 0.0)

	count, err := store.GetMessageCount(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "question and answer must both be persisted")
}

func TestRunTurnRetrievalPath(t *testing.T) {
	pipe, store := newTestPipeline(t, respondRetrieval)
	ctx := context.Background()

	res, err := pipe.RunTurn(ctx, model.TurnRequest{
		SessionID: "sess-retrieval",
		Question:  "My neighbour threatened me, what can happen to him?",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-retrieval", res.SessionID)
	assert.Equal(t, "intimidation answer", res.Answer)
	assert.Greater(t, res.CostUSD, 0.0)

	history, err := pipe.History(ctx, "sess-retrieval")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, schema.User, history[0].Role)
	assert.Equal(t, schema.Assistant, history[1].Role)
	assert.Equal(t, "intimidation answer", history[1].Content)

	count, err := store.GetMessageCount(ctx, "sess-retrieval")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunTurnEmptyRetrieval(t *testing.T) {
	respond := func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "semantic router"):
			return `{"retrieve": "Yes"}`, nil
		case strings.Contains(prompt, `"legal_topic"`):
			// query shares no token with the seeded documents
			return `{"legal_topic": "Criminal", "query": "zzzz qqqq"}`, nil
		}
		return "", fmt.Errorf("unexpected prompt: %.80s", prompt)
	}

	pipe, _ := newTestPipeline(t, respond)
	ctx := context.Background()

	res, err := pipe.RunTurn(ctx, model.TurnRequest{SessionID: "sess-empty", Question: "What about zebras?"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I could not find relevant legal information.", res.Answer)

	history, err := pipe.History(ctx, "sess-empty")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, res.Answer, history[1].Content)
}

func TestRunTurnSchemaViolation(t *testing.T) {
	respond := func(prompt string) (string, error) {
		return `{"retrieve": "Maybe"}`, nil
	}

	pipe, store := newTestPipeline(t, respond)
	ctx := context.Background()

	_, err := pipe.RunTurn(ctx, model.TurnRequest{SessionID: "sess-bad", Question: "Help me"})
	require.Error(t, err)
	assert.Equal(t, errx.CodeSchemaViolation, errx.CodeOf(err))

	// the question is persisted before the first model call and survives
	count, err := store.GetMessageCount(ctx, "sess-bad")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunTurnUpstreamFailure(t *testing.T) {
	respond := func(prompt string) (string, error) {
		return "", errors.New("connection reset")
	}

	pipe, _ := newTestPipeline(t, respond)

	_, err := pipe.RunTurn(context.Background(), model.TurnRequest{SessionID: "s", Question: "q"})
	require.Error(t, err)
	assert.Equal(t, errx.CodeUpstream, errx.CodeOf(err))
}

func TestRunTurnEmptyQuestion(t *testing.T) {
	pipe, _ := newTestPipeline(t, respondDirect)

	_, err := pipe.RunTurn(context.Background(), model.TurnRequest{Question: "   "})
	require.Error(t, err)
}

func TestRunTurnHistoryAccumulates(t *testing.T) {
	pipe, store := newTestPipeline(t, respondDirect)
	ctx := context.Background()

	first, err := pipe.RunTurn(ctx, model.TurnRequest{Question: "first question"})
	require.NoError(t, err)

	_, err = pipe.RunTurn(ctx, model.TurnRequest{SessionID: first.SessionID, Question: "second question"})
	require.NoError(t, err)

	count, err := store.GetMessageCount(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestClearSession(t *testing.T) {
	pipe, store := newTestPipeline(t, respondDirect)
	ctx := context.Background()

	res, err := pipe.RunTurn(ctx, model.TurnRequest{Question: "hello"})
	require.NoError(t, err)

	require.NoError(t, pipe.ClearSession(ctx, res.SessionID))

	count, err := store.GetMessageCount(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunBatch(t *testing.T) {
	pipe, _ := newTestPipeline(t, respondDirect)
	ctx := context.Background()

	t.Run("failures stay isolated per request", func(t *testing.T) {
		items := pipe.RunBatch(ctx, []model.TurnRequest{
			{SessionID: "batch-a", Question: "question a"},
			{SessionID: "batch-b", Question: ""},
			{SessionID: "batch-c", Question: "question c"},
		})
		require.Len(t, items, 3)

		require.NoError(t, items[0].Err)
		assert.Equal(t, "general legal guidance", items[0].Result.Answer)

		require.Error(t, items[1].Err)
		assert.Nil(t, items[1].Result)

		require.NoError(t, items[2].Err)
		assert.Equal(t, "general legal guidance", items[2].Result.Answer)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, pipe.RunBatch(ctx, nil))
	})
}
