package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-consult-agent/server/internal/agent/model"
)

func TestParseTopic(t *testing.T) {
	for _, topic := range Topics() {
		got, err := ParseTopic(string(topic))
		require.NoError(t, err)
		assert.Equal(t, topic, got)
	}

	for _, bad := range []string{"", "criminal", "Divorce", "Money Debt", "moneydebt"} {
		_, err := ParseTopic(bad)
		assert.Error(t, err, "topic %q must be rejected", bad)
	}
}

type staticRetriever struct {
	docs []model.Document
	err  error

	lastQuery string
}

func (s *staticRetriever) Retrieve(ctx context.Context, query string) ([]model.Document, error) {
	s.lastQuery = query
	return s.docs, s.err
}

func TestRegistry(t *testing.T) {
	t.Run("requires all three topic retrievers", func(t *testing.T) {
		_, err := NewRegistry(&staticRetriever{}, nil, &staticRetriever{})
		assert.Error(t, err)
	})

	t.Run("dispatches by topic and preserves order", func(t *testing.T) {
		criminal := &staticRetriever{docs: []model.Document{{ID: "c2"}, {ID: "c1"}}}
		marriage := &staticRetriever{docs: []model.Document{{ID: "m1"}}}
		registry, err := NewRegistry(criminal, marriage, &staticRetriever{})
		require.NoError(t, err)

		docs, err := registry.Retrieve(context.Background(), TopicCriminal, "theft")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "c2", docs[0].ID)
		assert.Equal(t, "c1", docs[1].ID)
		assert.Equal(t, "theft", criminal.lastQuery)
		assert.Empty(t, marriage.lastQuery)
	})

	t.Run("propagates retriever failures", func(t *testing.T) {
		boom := errors.New("index unavailable")
		registry, err := NewRegistry(&staticRetriever{err: boom}, &staticRetriever{}, &staticRetriever{})
		require.NoError(t, err)

		_, err = registry.Retrieve(context.Background(), TopicCriminal, "theft")
		assert.ErrorIs(t, err, boom)
	})
}

func TestMemoryRetriever(t *testing.T) {
	docs := []model.Document{
		{ID: "d1", Title: "Divorce", Content: "divorce by mutual consent requires a registered agreement"},
		{ID: "d2", Title: "Custody", Content: "child custody after divorce follows the agreement or a court order"},
		{ID: "d3", Title: "Dowry", Content: "property brought into the marriage stays separate"},
	}

	t.Run("ranks by token overlap", func(t *testing.T) {
		r := NewMemoryRetriever(4, docs...)
		got, err := r.Retrieve(context.Background(), "divorce agreement custody")
		require.NoError(t, err)
		require.Len(t, got, 2)
		// d2 matches all three terms, d1 two, d3 none
		assert.Equal(t, "d2", got[0].ID)
		assert.Equal(t, "d1", got[1].ID)
	})

	t.Run("honors the top-k limit", func(t *testing.T) {
		r := NewMemoryRetriever(1, docs...)
		got, err := r.Retrieve(context.Background(), "divorce")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("no overlap yields no documents", func(t *testing.T) {
		r := NewMemoryRetriever(4, docs...)
		got, err := r.Retrieve(context.Background(), "zzzz qqqq")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty query yields no documents", func(t *testing.T) {
		r := NewMemoryRetriever(4, docs...)
		got, err := r.Retrieve(context.Background(), "  ")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Add extends the store", func(t *testing.T) {
		r := NewMemoryRetriever(4)
		r.Add(model.Document{ID: "late", Content: "alimony payments"})
		got, err := r.Retrieve(context.Background(), "alimony payments")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "late", got[0].ID)
	})
}
