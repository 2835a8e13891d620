package retrieval

import (
	"context"
	"fmt"

	"github.com/legal-consult-agent/server/internal/agent/model"
)

// Topic is one partition of the legal knowledge base. The set is closed:
// classification is forced into exactly one of these values and anything
// else is rejected by the caller.
type Topic string

const (
	TopicCriminal  Topic = "Criminal"
	TopicMarriage  Topic = "Marriage"
	TopicMoneyDebt Topic = "MoneyDebt"
)

// Topics lists the closed topic set in declaration order.
func Topics() []Topic {
	return []Topic{TopicCriminal, TopicMarriage, TopicMoneyDebt}
}

// ParseTopic validates a topic value coming from a model judgment.
// Unrecognized values are an error, never defaulted.
func ParseTopic(v string) (Topic, error) {
	switch Topic(v) {
	case TopicCriminal, TopicMarriage, TopicMoneyDebt:
		return Topic(v), nil
	default:
		return "", fmt.Errorf("unknown legal topic %q", v)
	}
}

// TopicRetriever is the external retrieval capability for one topic
// partition. The pipeline consumes it; building and populating the
// underlying index is out of scope.
type TopicRetriever interface {
	Retrieve(ctx context.Context, query string) ([]model.Document, error)
}

// Registry holds one retriever per topic and dispatches by classified topic.
type Registry struct {
	byTopic map[Topic]TopicRetriever
}

// NewRegistry wires the three topic partitions. All three must be present.
func NewRegistry(criminal, marriage, moneyDebt TopicRetriever) (*Registry, error) {
	if criminal == nil || marriage == nil || moneyDebt == nil {
		return nil, fmt.Errorf("registry requires a retriever for every topic")
	}
	return &Registry{
		byTopic: map[Topic]TopicRetriever{
			TopicCriminal:  criminal,
			TopicMarriage:  marriage,
			TopicMoneyDebt: moneyDebt,
		},
	}, nil
}

// Retrieve forwards the query to the retriever matching the topic.
// The retriever's document order is preserved unmodified.
func (r *Registry) Retrieve(ctx context.Context, topic Topic, query string) ([]model.Document, error) {
	tr, ok := r.byTopic[topic]
	if !ok {
		return nil, fmt.Errorf("no retriever registered for topic %q", topic)
	}
	return tr.Retrieve(ctx, query)
}
