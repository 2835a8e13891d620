package pipeline

import (
	"context"
	"net/http"

	"github.com/legal-consult-agent/server/internal/agent/model"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/conversations"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/parsers"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/prompts"
	errx "github.com/legal-consult-agent/server/internal/core/error"
	"github.com/legal-consult-agent/server/internal/retrieval"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// Retriever classifies the question into exactly one legal topic and
// dispatches the derived query to the matching topic retriever. There is no
// fallback topic and no multi-topic fan-out.
type Retriever struct {
	svc      *Services
	registry *retrieval.Registry
	mm       *conversations.MessagesManager
}

func NewRetriever(svc *Services, registry *retrieval.Registry, mm *conversations.MessagesManager) *Retriever {
	return &Retriever{svc: svc, registry: registry, mm: mm}
}

// Fetch fills t.Documents with the topic retriever's results, preserving
// the retriever's order. A zero-document result is not an error here; the
// generator handles the degenerate case.
func (r *Retriever) Fetch(ctx context.Context, t *model.Turn) error {
	prompt, err := prompts.RenderTopic(ctx, t.Question, r.mm.HistoryContext(t.History))
	if err != nil {
		return err
	}

	raw, cost, err := r.svc.Complete(ctx, KindJudgment, prompt)
	t.TotalCostUSD += cost
	if err != nil {
		return err
	}

	j, err := parsers.ParseJudgment(raw, (*topicJudgment).validate)
	if err != nil {
		return err
	}

	// an out-of-domain topic is a contract violation, never defaulted
	topic, err := retrieval.ParseTopic(j.LegalTopic)
	if err != nil {
		return errx.SchemaViolation(err)
	}

	docs, err := r.registry.Retrieve(ctx, topic, j.Query)
	if err != nil {
		return errx.New(err, http.StatusBadGateway, errx.CodeUpstream, "topic retrieval failed")
	}

	t.Documents = docs

	logx.Debug().
		Str("session_id", t.SessionID).
		Str("topic", string(topic)).
		Str("query", j.Query).
		Int("documents", len(docs)).
		Msg("retrieved documents")
	return nil
}
