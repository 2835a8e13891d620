package pipeline

import (
	"context"

	"github.com/legal-consult-agent/server/internal/agent/model"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/conversations"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/parsers"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/prompts"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// Router decides, per turn, whether answering requires new evidence from
// the knowledge base.
type Router struct {
	svc *Services
	mm  *conversations.MessagesManager
}

func NewRouter(svc *Services, mm *conversations.MessagesManager) *Router {
	return &Router{svc: svc, mm: mm}
}

// Decide asks the judgment model whether the history already contains
// enough information to answer, and tags the turn's path accordingly.
//
// The user question is persisted before the model call as the first state
// mutation of the turn. This is intentionally not transactional with the
// rest of the pipeline: a failed turn leaves the question (and nothing
// else) in history, so subsequent turns still see it.
func (r *Router) Decide(ctx context.Context, t *model.Turn) error {
	if err := r.mm.AppendQuestion(ctx, t.SessionID, t.Question); err != nil {
		return err
	}

	prompt, err := prompts.RenderRouter(ctx, t.Question, r.mm.HistoryContext(t.History))
	if err != nil {
		return err
	}

	raw, cost, err := r.svc.Complete(ctx, KindJudgment, prompt)
	t.TotalCostUSD += cost
	if err != nil {
		return err
	}

	j, err := parsers.ParseJudgment(raw, (*routeJudgment).validate)
	if err != nil {
		return err
	}

	t.Decision = model.RetrieveDecision(j.Retrieve)
	if t.Decision == model.RetrieveYes {
		t.Path = model.PathRetrieval
	} else {
		t.Path = model.PathDirect
	}

	logx.Debug().
		Str("session_id", t.SessionID).
		Str("decision", string(t.Decision)).
		Msg("router decision")
	return nil
}
