package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/legal-consult-agent/server/internal/agent/model"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/conversations"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/parsers"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/prompts"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// Critic scores each candidate: support-by-evidence plus usefulness on the
// retrieval path (one combined judgment per pair), usefulness only on the
// direct path.
type Critic struct {
	svc         *Services
	mm          *conversations.MessagesManager
	maxParallel int
}

func NewCritic(svc *Services, mm *conversations.MessagesManager, maxParallel int) *Critic {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Critic{svc: svc, mm: mm, maxParallel: maxParallel}
}

// Critique fills t.Support and t.Usefulness index-aligned with
// t.Candidates. An empty candidate sequence passes through untouched.
func (c *Critic) Critique(ctx context.Context, t *model.Turn) error {
	if t.Path == model.PathDirect {
		return c.critiqueDirect(ctx, t)
	}

	n := len(t.Candidates)
	if n == 0 {
		t.Support = nil
		t.Usefulness = nil
		return nil
	}

	support := make([]model.Support, n)
	usefulness := make([]int, n)
	costs := make([]float64, n)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.maxParallel)
	for i := range t.Candidates {
		eg.Go(func() error {
			// one combined judgment per (document, candidate) pair
			prompt, err := prompts.RenderCritique(gctx, t.Question, t.Documents[i].Content, t.Candidates[i])
			if err != nil {
				return err
			}
			raw, cost, err := c.svc.Complete(gctx, KindJudgment, prompt)
			costs[i] = cost
			if err != nil {
				return err
			}
			j, err := parsers.ParseJudgment(raw, (*critiqueJudgment).validate)
			if err != nil {
				return err
			}
			support[i] = model.Support(j.IsSupport)
			usefulness[i] = int(j.IsUseful)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	t.Support = support
	t.Usefulness = usefulness
	for _, c := range costs {
		t.TotalCostUSD += c
	}

	logx.Debug().
		Str("session_id", t.SessionID).
		Int("judged", n).
		Msg("critiqued candidates")
	return nil
}

// critiqueDirect judges usefulness for the sole candidate and immediately
// persists it as the turn's provisional answer. The reranker will select
// the same candidate again; the duplication is deliberate so a downstream
// failure still leaves a usable answer in history.
func (c *Critic) critiqueDirect(ctx context.Context, t *model.Turn) error {
	prompt, err := prompts.RenderUsefulness(ctx, t.Question, t.Candidates[0])
	if err != nil {
		return err
	}
	raw, cost, err := c.svc.Complete(ctx, KindJudgment, prompt)
	t.TotalCostUSD += cost
	if err != nil {
		return err
	}
	j, err := parsers.ParseJudgment(raw, (*usefulnessJudgment).validate)
	if err != nil {
		return err
	}

	t.Usefulness = []int{int(j.IsUseful)}

	if err := c.mm.SaveAnswer(ctx, t.SessionID, t.Candidates[0]); err != nil {
		return err
	}
	logx.Debug().
		Str("session_id", t.SessionID).
		Int("usefulness", t.Usefulness[0]).
		Msg("saved provisional answer")
	return nil
}
