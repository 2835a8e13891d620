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

// Generator produces candidate answers: one per retrieved document on the
// retrieval path, a single answer on the direct path. On the retrieval path
// each document also receives a binary relevance judgment. Documents are
// processed independently, with no cross-document conditioning, so the
// critic and reranker later select among genuinely diverse candidates.
type Generator struct {
	svc         *Services
	mm          *conversations.MessagesManager
	maxParallel int
}

func NewGenerator(svc *Services, mm *conversations.MessagesManager, maxParallel int) *Generator {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Generator{svc: svc, mm: mm, maxParallel: maxParallel}
}

// Generate fills t.Candidates (and t.Relevance on the retrieval path).
// Per-document work fans out concurrently; results are collected by
// document index so the alignment invariants hold regardless of
// completion order. Zero documents yield zero candidates.
func (g *Generator) Generate(ctx context.Context, t *model.Turn) error {
	if t.Path == model.PathDirect {
		return g.generateDirect(ctx, t)
	}

	n := len(t.Documents)
	if n == 0 {
		t.Candidates = nil
		t.Relevance = nil
		return nil
	}

	relevance := make([]model.Relevance, n)
	candidates := make([]string, n)
	costs := make([]float64, n)
	history := g.mm.HistoryContext(t.History)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.maxParallel)
	for i := range t.Documents {
		eg.Go(func() error {
			doc := t.Documents[i]

			// relevance judgment first, then the candidate for the same document
			relPrompt, err := prompts.RenderRelevance(gctx, t.Question, doc.Content)
			if err != nil {
				return err
			}
			raw, cost, err := g.svc.Complete(gctx, KindJudgment, relPrompt)
			costs[i] += cost
			if err != nil {
				return err
			}
			j, err := parsers.ParseJudgment(raw, (*relevanceJudgment).validate)
			if err != nil {
				return err
			}
			relevance[i] = model.Relevance(j.IsRelevant)

			ansPrompt, err := prompts.RenderAnswer(gctx, t.Question, doc.Content, history)
			if err != nil {
				return err
			}
			answer, cost, err := g.svc.Complete(gctx, KindGeneration, ansPrompt)
			costs[i] += cost
			if err != nil {
				return err
			}
			candidates[i] = answer
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	t.Relevance = relevance
	t.Candidates = candidates
	for _, c := range costs {
		t.TotalCostUSD += c
	}

	logx.Debug().
		Str("session_id", t.SessionID).
		Int("candidates", len(candidates)).
		Msg("generated candidates")
	return nil
}

func (g *Generator) generateDirect(ctx context.Context, t *model.Turn) error {
	prompt, err := prompts.RenderDirectAnswer(ctx, t.Question)
	if err != nil {
		return err
	}
	answer, cost, err := g.svc.Complete(ctx, KindGeneration, prompt)
	t.TotalCostUSD += cost
	if err != nil {
		return err
	}
	t.Candidates = []string{answer}
	return nil
}
