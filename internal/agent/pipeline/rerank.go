package pipeline

import (
	"sort"

	"github.com/legal-consult-agent/server/internal/agent/model"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// supportScores and usefulScores map enum judgments onto [0,1].
var supportScores = map[model.Support]float64{
	model.SupportFully:   1.0,
	model.SupportPartial: 0.5,
	model.SupportNo:      0.0,
}

var usefulScores = map[int]float64{
	5: 1.0,
	4: 0.8,
	3: 0.6,
	2: 0.4,
	1: 0.2,
}

// CandidateScore computes the composite score
// scale * (wRel*relevance + wSup*support + wUse*usefulness), a value in
// [0, scale] under the default weights. Pure and deterministic.
func CandidateScore(rel model.Relevance, sup model.Support, useful int, cfg model.RerankConfig) float64 {
	relScore := 0.0
	if rel == model.RelevantYes {
		relScore = 1.0
	}
	return cfg.Scale * (cfg.RelevanceWeight*relScore +
		cfg.SupportWeight*supportScores[sup] +
		cfg.UsefulnessWeight*usefulScores[useful])
}

// RankedCandidate is one candidate with its composite score and original
// position.
type RankedCandidate struct {
	Index      int
	Answer     string
	Relevance  model.Relevance
	Support    model.Support
	Usefulness int
	Score      float64
}

// Reranker combines relevance, support and usefulness into a single ranking
// and selects the final answer. On the direct path it passes the sole
// candidate through unchanged.
type Reranker struct {
	cfg model.RerankConfig
}

func NewReranker(cfg model.RerankConfig) *Reranker {
	return &Reranker{cfg: cfg}
}

// Rank filters and orders the turn's candidates:
//  1. drop candidates judged irrelevant (when the filter toggle is on)
//  2. stable-sort by composite score descending (ties keep index order)
//  3. drop candidates below the minimum score threshold
//
// Pure over the (candidates, relevance, support, usefulness) tuple:
// re-running on the same turn yields the same ranking.
func (r *Reranker) Rank(t *model.Turn) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(t.Candidates))
	for i, answer := range t.Candidates {
		if r.cfg.FilterIrrelevant && t.Relevance[i] == model.RelevantNo {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Index:      i,
			Answer:     answer,
			Relevance:  t.Relevance[i],
			Support:    t.Support[i],
			Usefulness: t.Usefulness[i],
			Score:      CandidateScore(t.Relevance[i], t.Support[i], t.Usefulness[i], r.cfg),
		})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})

	surviving := ranked[:0]
	for _, c := range ranked {
		if c.Score >= r.cfg.MinScore {
			surviving = append(surviving, c)
		}
	}
	return surviving
}

// Apply sets t.FinalAnswer. When no candidate survives filtering, the first
// raw candidate is returned rather than failing the turn. The caller must
// guarantee at least one candidate exists.
func (r *Reranker) Apply(t *model.Turn) {
	if t.Path == model.PathDirect {
		// single candidate, already usefulness-screened by the critic
		t.FinalAnswer = t.Candidates[0]
		return
	}

	ranked := r.Rank(t)
	if len(ranked) == 0 {
		logx.Warn().
			Str("session_id", t.SessionID).
			Msg("no candidate survived filtering, falling back to first raw candidate")
		t.FinalAnswer = t.Candidates[0]
		return
	}

	best := ranked[0]
	logx.Debug().
		Str("session_id", t.SessionID).
		Int("candidate_index", best.Index).
		Float64("score", best.Score).
		Str("relevance", string(best.Relevance)).
		Str("support", string(best.Support)).
		Int("usefulness", best.Usefulness).
		Msg("selected best candidate")
	t.FinalAnswer = best.Answer
}
