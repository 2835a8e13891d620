package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/legal-consult-agent/server/internal/agent/model"
	"github.com/legal-consult-agent/server/internal/agent/pipeline/conversations"
	errx "github.com/legal-consult-agent/server/internal/core/error"
	"github.com/legal-consult-agent/server/internal/retrieval"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// Stage identifies one step of the turn state machine.
type Stage int

const (
	StageRoute Stage = iota
	StageRetrieve
	StageGenerate
	StageCritique
	StageRerank
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageRoute:
		return "route"
	case StageRetrieve:
		return "retrieve"
	case StageGenerate:
		return "generate"
	case StageCritique:
		return "critique"
	case StageRerank:
		return "rerank"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// next is the pure transition function of the state machine. Branching
// depends only on the turn's path tag, which the router fixes once.
func next(s Stage, t *model.Turn) Stage {
	switch s {
	case StageRoute:
		if t.Path == model.PathRetrieval {
			return StageRetrieve
		}
		return StageGenerate
	case StageRetrieve:
		return StageGenerate
	case StageGenerate:
		return StageCritique
	case StageCritique:
		return StageRerank
	case StageRerank:
		return StageDone
	default:
		return StageDone
	}
}

// Config holds everything needed to compose the full turn pipeline.
type Config struct {
	Services     *Services
	Registry     *retrieval.Registry
	Repo         model.ConversationRepository
	Conversation model.ConversationConfig
	Rerank       model.RerankConfig
	Service      model.ServiceConfig
}

// Pipeline runs one user question through router, optional retrieval,
// generation, critique and reranking, and owns the per-session history.
type Pipeline struct {
	router    *Router
	retriever *Retriever
	generator *Generator
	critic    *Critic
	reranker  *Reranker
	mm        *conversations.MessagesManager

	noInfoAnswer string
	sessions     sessionLocks
}

// New validates the configuration and wires the pipeline stages.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Services == nil {
		return nil, fmt.Errorf("services are not properly initialized")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("retrieval registry is nil")
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	mm := conversations.NewMessagesManager(cfg.Repo, cfg.Conversation)
	return &Pipeline{
		router:       NewRouter(cfg.Services, mm),
		retriever:    NewRetriever(cfg.Services, cfg.Registry, mm),
		generator:    NewGenerator(cfg.Services, mm, cfg.Service.MaxParallel),
		critic:       NewCritic(cfg.Services, mm, cfg.Service.MaxParallel),
		reranker:     NewReranker(cfg.Rerank),
		mm:           mm,
		noInfoAnswer: cfg.Conversation.NoInfoAnswer,
		sessions:     sessionLocks{locks: make(map[string]*sync.Mutex)},
	}, nil
}

// RunTurn runs one question through the pipeline for the given session.
// Missing session ids are minted and returned in the result. Turns on the
// same session are serialized; history is read at turn start and the final
// answer is appended at turn end.
func (p *Pipeline) RunTurn(ctx context.Context, req model.TurnRequest) (*model.TurnResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, errx.New(fmt.Errorf("empty question"), http.StatusBadRequest, errx.CodeSystem, "question must not be empty")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := p.sessions.lock(sessionID)
	defer unlock()

	history, err := p.mm.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	t := model.NewTurn(sessionID, question, history)

	for stage := StageRoute; stage != StageDone; stage = next(stage, t) {
		var err error
		switch stage {
		case StageRoute:
			err = p.router.Decide(ctx, t)
		case StageRetrieve:
			err = p.retriever.Fetch(ctx, t)
		case StageGenerate:
			err = p.generator.Generate(ctx, t)
		case StageCritique:
			err = p.critic.Critique(ctx, t)
		case StageRerank:
			err = p.finishTurn(ctx, t)
		}
		if err != nil {
			logx.Error().
				Err(err).
				Str("session_id", sessionID).
				Str("stage", stage.String()).
				Str("code", errx.CodeOf(err)).
				Msg("turn failed")
			return nil, err
		}
	}

	return &model.TurnResult{
		SessionID: sessionID,
		Answer:    t.FinalAnswer,
		CostUSD:   t.TotalCostUSD,
	}, nil
}

// finishTurn reranks, resolves the degenerate zero-candidate case and
// persists the final answer.
func (p *Pipeline) finishTurn(ctx context.Context, t *model.Turn) error {
	if len(t.Candidates) == 0 {
		// retrieval returned no documents; the fallback to candidates[0]
		// is undefined here, so substitute a defined answer instead
		t.FinalAnswer = p.noInfoAnswer
		logx.Warn().
			Str("session_id", t.SessionID).
			Msg("no candidates produced, substituting no-information answer")
		return p.mm.SaveAnswer(ctx, t.SessionID, t.FinalAnswer)
	}

	if err := t.CheckAlignment(); err != nil {
		return errx.New(err, http.StatusInternalServerError, errx.CodeSystem, errx.SystemErrorMessage)
	}

	p.reranker.Apply(t)

	// the direct path's answer was already persisted by the critic
	if t.Path == model.PathRetrieval {
		return p.mm.SaveAnswer(ctx, t.SessionID, t.FinalAnswer)
	}
	return nil
}

// BatchItem carries one RunBatch outcome; Err is set when that request
// failed, independent of the others.
type BatchItem struct {
	Result *model.TurnResult
	Err    error
}

// RunBatch applies RunTurn independently per request. Requests run
// concurrently with no cross-request ordering guarantee; one request's
// failure does not affect the others' results.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []model.TurnRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))
	if len(reqs) == 0 {
		return items
	}

	var eg errgroup.Group
	eg.SetLimit(len(reqs))
	for i := range reqs {
		eg.Go(func() error {
			res, err := p.RunTurn(ctx, reqs[i])
			items[i] = BatchItem{Result: res, Err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return items
}

// History exposes the persisted messages of a session to the host layer.
func (p *Pipeline) History(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	return p.mm.LoadHistory(ctx, sessionID)
}

// ClearSession removes a session's persisted history.
func (p *Pipeline) ClearSession(ctx context.Context, sessionID string) error {
	unlock := p.sessions.lock(sessionID)
	defer unlock()
	return p.mm.Clear(ctx, sessionID)
}

// sessionLocks serializes turns per session id so concurrent turns cannot
// interleave the read-then-append history cycle. Locks are never evicted;
// the map grows with the set of active session ids.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (s *sessionLocks) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
