package model

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// RetrieveDecision is the router's verdict on whether this turn needs new evidence.
type RetrieveDecision string

const (
	RetrieveYes RetrieveDecision = "Yes"
	RetrieveNo  RetrieveDecision = "No"
)

// Path tags which branch of the pipeline a turn follows once routed.
type Path string

const (
	PathRetrieval Path = "retrieval"
	PathDirect    Path = "direct"
)

// Relevance is the binary per-document relevance judgment.
type Relevance string

const (
	RelevantYes Relevance = "Yes"
	RelevantNo  Relevance = "No"
)

// Support grades how well a candidate's claims are backed by its document.
type Support string

const (
	SupportFully   Support = "Fully"
	SupportPartial Support = "Partial"
	SupportNo      Support = "No"
)

// Usefulness bounds for the 1..5 critic score.
const (
	UsefulnessMin = 1
	UsefulnessMax = 5
)

// Turn is the mutable state threaded through one invocation of the pipeline.
// It is created fresh per user message, seeded with the session's persisted
// history, and discarded after the final answer is appended to history.
//
// On the retrieval path Candidates, Relevance, Support and Usefulness are
// index-aligned with Documents. On the direct path Candidates holds exactly
// one element and Relevance/Support stay empty.
type Turn struct {
	SessionID string
	Question  string
	History   []*schema.Message

	Decision RetrieveDecision // set once by the router, immutable afterwards
	Path     Path

	Documents  []Document
	Candidates []string
	Relevance  []Relevance
	Support    []Support
	Usefulness []int

	FinalAnswer string

	// Accumulated USD cost of all model invocations for this turn.
	TotalCostUSD float64
}

// NewTurn seeds a turn with the session's persisted history.
func NewTurn(sessionID, question string, history []*schema.Message) *Turn {
	return &Turn{
		SessionID: sessionID,
		Question:  question,
		History:   history,
	}
}

// CheckAlignment verifies the per-candidate sequence invariants after the
// critic has run. It tolerates the degenerate zero-document retrieval case.
func (t *Turn) CheckAlignment() error {
	switch t.Path {
	case PathRetrieval:
		n := len(t.Documents)
		if len(t.Candidates) != n || len(t.Relevance) != n || len(t.Support) != n || len(t.Usefulness) != n {
			return fmt.Errorf("misaligned retrieval turn: documents=%d candidates=%d relevance=%d support=%d usefulness=%d",
				n, len(t.Candidates), len(t.Relevance), len(t.Support), len(t.Usefulness))
		}
	case PathDirect:
		if len(t.Candidates) != 1 {
			return fmt.Errorf("direct turn must hold exactly one candidate, got %d", len(t.Candidates))
		}
		if len(t.Support) != 0 || len(t.Relevance) != 0 {
			return fmt.Errorf("direct turn must not carry relevance/support judgments")
		}
		if len(t.Usefulness) != 1 {
			return fmt.Errorf("direct turn must hold exactly one usefulness score, got %d", len(t.Usefulness))
		}
	default:
		return fmt.Errorf("turn has no path tag")
	}
	return nil
}

// TurnRequest is the host-facing input for one turn. An empty SessionID asks
// the pipeline to mint one.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// TurnResult is the host-facing output of one turn.
type TurnResult struct {
	SessionID string  `json:"session_id"`
	Answer    string  `json:"answer"`
	CostUSD   float64 `json:"cost_usd,omitempty"`
}
