package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/legal-consult-agent/server/internal/agent/model"
)

// Judgment schemas. Each declares the enum-constrained field set a
// structured-judgment call must return; validation failures become schema
// violations in the parser.

type routeJudgment struct {
	Retrieve string `json:"retrieve"`
}

func (j *routeJudgment) validate() error {
	switch model.RetrieveDecision(j.Retrieve) {
	case model.RetrieveYes, model.RetrieveNo:
		return nil
	default:
		return fmt.Errorf("retrieve must be Yes or No, got %q", j.Retrieve)
	}
}

type topicJudgment struct {
	LegalTopic string `json:"legal_topic"`
	Query      string `json:"query"`
}

func (j *topicJudgment) validate() error {
	if strings.TrimSpace(j.Query) == "" {
		return fmt.Errorf("topic judgment carries an empty query")
	}
	// topic membership is checked by retrieval.ParseTopic at dispatch time
	if strings.TrimSpace(j.LegalTopic) == "" {
		return fmt.Errorf("topic judgment carries an empty legal_topic")
	}
	return nil
}

type relevanceJudgment struct {
	IsRelevant string `json:"is_relevant"`
}

func (j *relevanceJudgment) validate() error {
	switch model.Relevance(j.IsRelevant) {
	case model.RelevantYes, model.RelevantNo:
		return nil
	default:
		return fmt.Errorf("is_relevant must be Yes or No, got %q", j.IsRelevant)
	}
}

// usefulScore decodes the 1..5 usefulness value. Judgment models sometimes
// quote the number, so both 4 and "4" are accepted.
type usefulScore int

func (u *usefulScore) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("is_useful is not a number: %s", string(b))
	}
	*u = usefulScore(n)
	return nil
}

func (u usefulScore) validate() error {
	if u < model.UsefulnessMin || u > model.UsefulnessMax {
		return fmt.Errorf("is_useful must be in [%d..%d], got %d", model.UsefulnessMin, model.UsefulnessMax, u)
	}
	return nil
}

type critiqueJudgment struct {
	IsSupport string      `json:"is_support"`
	IsUseful  usefulScore `json:"is_useful"`
}

func (j *critiqueJudgment) validate() error {
	switch model.Support(j.IsSupport) {
	case model.SupportFully, model.SupportPartial, model.SupportNo:
	default:
		return fmt.Errorf("is_support must be Fully, Partial or No, got %q", j.IsSupport)
	}
	return j.IsUseful.validate()
}

type usefulnessJudgment struct {
	IsUseful usefulScore `json:"is_useful"`
}

func (j *usefulnessJudgment) validate() error {
	return j.IsUseful.validate()
}

var _ json.Unmarshaler = (*usefulScore)(nil)
