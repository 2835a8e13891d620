package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v5"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/legal-consult-agent/server/internal/agent/model"
	errx "github.com/legal-consult-agent/server/internal/core/error"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// ModelKind selects which of the two chat models a completion uses.
type ModelKind int

const (
	// KindJudgment is the low-temperature structured-judgment model.
	KindJudgment ModelKind = iota
	// KindGeneration is the higher-temperature long-form answer model.
	KindGeneration
)

// Services wraps the judgment and generation chat models behind a single
// invocation path with bounded retry and usage-cost accounting. Both models
// are injected; lifecycle is owned by the host, not by this package.
type Services struct {
	judgment       einomodel.BaseChatModel
	generation     einomodel.BaseChatModel
	judgmentName   string
	generationName string
	maxAttempts    uint
}

// NewServices validates and wires the two injected chat models.
func NewServices(judgment, generation einomodel.BaseChatModel, judgmentName, generationName string, cfg model.ServiceConfig) (*Services, error) {
	if judgment == nil || generation == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	return &Services{
		judgment:       judgment,
		generation:     generation,
		judgmentName:   judgmentName,
		generationName: generationName,
		maxAttempts:    maxAttempts,
	}, nil
}

// Complete sends a single-prompt completion to the selected model and
// returns the text plus the USD cost of the call. Transport failures are
// retried with exponential backoff up to the configured attempt budget;
// exhausted retries surface as an upstream error.
func (s *Services) Complete(ctx context.Context, kind ModelKind, prompt string) (string, float64, error) {
	cm, name := s.generation, s.generationName
	if kind == KindJudgment {
		cm, name = s.judgment, s.judgmentName
	}

	msgs := []*schema.Message{schema.UserMessage(prompt)}

	out, err := backoff.Retry(ctx, func() (*schema.Message, error) {
		m, gerr := cm.Generate(ctx, msgs)
		if gerr != nil {
			logx.Warn().Err(gerr).Str("model", name).Msg("model call failed, may retry")
			return nil, gerr
		}
		return m, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.maxAttempts),
	)
	if err != nil {
		return "", 0, errx.Upstream(fmt.Errorf("%s: %w", name, err))
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", 0, errx.Upstream(fmt.Errorf("%s returned an empty completion", name))
	}

	return out.Content, usageCost(name, out), nil
}

// usageCost computes and logs the USD cost of one model response.
func usageCost(modelName string, out *schema.Message) float64 {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return 0
	}
	usage := out.ResponseMeta.Usage
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(usage, pricing)
	logx.Debug().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
	return totalC
}
