package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestResolvePricing(t *testing.T) {
	assert.Equal(t, Pricing{InputPerM: 0.30, OutputPerM: 2.50}, ResolvePricing("gemini-2.5-flash"))
	assert.Equal(t, Pricing{}, ResolvePricing("unknown-model"))
}

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 2_000_000}
	in, out, total := ComputeCost(usage, Pricing{InputPerM: 0.10, OutputPerM: 0.40})
	assert.InDelta(t, 0.10, in, 1e-9)
	assert.InDelta(t, 0.80, out, 1e-9)
	assert.InDelta(t, 0.90, total, 1e-9)

	in, out, total = ComputeCost(nil, Pricing{InputPerM: 0.10, OutputPerM: 0.40})
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, total)
}
