package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/legal-consult-agent/server/internal/agent/model"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Judgment   *model.JudgmentModelConfig
	Generation *model.GenerationModelConfig
}

// ChatModels holds the low-temperature judgment model and the
// higher-temperature generation model.
type ChatModels struct {
	Judgment       *gemini.ChatModel
	Generation     *gemini.ChatModel
	JudgmentName   string
	GenerationName string
}

// NewChatModels creates both chat models on a shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Judgment == nil || config.Generation == nil {
		return nil, fmt.Errorf("model configs are not properly initialized")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	judgmentModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Judgment.Model,
		Temperature: &config.Judgment.Temperature,
		MaxTokens:   &config.Judgment.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating judgment model")
		return nil, fmt.Errorf("error creating judgment model: %w", err)
	}

	generationModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Generation.Model,
		Temperature: &config.Generation.Temperature,
		MaxTokens:   &config.Generation.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generation model")
		return nil, fmt.Errorf("error creating generation model: %w", err)
	}

	return &ChatModels{
		Judgment:       judgmentModel,
		Generation:     generationModel,
		JudgmentName:   config.Judgment.Model,
		GenerationName: config.Generation.Model,
	}, nil
}
