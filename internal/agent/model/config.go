package model

// ================ Config ================

type ConversationConfig struct {
	TTL      string `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxTurns int    `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
	// Substituted answer when the retrieval branch yields zero documents.
	NoInfoAnswer string `envconfig:"CONVERSATION_NO_INFO_ANSWER" default:"Sorry, I could not find relevant legal information to answer your question."`
}

// JudgmentModelConfig drives the low-temperature structured-judgment model.
type JudgmentModelConfig struct {
	Model       string  `envconfig:"JUDGMENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"JUDGMENT_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"JUDGMENT_TEMPERATURE" default:"0.1"`
}

// GenerationModelConfig drives the higher-temperature long-form answer model.
type GenerationModelConfig struct {
	Model       string  `envconfig:"GENERATION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GENERATION_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"GENERATION_TEMPERATURE" default:"1.0"`
}

// RerankConfig holds the injected scoring weights and filters. The defaults
// reproduce 10*(0.40*relevance + 0.35*support + 0.25*usefulness).
type RerankConfig struct {
	RelevanceWeight  float64 `envconfig:"RERANK_RELEVANCE_WEIGHT" default:"0.40"`
	SupportWeight    float64 `envconfig:"RERANK_SUPPORT_WEIGHT" default:"0.35"`
	UsefulnessWeight float64 `envconfig:"RERANK_USEFULNESS_WEIGHT" default:"0.25"`
	Scale            float64 `envconfig:"RERANK_SCALE" default:"10"`
	MinScore         float64 `envconfig:"RERANK_MIN_SCORE" default:"2.0"`
	FilterIrrelevant bool    `envconfig:"RERANK_FILTER_IRRELEVANT" default:"true"`
}

// ServiceConfig bounds the retry policy for upstream model calls.
type ServiceConfig struct {
	MaxAttempts uint `envconfig:"SERVICE_MAX_ATTEMPTS" default:"3"`
	// Fan-out limit for per-document generator/critic work within a turn.
	MaxParallel int `envconfig:"SERVICE_MAX_PARALLEL" default:"4"`
}
