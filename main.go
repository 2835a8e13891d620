package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/legal-consult-agent/server/internal/agent/model"
	"github.com/legal-consult-agent/server/internal/agent/pipeline"
	"github.com/legal-consult-agent/server/internal/agent/repo"
	"github.com/legal-consult-agent/server/internal/core"
	"github.com/legal-consult-agent/server/internal/retrieval"
	logx "github.com/legal-consult-agent/server/pkg/logger"
	pkgredis "github.com/legal-consult-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the consultation demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Environment string `envconfig:"APP_ENV" default:"development"`
	Redis       pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Pipeline configs
	Judgment     model.JudgmentModelConfig
	Generation   model.GenerationModelConfig
	Conversation model.ConversationConfig
	Rerank       model.RerankConfig
	Service      model.ServiceConfig
}

func main() {
	fmt.Println("Legal consultation pipeline demo...")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	// ====================================================
	// Build chat models and the turn pipeline entirely from env
	models, err := pipeline.NewChatModels(ctx, pipeline.ChatModelConfig{
		APIKey:     envCfg.APIKey,
		BaseURL:    envCfg.BaseURL,
		Judgment:   &envCfg.Judgment,
		Generation: &envCfg.Generation,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	services, err := pipeline.NewServices(models.Judgment, models.Generation,
		models.JudgmentName, models.GenerationName, envCfg.Service)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}

	// In-memory topic retrievers so the demo runs without a vector index.
	// Production deployments wrap real indexes via retrieval.NewEinoRetriever.
	registry, err := retrieval.NewRegistry(
		retrieval.NewMemoryRetriever(4, sampleDocs(retrieval.TopicCriminal)...),
		retrieval.NewMemoryRetriever(4, sampleDocs(retrieval.TopicMarriage)...),
		retrieval.NewMemoryRetriever(4, sampleDocs(retrieval.TopicMoneyDebt)...),
	)
	if err != nil {
		log.Fatalf("Failed to build retrieval registry: %v", err)
	}

	pipe, err := pipeline.New(pipeline.Config{
		Services:     services,
		Registry:     registry,
		Repo:         repo.NewRedisConversationRepository(rdb, ttl),
		Conversation: envCfg.Conversation,
		Rerank:       envCfg.Rerank,
		Service:      envCfg.Service,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	testQuestions := []struct {
		description string
		question    string
	}{
		{
			description: "Criminal law consultation",
			question:    "My neighbour threatened me with violence, what criminal charges could apply?",
		},
		{
			description: "Follow-up answerable from history",
			question:    "Can you summarize what you just told me?",
		},
		{
			description: "Debt consultation",
			question:    "A friend borrowed money from me and refuses to pay it back, what can I do?",
		},
	}

	sessionID := ""

	for i, test := range testQuestions {
		fmt.Printf("\nTurn %d: %s\n", i+1, test.description)
		fmt.Printf("Question: %q\n", test.question)

		result, err := pipe.RunTurn(ctx, model.TurnRequest{
			SessionID: sessionID,
			Question:  test.question,
		})
		if err != nil {
			log.Fatalf("Failed to run turn %d: %v", i+1, err)
		}
		sessionID = result.SessionID

		fmt.Printf("Answer: %s\n", result.Answer)
		fmt.Printf("Cost: $%.6f\n", result.CostUSD)
		fmt.Println("──────────────────────────────────────────────")
	}

	fmt.Println("All turns completed successfully!")
}

// sampleDocs returns a small seed corpus per topic for the demo.
func sampleDocs(topic retrieval.Topic) []model.Document {
	switch topic {
	case retrieval.TopicCriminal:
		return []model.Document{
			{
				ID:       "criminal-001",
				Title:    "Criminal intimidation",
				Content:  "Whoever threatens another with injury to person, reputation or property commits criminal intimidation and may face imprisonment or a fine.",
				Category: "criminal",
				Tags:     []string{"threats", "intimidation"},
			},
			{
				ID:       "criminal-002",
				Title:    "Assault and battery",
				Content:  "Causing bodily harm to another person constitutes assault; the severity of the penalty scales with the degree of injury.",
				Category: "criminal",
				Tags:     []string{"assault"},
			},
		}
	case retrieval.TopicMarriage:
		return []model.Document{
			{
				ID:       "marriage-001",
				Title:    "Divorce by mutual consent",
				Content:  "Spouses may dissolve a marriage by mutual consent with a registered agreement covering property division and child custody.",
				Category: "marriage",
				Tags:     []string{"divorce"},
			},
		}
	default:
		return []model.Document{
			{
				ID:       "debt-001",
				Title:    "Loan repayment claims",
				Content:  "A lender may demand repayment of a loan; claims over a statutory amount require written evidence of the loan to be enforceable in court.",
				Category: "money-debt",
				Tags:     []string{"loans", "repayment"},
			},
		}
	}
}
