package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/router.txt
var routerPrompt string

//go:embed template/topic.txt
var topicPrompt string

//go:embed template/relevance.txt
var relevancePrompt string

//go:embed template/answer.txt
var answerPrompt string

//go:embed template/direct_answer.txt
var directAnswerPrompt string

//go:embed template/critique.txt
var critiquePrompt string

//go:embed template/usefulness.txt
var usefulnessPrompt string

// render formats a template via the Eino prompt component (Go template
// syntax) so prompt construction stays observable and consistent.
func render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderRouter builds the retrieve-or-not judgment prompt.
func RenderRouter(ctx context.Context, question, history string) (string, error) {
	return render(ctx, routerPrompt, map[string]any{
		"Question": question,
		"History":  history,
	})
}

// RenderTopic builds the topic-classification + query-extraction prompt.
func RenderTopic(ctx context.Context, question, history string) (string, error) {
	return render(ctx, topicPrompt, map[string]any{
		"Question": question,
		"History":  history,
	})
}

// RenderRelevance builds the per-document relevance judgment prompt.
func RenderRelevance(ctx context.Context, question, passage string) (string, error) {
	return render(ctx, relevancePrompt, map[string]any{
		"Question": question,
		"Passage":  passage,
	})
}

// RenderAnswer builds the document-conditioned answer generation prompt.
func RenderAnswer(ctx context.Context, question, passage, history string) (string, error) {
	return render(ctx, answerPrompt, map[string]any{
		"Question": question,
		"Passage":  passage,
		"History":  history,
	})
}

// RenderDirectAnswer builds the no-retrieval answer generation prompt.
func RenderDirectAnswer(ctx context.Context, question string) (string, error) {
	return render(ctx, directAnswerPrompt, map[string]any{
		"Question": question,
	})
}

// RenderCritique builds the combined support+usefulness judgment prompt.
func RenderCritique(ctx context.Context, question, passage, answer string) (string, error) {
	return render(ctx, critiquePrompt, map[string]any{
		"Question": question,
		"Passage":  passage,
		"Answer":   answer,
	})
}

// RenderUsefulness builds the usefulness-only judgment prompt for the
// direct path.
func RenderUsefulness(ctx context.Context, question, answer string) (string, error) {
	return render(ctx, usefulnessPrompt, map[string]any{
		"Question": question,
		"Answer":   answer,
	})
}
