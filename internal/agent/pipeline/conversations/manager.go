package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/legal-consult-agent/server/internal/agent/model"
)

// MessagesManager assembles prompt context from persisted history and writes
// user/assistant messages back through the conversation repository.
type MessagesManager struct {
	repo     model.ConversationRepository
	maxTurns int
}

func NewMessagesManager(repo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		repo:     repo,
		maxTurns: config.MaxTurns,
	}
}

// LoadHistory returns the persisted messages for a session.
func (m *MessagesManager) LoadHistory(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	history, err := m.repo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return history.Messages, nil
}

// AppendQuestion persists the user's question. The router calls this as the
// first state mutation of the turn, before any model call, so later turns
// see the question even when the rest of the pipeline fails.
func (m *MessagesManager) AppendQuestion(ctx context.Context, sessionID, question string) error {
	return m.repo.AddMessage(ctx, sessionID, schema.UserMessage(question))
}

// SaveAnswer persists an assistant answer.
func (m *MessagesManager) SaveAnswer(ctx context.Context, sessionID, content string) error {
	return m.repo.AddMessage(ctx, sessionID, schema.AssistantMessage(content, nil))
}

// Clear removes all persisted messages for a session.
func (m *MessagesManager) Clear(ctx context.Context, sessionID string) error {
	return m.repo.ClearHistory(ctx, sessionID)
}

// MessageCount returns the number of persisted messages for a session.
func (m *MessagesManager) MessageCount(ctx context.Context, sessionID string) (int, error) {
	return m.repo.GetMessageCount(ctx, sessionID)
}

// HistoryContext renders the most recent messages as a tagged text block
// suitable for judgment and generation prompts.
func (m *MessagesManager) HistoryContext(messages []*schema.Message) string {
	recent := trimTail(messages, m.maxTurns)

	var b strings.Builder
	b.WriteString("<chat_history>\n")
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</chat_history>")
	return b.String()
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
