package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const MaxChatMessageLength = 4000

// ChatService runs the per-idea assistant. The assistant sees the idea,
// its expenses, its board and its questionnaire on every turn.
type ChatService struct {
	ownership
	chat     repository.ChatRepository
	expenses repository.ExpenseRepository
	tasks    repository.TaskRepository
	ai       *AI
	logger   *slog.Logger
}

func NewChatService(
	ideas repository.IdeaRepository,
	chat repository.ChatRepository,
	expenses repository.ExpenseRepository,
	tasks repository.TaskRepository,
	ai *AI,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		ownership: ownership{ideas: ideas},
		chat:      chat,
		expenses:  expenses,
		tasks:     tasks,
		ai:        ai,
		logger:    logger,
	}
}

func (s *ChatService) History(ctx context.Context, userID, ideaID string) ([]model.ChatMessage, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chat.ListChatMessages(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing messages: %w", err)
	}
	return messages, nil
}

// Send stores the user's message, asks the assistant and stores the reply.
// The user's message is kept even when the completion fails.
func (s *ChatService) Send(ctx context.Context, userID, ideaID, message string) (*model.ChatMessage, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if len([]rune(message)) > MaxChatMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or fewer", MaxChatMessageLength))
	}

	expenses, err := s.expenses.ListExpenses(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing expenses: %w", err)
	}
	tasks, err := s.tasks.ListTasks(ctx, idea.ID, "")
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing tasks: %w", err)
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing questions: %w", err)
	}

	userMsg := &model.ChatMessage{IdeaID: idea.ID, Role: model.RoleUser, Content: message}
	if err := s.chat.CreateChatMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("service/chat: saving message: %w", err)
	}

	reply, err := s.ai.Text(ctx, llm.PromptAssistant, map[string]string{
		"context": assistantContext(idea, expenses, tasks, questions, s.ai.Currency()),
		"message": message,
	})
	if err != nil {
		return nil, err
	}

	assistantMsg := &model.ChatMessage{IdeaID: idea.ID, Role: model.RoleAssistant, Content: reply}
	if err := s.chat.CreateChatMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("service/chat: saving reply: %w", err)
	}
	return assistantMsg, nil
}
