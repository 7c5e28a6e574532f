package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

// MaxLegalConsultations caps the questions a user may ask per idea.
const MaxLegalConsultations = 10

type LegalService struct {
	ownership
	legal  repository.LegalRepository
	ai     *AI
	logger *slog.Logger
}

func NewLegalService(ideas repository.IdeaRepository, legal repository.LegalRepository, ai *AI, logger *slog.Logger) *LegalService {
	return &LegalService{ownership: ownership{ideas: ideas}, legal: legal, ai: ai, logger: logger}
}

func (s *LegalService) Overview(ctx context.Context, userID, ideaID string) (*model.LegalOverview, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	return s.overview(ctx, idea.ID)
}

func (s *LegalService) overview(ctx context.Context, ideaID string) (*model.LegalOverview, error) {
	steps, err := s.legal.ListLegalSteps(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("service/legal: listing steps: %w", err)
	}
	consultations, err := s.legal.ListLegalConsultations(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("service/legal: listing consultations: %w", err)
	}
	return &model.LegalOverview{Steps: steps, Consultations: consultations}, nil
}

// Generate replaces the legal checklist with a freshly generated one.
func (s *LegalService) Generate(ctx context.Context, userID, ideaID string) ([]model.LegalStep, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/legal: listing questions: %w", err)
	}

	text, err := s.ai.Text(ctx, llm.PromptLegalSteps, map[string]string{"context": qaContext(idea, questions)})
	if err != nil {
		return nil, err
	}
	descriptions := parseLegalSteps(text)
	if len(descriptions) == 0 {
		return nil, apperror.Upstream("AI service", fmt.Errorf("no numbered steps in completion"))
	}

	steps := make([]*model.LegalStep, len(descriptions))
	for i, d := range descriptions {
		steps[i] = &model.LegalStep{Description: d, Order: i + 1}
	}
	if err := s.legal.ReplaceLegalSteps(ctx, idea.ID, steps); err != nil {
		return nil, fmt.Errorf("service/legal: saving steps: %w", err)
	}
	s.logger.Info("legal steps generated", slog.String("ideaID", idea.ID), slog.Int("count", len(steps)))

	return s.legal.ListLegalSteps(ctx, idea.ID)
}

// ownedStep checks that the step exists and belongs to the idea.
func (s *LegalService) ownedStep(ctx context.Context, userID, ideaID, stepID string) (*model.Idea, *model.LegalStep, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, nil, err
	}
	step, err := s.legal.GetLegalStep(ctx, stepID)
	if err != nil {
		return nil, nil, err
	}
	if step.IdeaID != idea.ID {
		return nil, nil, apperror.NotFound("legal step", stepID)
	}
	return idea, step, nil
}

func (s *LegalService) UpdateProgress(ctx context.Context, userID, ideaID, stepID string, progress int) (*model.LegalStep, error) {
	if progress < 0 || progress > 100 {
		return nil, apperror.ValidationFailed("progress", "progress must be between 0 and 100")
	}
	_, step, err := s.ownedStep(ctx, userID, ideaID, stepID)
	if err != nil {
		return nil, err
	}
	if err := s.legal.UpdateLegalStepProgress(ctx, step.ID, progress); err != nil {
		return nil, fmt.Errorf("service/legal: updating step %s: %w", step.ID, err)
	}
	return s.legal.GetLegalStep(ctx, step.ID)
}

// Consult answers a legal question about the idea. The question and the
// answer are stored together, and only when the answer arrived.
func (s *LegalService) Consult(ctx context.Context, userID, ideaID, question string) (*model.LegalConsultation, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if len([]rune(question)) > MaxChatMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or fewer", MaxChatMessageLength))
	}

	asked, err := s.legal.CountUserConsultations(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/legal: counting consultations: %w", err)
	}
	if asked >= MaxLegalConsultations {
		return nil, consultationLimitError()
	}

	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/legal: listing questions: %w", err)
	}
	answer, err := s.ai.Text(ctx, llm.PromptLegalConsult, map[string]string{
		"context":  qaContext(idea, questions),
		"question": question,
	})
	if err != nil {
		return nil, err
	}

	userMsg := &model.LegalConsultation{IdeaID: idea.ID, Message: question, IsUser: true}
	reply := &model.LegalConsultation{IdeaID: idea.ID, Message: answer}
	// The count above only avoids a wasted completion. The store checks
	// the cap again in the same transaction as the insert.
	err = s.legal.CreateConsultationExchange(ctx, userMsg, reply, MaxLegalConsultations)
	if errors.Is(err, repository.ErrLimitReached) {
		return nil, consultationLimitError()
	}
	if err != nil {
		return nil, fmt.Errorf("service/legal: saving consultation: %w", err)
	}
	return reply, nil
}

func consultationLimitError() error {
	return apperror.ValidationFailed("message",
		fmt.Sprintf("the limit of %d legal consultations for this idea has been reached", MaxLegalConsultations))
}

// StepDetails explains how to carry out one step. Nothing is stored.
func (s *LegalService) StepDetails(ctx context.Context, userID, ideaID, stepID string) (string, error) {
	idea, step, err := s.ownedStep(ctx, userID, ideaID, stepID)
	if err != nil {
		return "", err
	}
	return s.ai.Text(ctx, llm.PromptLegalStepDetails, map[string]string{
		"title": idea.Title,
		"step":  step.Description,
	})
}
