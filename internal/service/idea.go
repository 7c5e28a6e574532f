package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	// FallbackIdeaTitle is used when the title could not be generated.
	FallbackIdeaTitle = "New Idea"

	MaxDescriptionLength = 5000
	MaxIdeaTitleLength   = 200
	QuestionCount        = 5
)

type titleOutput struct {
	Title string `json:"title"`
}

type questionsOutput struct {
	Questions []struct {
		Text string `json:"text"`
	} `json:"questions"`
}

type IdeaService struct {
	ownership
	repo   repository.IdeaRepository
	ai     *AI
	logger *slog.Logger
}

func NewIdeaService(repo repository.IdeaRepository, ai *AI, logger *slog.Logger) *IdeaService {
	return &IdeaService{ownership: ownership{ideas: repo}, repo: repo, ai: ai, logger: logger}
}

// Create stores a new idea. Its title comes from the completion API; when
// that fails the idea is still created under FallbackIdeaTitle.
func (s *IdeaService) Create(ctx context.Context, userID, description string) (*model.Idea, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.ValidationFailed("description", "description is required")
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or fewer", MaxDescriptionLength))
	}

	title := FallbackIdeaTitle
	var out titleOutput
	if err := s.ai.JSON(ctx, llm.PromptTitle, map[string]string{"description": description}, &out); err != nil {
		s.logger.Warn("using fallback idea title", slog.String("error", err.Error()))
	} else if t := strings.TrimSpace(out.Title); t != "" {
		title = truncateRunes(t, MaxIdeaTitleLength)
	}

	idea := &model.Idea{UserID: userID, Title: title, Description: description}
	if err := s.repo.CreateIdea(ctx, idea); err != nil {
		return nil, fmt.Errorf("service/idea: creating idea: %w", err)
	}
	s.logger.Info("idea created", slog.String("id", idea.ID), slog.String("userID", userID))
	return idea, nil
}

func (s *IdeaService) List(ctx context.Context, userID string, limit, offset int) ([]model.Idea, error) {
	ideas, err := s.repo.ListIdeas(ctx, userID, clampLimit(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("service/idea: listing ideas: %w", err)
	}
	return ideas, nil
}

func (s *IdeaService) Get(ctx context.Context, userID, ideaID string) (*model.IdeaDetail, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/idea: listing questions: %w", err)
	}
	return &model.IdeaDetail{Idea: *idea, Questions: questions}, nil
}

// Delete removes the idea together with everything scoped to it.
func (s *IdeaService) Delete(ctx context.Context, userID, ideaID string) error {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteIdea(ctx, idea.ID); err != nil {
		return fmt.Errorf("service/idea: deleting idea %s: %w", idea.ID, err)
	}
	s.logger.Info("idea deleted", slog.String("id", idea.ID))
	return nil
}

// GenerateQuestions adds freshly generated questions after the existing
// ones and returns only the new questions. Earlier questions keep their
// answers, so asking for more never loses work.
func (s *IdeaService) GenerateQuestions(ctx context.Context, userID, ideaID string) ([]model.Question, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	var out questionsOutput
	err = s.ai.JSON(ctx, llm.PromptQuestions, map[string]string{
		"count":       strconv.Itoa(QuestionCount),
		"description": idea.Description,
	}, &out)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		if t := strings.TrimSpace(q.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil, apperror.Upstream("AI service", fmt.Errorf("no questions in completion"))
	}
	if len(texts) > QuestionCount {
		texts = texts[:QuestionCount]
	}

	questions, err := s.repo.AppendQuestions(ctx, idea.ID, texts)
	if err != nil {
		return nil, fmt.Errorf("service/idea: saving questions: %w", err)
	}
	return questions, nil
}

// SaveAnswers writes answers positionally onto the idea's questions.
func (s *IdeaService) SaveAnswers(ctx context.Context, userID, ideaID string, answers []string) ([]model.Question, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	trimmed := make([]string, len(answers))
	for i, a := range answers {
		trimmed[i] = strings.TrimSpace(a)
	}
	if err := s.repo.SaveAnswers(ctx, idea.ID, trimmed); err != nil {
		return nil, fmt.Errorf("service/idea: saving answers: %w", err)
	}
	questions, err := s.repo.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/idea: listing questions: %w", err)
	}
	return questions, nil
}
