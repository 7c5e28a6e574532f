package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	DefaultGoalTimeframe  = "quarterly"
	DefaultGoalAggression = 3
	GeneratedGoalHorizon  = 180 * 24 * time.Hour

	GeneratedGoalDescription = "Automatically generated goal"
	MaxGoalTitle             = 200
)

type GoalService struct {
	ownership
	goals  repository.GoalRepository
	ai     *AI
	logger *slog.Logger
	now    func() time.Time
}

func NewGoalService(ideas repository.IdeaRepository, goals repository.GoalRepository, ai *AI, logger *slog.Logger) *GoalService {
	return &GoalService{ownership: ownership{ideas: ideas}, goals: goals, ai: ai, logger: logger, now: time.Now}
}

type GoalInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	Progress    int    `json:"progress"`
}

// GoalPatch is a partial update. An empty Deadline clears it.
type GoalPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	Progress    *int    `json:"progress"`
}

func (s *GoalService) List(ctx context.Context, userID, ideaID string) ([]model.Goal, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.ListGoals(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/goal: listing goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Create(ctx context.Context, userID, ideaID string, in GoalInput) (*model.Goal, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	goal := &model.Goal{IdeaID: idea.ID, Status: model.GoalInProgress}
	patch := GoalPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Deadline:    &in.Deadline,
		Category:    &in.Category,
		Progress:    &in.Progress,
	}
	if in.Status != "" {
		patch.Status = &in.Status
	}
	if err := applyGoalPatch(goal, patch); err != nil {
		return nil, err
	}

	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("service/goal: creating goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) ownedGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal, err := s.goals.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedIdea(ctx, userID, goal.IdeaID); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, patch GoalPatch) (*model.Goal, error) {
	goal, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if err := applyGoalPatch(goal, patch); err != nil {
		return nil, err
	}
	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("service/goal: updating goal %s: %w", goal.ID, err)
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	goal, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return err
	}
	if err := s.goals.DeleteGoal(ctx, goal.ID); err != nil {
		return fmt.Errorf("service/goal: deleting goal %s: %w", goal.ID, err)
	}
	return nil
}

// Generate asks for up to five SMART goals and stores them, one per
// category in SMART order.
func (s *GoalService) Generate(ctx context.Context, userID, ideaID string, params GoalParams) ([]model.Goal, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	params, err = normalizeGoalParams(params)
	if err != nil {
		return nil, err
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/goal: listing questions: %w", err)
	}

	text, err := s.ai.Text(ctx, llm.PromptGoals, map[string]string{
		"timeframe":  params.Timeframe,
		"aggression": fmt.Sprint(params.Aggression),
		"budget":     fmt.Sprintf("%.2f", params.Budget),
		"context":    goalContext(idea, questions, params, s.ai.Currency()),
	})
	if err != nil {
		return nil, err
	}

	lines := parseGoalLines(text)
	if len(lines) == 0 {
		return nil, apperror.Upstream("AI service", fmt.Errorf("no goals in completion"))
	}

	deadline := s.now().UTC().Add(GeneratedGoalHorizon)
	goals := make([]*model.Goal, len(lines))
	for i, line := range lines {
		goals[i] = &model.Goal{
			IdeaID:      idea.ID,
			Title:       truncateRunes(line, MaxGoalTitle),
			Description: GeneratedGoalDescription,
			Deadline:    &deadline,
			Status:      model.GoalInProgress,
			Category:    model.GoalCategories[i],
			Timeframe:   params.Timeframe,
			Aggression:  params.Aggression,
		}
	}
	if err := s.goals.CreateGoals(ctx, goals); err != nil {
		return nil, fmt.Errorf("service/goal: saving generated goals: %w", err)
	}
	s.logger.Info("goals generated", slog.String("ideaID", idea.ID), slog.Int("count", len(goals)))

	out := make([]model.Goal, len(goals))
	for i, g := range goals {
		out[i] = *g
	}
	return out, nil
}

func normalizeGoalParams(p GoalParams) (GoalParams, error) {
	p.Timeframe = strings.TrimSpace(p.Timeframe)
	if p.Timeframe == "" {
		p.Timeframe = DefaultGoalTimeframe
	}
	switch {
	case p.Aggression == 0:
		p.Aggression = DefaultGoalAggression
	case p.Aggression < 1:
		p.Aggression = 1
	case p.Aggression > 5:
		p.Aggression = 5
	}
	if p.Budget < 0 {
		return p, apperror.ValidationFailed("budget", "budget must not be negative")
	}
	return p, nil
}

func applyGoalPatch(g *model.Goal, p GoalPatch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return apperror.ValidationFailed("title", "title is required")
		}
		if len([]rune(title)) > MaxGoalTitle {
			return apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or fewer", MaxGoalTitle))
		}
		g.Title = title
	}
	if p.Description != nil {
		g.Description = strings.TrimSpace(*p.Description)
	}
	if p.Deadline != nil {
		d, err := parseDueDate(*p.Deadline)
		if err != nil {
			return apperror.ValidationFailed("deadline", "deadline must be a date in YYYY-MM-DD format")
		}
		g.Deadline = d
	}
	if p.Status != nil {
		if *p.Status != model.GoalInProgress && *p.Status != model.GoalCompleted {
			return apperror.ValidationFailed("status", "status must be in_progress or completed")
		}
		g.Status = *p.Status
	}
	if p.Category != nil {
		if !model.ValidGoalCategory(*p.Category) {
			return apperror.ValidationFailed("category",
				"category must be one of specific, measurable, achievable, relevant, time_bound")
		}
		g.Category = *p.Category
	}
	if p.Progress != nil {
		if *p.Progress < 0 || *p.Progress > 100 {
			return apperror.ValidationFailed("progress", "progress must be between 0 and 100")
		}
		g.Progress = *p.Progress
	}
	return nil
}
