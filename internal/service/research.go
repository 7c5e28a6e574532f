package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

type ResearchService struct {
	ownership
	research repository.ResearchRepository
	ai       *AI
	logger   *slog.Logger
}

func NewResearchService(ideas repository.IdeaRepository, research repository.ResearchRepository, ai *AI, logger *slog.Logger) *ResearchService {
	return &ResearchService{ownership: ownership{ideas: ideas}, research: research, ai: ai, logger: logger}
}

// defaultResearchOptions is used when no option was ticked.
var defaultResearchOptions = []string{"market size", "target audience", "competitors", "pricing", "trends"}

// ResearchInput is the location plus the study sections the user ticked,
// e.g. ["competitors", "pricing"].
type ResearchInput struct {
	Location string   `json:"location"`
	Options  []string `json:"options"`
}

// Generate runs a market study for the idea and stores it.
func (s *ResearchService) Generate(ctx context.Context, userID, ideaID string, in ResearchInput) (*model.MarketResearch, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/research: listing questions: %w", err)
	}

	location := strings.TrimSpace(in.Location)
	var picked []string
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			picked = append(picked, o)
		}
	}
	if len(picked) == 0 {
		picked = defaultResearchOptions
	}
	options := strings.Join(picked, ", ")

	content, err := s.ai.Text(ctx, llm.PromptMarketResearch, map[string]string{
		"context":  qaContext(idea, questions),
		"location": location,
		"options":  options,
	})
	if err != nil {
		return nil, err
	}

	r := &model.MarketResearch{IdeaID: idea.ID, Content: content, Location: location}
	if err := s.research.CreateResearch(ctx, r); err != nil {
		return nil, fmt.Errorf("service/research: saving research: %w", err)
	}
	s.logger.Info("market research generated", slog.String("ideaID", idea.ID))
	return r, nil
}

// List returns the idea's studies, newest first.
func (s *ResearchService) List(ctx context.Context, userID, ideaID string) ([]model.MarketResearch, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	list, err := s.research.ListResearch(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/research: listing research: %w", err)
	}
	return list, nil
}

func (s *ResearchService) Get(ctx context.Context, userID, researchID string) (*model.MarketResearch, error) {
	r, err := s.research.GetResearch(ctx, researchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedIdea(ctx, userID, r.IdeaID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ResearchService) Delete(ctx context.Context, userID, researchID string) error {
	r, err := s.Get(ctx, userID, researchID)
	if err != nil {
		return err
	}
	if err := s.research.DeleteResearch(ctx, r.ID); err != nil {
		return fmt.Errorf("service/research: deleting research %s: %w", r.ID, err)
	}
	return nil
}
