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

const MaxSWOTItemLength = 1000

type swotOutput struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

func (o swotOutput) items(swotID string) []*model.SWOTItem {
	var items []*model.SWOTItem
	for _, group := range []struct {
		category string
		contents []string
	}{
		{model.SWOTStrength, o.Strengths},
		{model.SWOTWeakness, o.Weaknesses},
		{model.SWOTOpportunity, o.Opportunities},
		{model.SWOTThreat, o.Threats},
	} {
		for _, c := range group.contents {
			if c = strings.TrimSpace(c); c != "" {
				items = append(items, &model.SWOTItem{SWOTID: swotID, Category: group.category, Content: c})
			}
		}
	}
	return items
}

type SWOTService struct {
	ownership
	swots  repository.SWOTRepository
	ai     *AI
	logger *slog.Logger
}

func NewSWOTService(ideas repository.IdeaRepository, swots repository.SWOTRepository, ai *AI, logger *slog.Logger) *SWOTService {
	return &SWOTService{ownership: ownership{ideas: ideas}, swots: swots, ai: ai, logger: logger}
}

// Board returns the idea's SWOT with its items and latest analysis,
// creating an empty SWOT on first access.
func (s *SWOTService) Board(ctx context.Context, userID, ideaID string) (*model.SWOTBoard, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	swot, err := s.swots.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: loading swot: %w", err)
	}
	return s.board(ctx, swot)
}

func (s *SWOTService) board(ctx context.Context, swot *model.SWOT) (*model.SWOTBoard, error) {
	items, err := s.swots.ListSWOTItems(ctx, swot.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: listing items: %w", err)
	}
	board := &model.SWOTBoard{SWOT: *swot, Items: items}

	analysis, err := s.swots.LatestSWOTAnalysis(ctx, swot.ID)
	switch {
	case err == nil:
		board.LastAnalysis = analysis
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/swot: loading analysis: %w", err)
	}
	return board, nil
}

// Generate replaces every item with a freshly generated set. A failed call
// leaves the existing items untouched.
func (s *SWOTService) Generate(ctx context.Context, userID, ideaID string) (*model.SWOTBoard, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: listing questions: %w", err)
	}
	swot, err := s.swots.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: loading swot: %w", err)
	}

	var out swotOutput
	if err := s.ai.JSON(ctx, llm.PromptSWOT, map[string]string{"context": ideaContext(idea, questions)}, &out); err != nil {
		return nil, err
	}
	items := out.items(swot.ID)
	if len(items) == 0 {
		return nil, apperror.Upstream("AI service", fmt.Errorf("no SWOT items in completion"))
	}

	if err := s.swots.ReplaceSWOTItems(ctx, swot.ID, items); err != nil {
		return nil, fmt.Errorf("service/swot: replacing items: %w", err)
	}
	s.logger.Info("swot generated", slog.String("ideaID", idea.ID), slog.Int("items", len(items)))
	return s.board(ctx, swot)
}

// Analyze writes a short narrative over the current items and stores it.
func (s *SWOTService) Analyze(ctx context.Context, userID, ideaID string) (*model.SWOTAnalysis, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	swot, err := s.swots.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: loading swot: %w", err)
	}
	items, err := s.swots.ListSWOTItems(ctx, swot.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: listing items: %w", err)
	}
	if len(items) == 0 {
		return nil, apperror.ValidationFailed("items", "add or generate SWOT items before requesting an analysis")
	}

	content, err := s.ai.Text(ctx, llm.PromptSWOTAnalysis, map[string]string{"context": swotContext(items)})
	if err != nil {
		return nil, err
	}

	analysis := &model.SWOTAnalysis{SWOTID: swot.ID, Content: content}
	if err := s.swots.CreateSWOTAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("service/swot: saving analysis: %w", err)
	}
	return analysis, nil
}

type SWOTItemInput struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

func (s *SWOTService) AddItem(ctx context.Context, userID, ideaID string, in SWOTItemInput) (*model.SWOTItem, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	category, content, err := validateSWOTItem(in.Category, in.Content)
	if err != nil {
		return nil, err
	}
	swot, err := s.swots.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/swot: loading swot: %w", err)
	}

	item := &model.SWOTItem{SWOTID: swot.ID, Category: category, Content: content}
	if err := s.swots.CreateSWOTItem(ctx, item); err != nil {
		return nil, fmt.Errorf("service/swot: creating item: %w", err)
	}
	return item, nil
}

// ownedItem walks item -> SWOT -> idea and checks the caller owns the idea.
func (s *SWOTService) ownedItem(ctx context.Context, userID, itemID string) (*model.SWOTItem, error) {
	item, err := s.swots.GetSWOTItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	swot, err := s.swots.GetSWOT(ctx, item.SWOTID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedIdea(ctx, userID, swot.IdeaID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SWOTService) UpdateItem(ctx context.Context, userID, itemID string, in SWOTItemInput) (*model.SWOTItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	category := in.Category
	if category == "" {
		category = item.Category
	}
	category, content, err := validateSWOTItem(category, in.Content)
	if err != nil {
		return nil, err
	}
	item.Category = category
	item.Content = content
	if err := s.swots.UpdateSWOTItem(ctx, item); err != nil {
		return nil, fmt.Errorf("service/swot: updating item %s: %w", item.ID, err)
	}
	return item, nil
}

// SetItemCategory moves an item to another quadrant.
func (s *SWOTService) SetItemCategory(ctx context.Context, userID, itemID, category string) (*model.SWOTItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !model.ValidSWOTCategory(category) {
		return nil, invalidSWOTCategory()
	}
	item.Category = category
	if err := s.swots.UpdateSWOTItem(ctx, item); err != nil {
		return nil, fmt.Errorf("service/swot: updating item %s: %w", item.ID, err)
	}
	return item, nil
}

func (s *SWOTService) DeleteItem(ctx context.Context, userID, itemID string) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.swots.DeleteSWOTItem(ctx, item.ID); err != nil {
		return fmt.Errorf("service/swot: deleting item %s: %w", item.ID, err)
	}
	return nil
}

func validateSWOTItem(category, content string) (string, string, error) {
	if !model.ValidSWOTCategory(category) {
		return "", "", invalidSWOTCategory()
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", apperror.ValidationFailed("content", "content is required")
	}
	if len([]rune(content)) > MaxSWOTItemLength {
		return "", "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or fewer", MaxSWOTItemLength))
	}
	return category, content, nil
}

func invalidSWOTCategory() error {
	return apperror.ValidationFailed("category", "category must be one of strength, weakness, opportunity, threat")
}
