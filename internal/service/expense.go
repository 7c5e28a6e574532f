package service

import (
	"context"
	"errors"
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
	MaxExpenseDescription = 200
	MaxCategoryName       = 100

	// NoExpensesAnalysis is returned by Analyze when nothing is recorded yet.
	NoExpensesAnalysis = "No expenses recorded for this idea yet."
)

type ExpenseService struct {
	ownership
	expenses repository.ExpenseRepository
	ai       *AI
	logger   *slog.Logger
}

func NewExpenseService(ideas repository.IdeaRepository, expenses repository.ExpenseRepository, ai *AI, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{ownership: ownership{ideas: ideas}, expenses: expenses, ai: ai, logger: logger}
}

type ExpenseInput struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Date        string   `json:"date"`
	CategoryID  string   `json:"categoryId"`
	Tags        []string `json:"tags"`
}

func (s *ExpenseService) List(ctx context.Context, userID, ideaID string) ([]model.Expense, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListExpenses(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/expense: listing expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) Create(ctx context.Context, userID, ideaID string, in ExpenseInput) (*model.Expense, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperror.ValidationFailed("description", "description is required")
	}
	if len([]rune(description)) > MaxExpenseDescription {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or fewer", MaxExpenseDescription))
	}
	if in.Amount <= 0 {
		return nil, apperror.ValidationFailed("amount", "amount must be greater than zero")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil, apperror.ValidationFailed("categoryId", "categoryId is required")
	}
	category, err := s.expenses.GetCategory(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("categoryId", "category does not exist")
		}
		return nil, fmt.Errorf("service/expense: loading category: %w", err)
	}

	date := time.Now().UTC()
	if in.Date != "" {
		d, err := parseDueDate(in.Date)
		if err != nil {
			return nil, apperror.ValidationFailed("date", "date must be in YYYY-MM-DD format")
		}
		date = *d
	}
	tags, err := validateTagNames(in.Tags)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		IdeaID:      idea.ID,
		Description: description,
		Amount:      in.Amount,
		Date:        date,
		CategoryID:  category.ID,
		Category:    category,
		Tags:        tagsFromNames(tags),
	}
	if err := s.expenses.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("service/expense: creating expense: %w", err)
	}
	return expense, nil
}

func (s *ExpenseService) ownedExpense(ctx context.Context, userID, expenseID string) (*model.Expense, error) {
	expense, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedIdea(ctx, userID, expense.IdeaID); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, expenseID string) (*model.Expense, error) {
	return s.ownedExpense(ctx, userID, expenseID)
}

func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) error {
	expense, err := s.ownedExpense(ctx, userID, expenseID)
	if err != nil {
		return err
	}
	if err := s.expenses.DeleteExpense(ctx, expense.ID); err != nil {
		return fmt.Errorf("service/expense: deleting expense %s: %w", expense.ID, err)
	}
	return nil
}

// Categories are shared by every user.
func (s *ExpenseService) Categories(ctx context.Context) ([]model.ExpenseCategory, error) {
	categories, err := s.expenses.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/expense: listing categories: %w", err)
	}
	return categories, nil
}

func (s *ExpenseService) CreateCategory(ctx context.Context, name string) (*model.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len([]rune(name)) > MaxCategoryName {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or fewer", MaxCategoryName))
	}
	category := &model.ExpenseCategory{Name: name}
	if err := s.expenses.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Analyze comments on the idea's spending. With no expenses recorded it
// answers NoExpensesAnalysis without calling the completion API.
func (s *ExpenseService) Analyze(ctx context.Context, userID, ideaID string) (string, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return "", err
	}
	expenses, err := s.expenses.ListExpenses(ctx, idea.ID)
	if err != nil {
		return "", fmt.Errorf("service/expense: listing expenses: %w", err)
	}
	if len(expenses) == 0 {
		return NoExpensesAnalysis, nil
	}
	return s.ai.Text(ctx, llm.PromptExpenseAnalysis, map[string]string{
		"context": expenseContext(expenses, s.ai.Currency()),
	})
}
