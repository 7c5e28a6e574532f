// Package repository declares the storage contracts used by the service layer.
//
// Every interface here is implemented by *sqlite.DB. Services depend on the
// narrow interface they need so tests can swap in fakes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sakif/ideaforge/internal/model"
)

// ErrLimitReached is returned by writes that would go past a per-idea cap.
var ErrLimitReached = errors.New("limit reached")

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// CreateUser returns apperror.ErrConflict when the username or email is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHubUser links or creates the account for user.GitHubID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
}

type IdeaRepository interface {
	CreateIdea(ctx context.Context, idea *model.Idea) error
	GetIdea(ctx context.Context, id string) (*model.Idea, error)
	ListIdeas(ctx context.Context, userID string, opts ListOptions) ([]model.Idea, error)
	// DeleteIdea removes the idea and every record scoped to it.
	DeleteIdea(ctx context.Context, id string) error

	// AppendQuestions adds texts, in order, after the idea's last question.
	AppendQuestions(ctx context.Context, ideaID string, texts []string) ([]model.Question, error)
	ListQuestions(ctx context.Context, ideaID string) ([]model.Question, error)
	// SaveAnswers writes answers[i] onto the question at position i.
	SaveAnswers(ctx context.Context, ideaID string, answers []string) error
}

type TaskRepository interface {
	// CreateTasks inserts tasks and their tags (found or created by name)
	// in a single transaction.
	CreateTasks(ctx context.Context, tasks []*model.Task) error
	// ListTasks returns the idea's tasks ordered by Order. An empty status
	// returns every column.
	ListTasks(ctx context.Context, ideaID, status string) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	// UpdateTask saves the task fields and replaces its tag set.
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id string) error
	// MaxTaskOrder returns -1 when the idea has no tasks.
	MaxTaskOrder(ctx context.Context, ideaID string) (int, error)
	AddTaskTag(ctx context.Context, taskID, name string) (*model.Tag, error)
	RemoveTaskTag(ctx context.Context, taskID, tagID string) error
}

type SWOTRepository interface {
	GetOrCreateSWOT(ctx context.Context, ideaID string) (*model.SWOT, error)
	GetSWOT(ctx context.Context, id string) (*model.SWOT, error)
	ListSWOTItems(ctx context.Context, swotID string) ([]model.SWOTItem, error)
	// ReplaceSWOTItems deletes every item of the SWOT and inserts items.
	ReplaceSWOTItems(ctx context.Context, swotID string, items []*model.SWOTItem) error
	CreateSWOTItem(ctx context.Context, item *model.SWOTItem) error
	GetSWOTItem(ctx context.Context, id string) (*model.SWOTItem, error)
	UpdateSWOTItem(ctx context.Context, item *model.SWOTItem) error
	DeleteSWOTItem(ctx context.Context, id string) error
	CreateSWOTAnalysis(ctx context.Context, analysis *model.SWOTAnalysis) error
	// LatestSWOTAnalysis returns apperror.ErrNotFound when none exists.
	LatestSWOTAnalysis(ctx context.Context, swotID string) (*model.SWOTAnalysis, error)
}

type ExpenseRepository interface {
	CreateExpense(ctx context.Context, expense *model.Expense) error
	ListExpenses(ctx context.Context, ideaID string) ([]model.Expense, error)
	GetExpense(ctx context.Context, id string) (*model.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]model.ExpenseCategory, error)
	CreateCategory(ctx context.Context, category *model.ExpenseCategory) error
	GetCategory(ctx context.Context, id string) (*model.ExpenseCategory, error)
}

type ChatRepository interface {
	CreateChatMessage(ctx context.Context, msg *model.ChatMessage) error
	ListChatMessages(ctx context.Context, ideaID string) ([]model.ChatMessage, error)
}

type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	CreateGoals(ctx context.Context, goals []*model.Goal) error
	ListGoals(ctx context.Context, ideaID string) ([]model.Goal, error)
	GetGoal(ctx context.Context, id string) (*model.Goal, error)
	UpdateGoal(ctx context.Context, goal *model.Goal) error
	DeleteGoal(ctx context.Context, id string) error
}

type ResearchRepository interface {
	CreateResearch(ctx context.Context, research *model.MarketResearch) error
	ListResearch(ctx context.Context, ideaID string) ([]model.MarketResearch, error)
	GetResearch(ctx context.Context, id string) (*model.MarketResearch, error)
	DeleteResearch(ctx context.Context, id string) error
}

type LegalRepository interface {
	ReplaceLegalSteps(ctx context.Context, ideaID string, steps []*model.LegalStep) error
	ListLegalSteps(ctx context.Context, ideaID string) ([]model.LegalStep, error)
	GetLegalStep(ctx context.Context, id string) (*model.LegalStep, error)
	UpdateLegalStepProgress(ctx context.Context, id string, progress int) error

	ListLegalConsultations(ctx context.Context, ideaID string) ([]model.LegalConsultation, error)
	CountUserConsultations(ctx context.Context, ideaID string) (int, error)
	// CreateConsultationExchange stores a question and its reply atomically.
	// It returns ErrLimitReached, storing nothing, when the idea already has
	// limit questions.
	CreateConsultationExchange(ctx context.Context, question, reply *model.LegalConsultation, limit int) error
}

type NetworkingRepository interface {
	CreateContact(ctx context.Context, contact *model.NetworkingContact) error
	ListContacts(ctx context.Context, ideaID string) ([]model.NetworkingContact, error)
	CreatePost(ctx context.Context, post *model.NetworkingPost) error
	ListPosts(ctx context.Context, ideaID string) ([]model.NetworkingPost, error)
	GetPost(ctx context.Context, id string) (*model.NetworkingPost, error)
	DeletePost(ctx context.Context, id string) error
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	ListCustomers(ctx context.Context, ideaID string) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, customer *model.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	CustomerStats(ctx context.Context, ideaID string) (*model.CustomerStats, error)
}

type MessageRepository interface {
	CreateScheduledMessage(ctx context.Context, msg *model.ScheduledMessage) error
	ListScheduledMessages(ctx context.Context, ideaID string) ([]model.ScheduledMessage, error)
	// DueScheduledMessages returns pending messages with SendAt <= now, oldest first.
	DueScheduledMessages(ctx context.Context, now time.Time, limit int) ([]model.ScheduledMessage, error)
	// ClaimScheduledMessage moves a pending message to sending. It reports
	// false when another dispatcher run already claimed it.
	ClaimScheduledMessage(ctx context.Context, id string) (bool, error)
	MarkMessageSent(ctx context.Context, id string, at time.Time) error
	MarkMessageFailed(ctx context.Context, id, reason string) error
}
