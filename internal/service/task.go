package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	GeneratedTaskCount = 10
	FollowUpTaskCount  = 5
)

type TaskService struct {
	ownership
	tasks  repository.TaskRepository
	ai     *AI
	logger *slog.Logger
}

func NewTaskService(ideas repository.IdeaRepository, tasks repository.TaskRepository, ai *AI, logger *slog.Logger) *TaskService {
	return &TaskService{ownership: ownership{ideas: ideas}, tasks: tasks, ai: ai, logger: logger}
}

// TaskInput is the body of a new card.
type TaskInput struct {
	Content     string   `json:"content"`
	Status      string   `json:"status"`
	DueDate     string   `json:"dueDate"`
	Criticality int      `json:"criticality"`
	Tags        []string `json:"tags"`
}

// TaskPatch is a partial update. An empty DueDate clears the due date and
// a non-nil Tags replaces the whole tag set.
type TaskPatch struct {
	Content     *string   `json:"content"`
	Status      *string   `json:"status"`
	Order       *int      `json:"order"`
	DueDate     *string   `json:"dueDate"`
	Criticality *int      `json:"criticality"`
	Tags        *[]string `json:"tags"`
}

func (s *TaskService) List(ctx context.Context, userID, ideaID, status string) ([]model.Task, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	if status != "" && !model.ValidTaskStatus(status) {
		return nil, apperror.ValidationFailed("status", "status must be one of to_do, in_progress, closed")
	}
	tasks, err := s.tasks.ListTasks(ctx, idea.ID, status)
	if err != nil {
		return nil, fmt.Errorf("service/task: listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID, ideaID string, in TaskInput) (*model.Task, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	content, err := validateTaskContent(in.Content)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.TaskToDo
	}
	if !model.ValidTaskStatus(status) {
		return nil, apperror.ValidationFailed("status", "status must be one of to_do, in_progress, closed")
	}
	if err := validateCriticality(in.Criticality); err != nil {
		return nil, err
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	tags, err := validateTagNames(in.Tags)
	if err != nil {
		return nil, err
	}

	maxOrder, err := s.tasks.MaxTaskOrder(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/task: reading task order: %w", err)
	}

	task := &model.Task{
		IdeaID:      idea.ID,
		Content:     content,
		Status:      status,
		Order:       maxOrder + 1,
		DueDate:     due,
		Criticality: in.Criticality,
		Tags:        tagsFromNames(tags),
	}
	if err := s.tasks.CreateTasks(ctx, []*model.Task{task}); err != nil {
		return nil, fmt.Errorf("service/task: creating task: %w", err)
	}
	return task, nil
}

// ownedTask loads the task and checks the caller owns its idea.
func (s *TaskService) ownedTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedIdea(ctx, userID, task.IdeaID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Content != nil {
		content, err := validateTaskContent(*patch.Content)
		if err != nil {
			return nil, err
		}
		task.Content = content
	}
	if patch.Status != nil {
		if !model.ValidTaskStatus(*patch.Status) {
			return nil, apperror.ValidationFailed("status", "status must be one of to_do, in_progress, closed")
		}
		task.Status = *patch.Status
	}
	if patch.Order != nil {
		if *patch.Order < 0 {
			return nil, apperror.ValidationFailed("order", "order must not be negative")
		}
		task.Order = *patch.Order
	}
	if patch.DueDate != nil {
		due, err := parseDueDate(*patch.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = due
	}
	if patch.Criticality != nil {
		if err := validateCriticality(*patch.Criticality); err != nil {
			return nil, err
		}
		task.Criticality = *patch.Criticality
	}
	if patch.Tags != nil {
		names, err := validateTagNames(*patch.Tags)
		if err != nil {
			return nil, err
		}
		task.Tags = tagsFromNames(names)
	}

	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("service/task: updating task %s: %w", task.ID, err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("service/task: deleting task %s: %w", task.ID, err)
	}
	return nil
}

func (s *TaskService) AddTag(ctx context.Context, userID, taskID, name string) (*model.Tag, error) {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	names, err := validateTagNames([]string{name})
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, apperror.ValidationFailed("name", "tag name is required")
	}
	tag, err := s.tasks.AddTaskTag(ctx, task.ID, names[0])
	if err != nil {
		return nil, fmt.Errorf("service/task: tagging task %s: %w", task.ID, err)
	}
	return tag, nil
}

func (s *TaskService) RemoveTag(ctx context.Context, userID, taskID, tagID string) error {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	return s.tasks.RemoveTaskTag(ctx, task.ID, tagID)
}

// Generate builds the first board from the idea and its questionnaire and
// returns every task of the idea.
func (s *TaskService) Generate(ctx context.Context, userID, ideaID string) ([]model.Task, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/task: listing questions: %w", err)
	}

	generated, err := s.generate(ctx, llm.PromptTasks, GeneratedTaskCount, ideaContext(idea, questions))
	if err != nil {
		return nil, err
	}

	tasks := make([]*model.Task, len(generated))
	for i, g := range generated {
		tasks[i] = &model.Task{
			IdeaID:      idea.ID,
			Content:     g.Content,
			Status:      model.TaskToDo,
			Order:       i,
			Criticality: g.Criticality,
			Tags:        tagsFromNames(g.Tags),
		}
	}
	if err := s.tasks.CreateTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("service/task: saving generated tasks: %w", err)
	}
	s.logger.Info("tasks generated", slog.String("ideaID", idea.ID), slog.Int("count", len(tasks)))

	return s.tasks.ListTasks(ctx, idea.ID, "")
}

// GenerateMore suggests follow-up tasks based on the closed ones, appends
// them to the board and returns the to_do column.
func (s *TaskService) GenerateMore(ctx context.Context, userID, ideaID string) ([]model.Task, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	closed, err := s.tasks.ListTasks(ctx, idea.ID, model.TaskClosed)
	if err != nil {
		return nil, fmt.Errorf("service/task: listing closed tasks: %w", err)
	}

	generated, err := s.generate(ctx, llm.PromptMoreTasks, FollowUpTaskCount, completedTasksContext(idea, closed))
	if err != nil {
		return nil, err
	}

	maxOrder, err := s.tasks.MaxTaskOrder(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/task: reading task order: %w", err)
	}
	tasks := make([]*model.Task, len(generated))
	for i, g := range generated {
		tasks[i] = &model.Task{
			IdeaID:      idea.ID,
			Content:     g.Content,
			Status:      model.TaskToDo,
			Order:       maxOrder + 1 + i,
			Criticality: g.Criticality,
			Tags:        tagsFromNames(g.Tags),
		}
	}
	if err := s.tasks.CreateTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("service/task: saving follow-up tasks: %w", err)
	}

	return s.tasks.ListTasks(ctx, idea.ID, model.TaskToDo)
}

func (s *TaskService) generate(ctx context.Context, prompt string, count int, taskContext string) ([]generatedTask, error) {
	var out tasksOutput
	err := s.ai.JSON(ctx, prompt, map[string]string{
		"count":   strconv.Itoa(count),
		"context": taskContext,
	}, &out)
	if err != nil {
		return nil, err
	}
	tasks := normalizeTasks(out.Tasks)
	if len(tasks) == 0 {
		return nil, apperror.Upstream("AI service", fmt.Errorf("no tasks in completion"))
	}
	if len(tasks) > count {
		tasks = tasks[:count]
	}
	return tasks, nil
}

func validateTaskContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperror.ValidationFailed("content", "content is required")
	}
	if len([]rune(content)) > maxTaskContent {
		return "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or fewer", maxTaskContent))
	}
	return content, nil
}

func validateCriticality(c int) error {
	if c < model.CriticalityLow || c > model.CriticalityHigh {
		return apperror.ValidationFailed("criticality", "criticality must be 0 (low), 1 (medium) or 2 (high)")
	}
	return nil
}

func validateTagNames(in []string) ([]string, error) {
	names := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, n := range in {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if len([]rune(n)) > maxTagName {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tag names must be %d characters or fewer", maxTagName))
		}
		if key := strings.ToLower(n); !seen[key] {
			seen[key] = true
			names = append(names, n)
		}
	}
	return names, nil
}

// parseDueDate accepts YYYY-MM-DD or RFC 3339. Empty means no due date.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.ValidationFailed("dueDate", "dueDate must be a date in YYYY-MM-DD format")
}
