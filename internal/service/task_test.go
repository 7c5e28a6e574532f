package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
)

func newTestTaskService(f *fixture) *TaskService {
	return NewTaskService(f.db, f.db, f.ai, testLogger())
}

func TestTaskGenerate(t *testing.T) {
	f := newFixture(t)
	f.questions(t, "Who buys?", "Office workers")
	svc := newTestTaskService(f)

	f.llm.json[llm.PromptTasks] = `{"tasks":[
		{"content":"Bake test batches","criticality":2,"tags":["kitchen","Kitchen","quality"]},
		{"content":"","criticality":1,"tags":[]},
		{"content":"Buy a cargo bike","criticality":7,"tags":["logistics"]}
	]}`

	tasks, err := svc.Generate(context.Background(), f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "Bake test batches", tasks[0].Content)
	assert.Equal(t, 0, tasks[0].Order)
	assert.Equal(t, model.TaskToDo, tasks[0].Status)
	assert.ElementsMatch(t, []string{"kitchen", "quality"}, tagNames(tasks[0].Tags))
	assert.Equal(t, 1, tasks[1].Order)
	assert.Equal(t, model.CriticalityHigh, tasks[1].Criticality)

	req := f.llm.lastRequest(t)
	assert.Contains(t, req.User, "Question: Who buys?\nAnswer: Office workers")
	assert.Contains(t, req.System, "10 initial tasks")
}

func TestTaskGenerate_FailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	svc := newTestTaskService(f)

	_, err := svc.Generate(context.Background(), f.owner.ID, f.idea.ID)
	assert.ErrorIs(t, err, apperror.ErrUpstream)

	tasks, err := f.db.ListTasks(context.Background(), f.idea.ID, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskGenerateMore_AppendsAfterMaxOrder(t *testing.T) {
	f := newFixture(t)
	svc := newTestTaskService(f)
	ctx := context.Background()

	require.NoError(t, f.db.CreateTasks(ctx, []*model.Task{
		{IdeaID: f.idea.ID, Content: "Write the menu", Status: model.TaskClosed, Order: 0},
		{IdeaID: f.idea.ID, Content: "Rent a kitchen", Status: model.TaskInProgress, Order: 4},
	}))
	f.llm.json[llm.PromptMoreTasks] = `{"tasks":[{"content":"Print flyers","criticality":0,"tags":["marketing"]},{"content":"Open a stall","criticality":1,"tags":[]}]}`

	todo, err := svc.GenerateMore(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, todo, 2)
	assert.Equal(t, "Print flyers", todo[0].Content)
	assert.Equal(t, 5, todo[0].Order)
	assert.Equal(t, 6, todo[1].Order)

	req := f.llm.lastRequest(t)
	assert.Contains(t, req.User, "Completed tasks:\n- Write the menu\n")
	assert.NotContains(t, req.User, "Rent a kitchen")
}

func TestTaskCRUD(t *testing.T) {
	f := newFixture(t)
	svc := newTestTaskService(f)
	ctx := context.Background()

	first, err := svc.Create(ctx, f.owner.ID, f.idea.ID, TaskInput{Content: "Register domain", Tags: []string{"web"}})
	require.NoError(t, err)
	assert.Equal(t, model.TaskToDo, first.Status)
	assert.Equal(t, 0, first.Order)

	second, err := svc.Create(ctx, f.owner.ID, f.idea.ID, TaskInput{Content: "Design logo", Status: model.TaskInProgress, DueDate: "2030-01-15", Criticality: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)
	require.NotNil(t, second.DueDate)
	assert.Equal(t, 2030, second.DueDate.Year())

	status := model.TaskClosed
	noDue := ""
	tags := []string{"design", "brand"}
	updated, err := svc.Update(ctx, f.owner.ID, second.ID, TaskPatch{Status: &status, DueDate: &noDue, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, model.TaskClosed, updated.Status)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "Design logo", updated.Content)

	stored, err := f.db.GetTask(ctx, second.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"design", "brand"}, tagNames(stored.Tags))

	closed, err := svc.List(ctx, f.owner.ID, f.idea.ID, model.TaskClosed)
	require.NoError(t, err)
	assert.Len(t, closed, 1)

	require.NoError(t, svc.Delete(ctx, f.owner.ID, first.ID))
	all, err := svc.List(ctx, f.owner.ID, f.idea.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTaskValidation(t *testing.T) {
	f := newFixture(t)
	svc := newTestTaskService(f)
	ctx := context.Background()

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	tests := map[string]TaskInput{
		"empty content":  {Content: "  "},
		"long content":   {Content: string(long)},
		"unknown status": {Content: "x", Status: "done"},
		"criticality":    {Content: "x", Criticality: 3},
		"bad due date":   {Content: "x", DueDate: "tomorrow"},
		"long tag":       {Content: "x", Tags: []string{string(long[:51])}},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, f.owner.ID, f.idea.ID, in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	_, err := svc.List(ctx, f.owner.ID, f.idea.ID, "archived")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestTaskTags(t *testing.T) {
	f := newFixture(t)
	svc := newTestTaskService(f)
	ctx := context.Background()

	task, err := svc.Create(ctx, f.owner.ID, f.idea.ID, TaskInput{Content: "Set up POS"})
	require.NoError(t, err)

	tag, err := svc.AddTag(ctx, f.owner.ID, task.ID, "  finance ")
	require.NoError(t, err)
	assert.Equal(t, "finance", tag.Name)

	_, err = svc.AddTag(ctx, f.owner.ID, task.ID, " ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, svc.RemoveTag(ctx, f.owner.ID, task.ID, tag.ID))
	assert.ErrorIs(t, svc.RemoveTag(ctx, f.owner.ID, task.ID, tag.ID), apperror.ErrNotFound)
}

func TestTaskOwnership(t *testing.T) {
	f := newFixture(t)
	svc := newTestTaskService(f)
	ctx := context.Background()

	task, err := svc.Create(ctx, f.owner.ID, f.idea.ID, TaskInput{Content: "Secret plan"})
	require.NoError(t, err)

	content := "Hijacked"
	_, err = svc.Update(ctx, f.stranger.ID, task.ID, TaskPatch{Content: &content})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, f.stranger.ID, task.ID), apperror.ErrForbidden)
	_, err = svc.Create(ctx, f.stranger.ID, f.idea.ID, TaskInput{Content: "Sneaky"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = svc.Update(ctx, f.owner.ID, "missing", TaskPatch{Content: &content})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}
