package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dassyor/internal/model"
)

func createTask(t *testing.T, repo *SearchTaskRepository) *model.SearchTask {
	t.Helper()

	ctx := context.Background()
	tx, err := repo.Pool().Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	task := &model.SearchTask{
		TaskID: uuid.NewString(),
		Email:  "founder@example.com",
		Query:  "meal planning app",
		Status: model.SearchTaskPending,
	}
	require.NoError(t, repo.CreateInTx(ctx, tx, task))
	require.NoError(t, tx.Commit(ctx))
	return task
}

func TestSearchTaskLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewSearchTaskRepository(GetTestDB())
	task := createTask(t, repo)

	got, err := repo.GetByTaskID(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.SearchTaskPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	posts := []*model.RelevantPost{
		{Title: "Looking for a meal planner", Link: "https://example.com/1"},
		{Title: "Tired of cooking decisions", Link: "https://example.com/2"},
	}
	require.NoError(t, repo.MarkSuccess(ctx, task.TaskID, "Strong demand signals.", posts))

	got, err = repo.GetByTaskID(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.SearchTaskSuccess, got.Status)
	assert.Equal(t, "Strong demand signals.", got.Analysis)
	assert.NotNil(t, got.CompletedAt)

	saved, err := repo.ListPosts(ctx, task.TaskID)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Looking for a meal planner", saved[0].Title)
}

func TestSearchTaskMarkFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewSearchTaskRepository(GetTestDB())
	task := createTask(t, repo)

	require.NoError(t, repo.MarkFailure(ctx, task.TaskID))

	got, err := repo.GetByTaskID(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.SearchTaskFailure, got.Status)

	assert.ErrorIs(t, repo.MarkFailure(ctx, "no-such-task"), ErrNoRowUpdated)
}

func TestSearchTaskList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewSearchTaskRepository(GetTestDB())
	first := createTask(t, repo)
	second := createTask(t, repo)

	tasks, err := repo.List(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	require.NoError(t, repo.MarkFailure(ctx, first.TaskID))

	failed, err := repo.List(ctx, "", model.SearchTaskFailure, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, first.TaskID, failed[0].TaskID)

	byEmail, err := repo.List(ctx, "founder@example.com", model.SearchTaskPending, 10)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, second.TaskID, byEmail[0].TaskID)

	none, err := repo.List(ctx, "stranger@example.com", "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
