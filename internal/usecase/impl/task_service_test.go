package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/repository"
	mockRepo "docket/internal/mocks/repository"
	"docket/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// taskServiceFixtures holds all test dependencies for task service tests.
type taskServiceFixtures struct {
	service  usecase.TaskUsecase
	taskRepo *mockRepo.MockTaskRepository
}

func createTestTaskService(t *testing.T) taskServiceFixtures {
	taskRepo := mockRepo.NewMockTaskRepository(t)

	return taskServiceFixtures{
		service:  NewTaskService(TaskServiceParams{TaskRepo: taskRepo, Logger: newDiscardLogger()}),
		taskRepo: taskRepo,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestTaskService_ListTasks(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	tasks := []*entity.Task{{ID: 1, OwnerID: 3, Title: "a"}, {ID: 2, OwnerID: 3, Title: "b"}}
	fx.taskRepo.EXPECT().ListByOwner(ctx, int64(3)).Return(tasks, nil)

	got, err := fx.service.ListTasks(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, tasks, got)
}

func TestTaskService_GetTask_NotOwned(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	fx.taskRepo.EXPECT().FindByID(ctx, int64(3), int64(10)).Return(nil, repository.ErrTaskNotFound)

	_, err := fx.service.GetTask(ctx, 3, 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTaskNotFound)
}

func TestTaskService_CreateTask(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	fx.taskRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.Task")).
		Run(func(_ context.Context, task *entity.Task) {
			task.ID = 11
		}).
		Return(nil)

	task, err := fx.service.CreateTask(ctx, 3, usecase.CreateTaskInput{
		Title:       "  write report ",
		Description: "quarterly",
		DueDate:     &due,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), task.ID)
	assert.Equal(t, int64(3), task.OwnerID)
	assert.Equal(t, "write report", task.Title)
	assert.Equal(t, &due, task.DueDate)
	assert.False(t, task.IsComplete)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.CreateTaskInput
	}{
		{name: "blank title", input: usecase.CreateTaskInput{Title: "   "}},
		{name: "long title", input: usecase.CreateTaskInput{Title: strings.Repeat("t", 101)}},
		{name: "long description", input: usecase.CreateTaskInput{Title: "ok", Description: strings.Repeat("d", 201)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestTaskService(t)

			_, err := fx.service.CreateTask(context.Background(), 3, tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
		})
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	existing := &entity.Task{ID: 5, OwnerID: 3, Title: "old", Description: "keep", DueDate: &due}

	fx.taskRepo.EXPECT().FindByID(ctx, int64(3), int64(5)).Return(existing, nil)
	fx.taskRepo.EXPECT().
		Update(ctx, mock.MatchedBy(func(task *entity.Task) bool {
			return task.ID == 5 && task.Title == "new" && task.IsComplete && task.DueDate == nil
		})).
		Return(nil)

	task, err := fx.service.UpdateTask(ctx, 3, 5, entity.TaskPatch{
		Title:        ptr("new"),
		IsComplete:   ptr(true),
		ClearDueDate: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.True(t, task.IsComplete)
	assert.Nil(t, task.DueDate)
}

func TestTaskService_UpdateTask_EmptyPatch(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	existing := &entity.Task{ID: 5, OwnerID: 3, Title: "old"}
	fx.taskRepo.EXPECT().FindByID(ctx, int64(3), int64(5)).Return(existing, nil)

	task, err := fx.service.UpdateTask(ctx, 3, 5, entity.TaskPatch{})

	require.NoError(t, err)
	assert.Equal(t, existing, task)
}

func TestTaskService_UpdateTask_InvalidPatch(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	fx.taskRepo.EXPECT().FindByID(ctx, int64(3), int64(5)).Return(&entity.Task{ID: 5, OwnerID: 3, Title: "old"}, nil)

	_, err := fx.service.UpdateTask(ctx, 3, 5, entity.TaskPatch{Title: ptr(" ")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestTaskService_UpdateTask_NotFound(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	fx.taskRepo.EXPECT().FindByID(ctx, int64(3), int64(5)).Return(nil, repository.ErrTaskNotFound)

	_, err := fx.service.UpdateTask(ctx, 3, 5, entity.TaskPatch{Title: ptr("new")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTaskNotFound)
}

func TestTaskService_DeleteTask(t *testing.T) {
	fx := createTestTaskService(t)

	ctx := context.Background()
	fx.taskRepo.EXPECT().Delete(ctx, int64(3), int64(5)).Return(nil)
	fx.taskRepo.EXPECT().Delete(ctx, int64(3), int64(6)).Return(repository.ErrTaskNotFound)
	fx.taskRepo.EXPECT().Delete(ctx, int64(3), int64(7)).Return(errors.New("db down"))

	require.NoError(t, fx.service.DeleteTask(ctx, 3, 5))

	err := fx.service.DeleteTask(ctx, 3, 6)
	assert.ErrorIs(t, err, domainerrors.ErrTaskNotFound)

	err = fx.service.DeleteTask(ctx, 3, 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrTaskNotFound)
}
