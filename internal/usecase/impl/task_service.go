package impl

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/repository"
	logs "docket/internal/infra/log"
	"docket/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	maxTaskTitleLength       = 100
	maxTaskDescriptionLength = 200
)

type taskService struct {
	taskRepo repository.TaskRepository
	logger   *slog.Logger
}

// TaskServiceParams holds dependencies for TaskService, injected by Fx.
type TaskServiceParams struct {
	fx.In

	TaskRepo repository.TaskRepository
	Logger   *slog.Logger
}

// NewTaskService creates a new task service instance
func NewTaskService(params TaskServiceParams) usecase.TaskUsecase {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &taskService{
		taskRepo: params.TaskRepo,
		logger:   logger,
	}
}

func (s *taskService) log(ctx context.Context) *slog.Logger {
	return logs.FromContext(ctx, s.logger)
}

func (s *taskService) ListTasks(ctx context.Context, ownerID int64) ([]*entity.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	return tasks, nil
}

func (s *taskService) GetTask(ctx context.Context, ownerID, id int64) (*entity.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, mapTaskError(err, "failed to find task")
	}

	return task, nil
}

func (s *taskService) CreateTask(ctx context.Context, ownerID int64, input usecase.CreateTaskInput) (*entity.Task, error) {
	task := &entity.Task{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, errors.Wrap(err, "failed to create task")
	}

	s.log(ctx).Debug("Task created", slog.Int64("taskID", task.ID), slog.Int64("ownerID", ownerID))

	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, ownerID, id int64, patch entity.TaskPatch) (*entity.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, mapTaskError(err, "failed to find task")
	}
	if patch.IsEmpty() {
		return task, nil
	}

	patch.Apply(task)
	task.Title = strings.TrimSpace(task.Title)
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, mapTaskError(err, "failed to update task")
	}

	s.log(ctx).Debug("Task updated", slog.Int64("taskID", task.ID), slog.Int64("ownerID", ownerID))

	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, ownerID, id int64) error {
	if err := s.taskRepo.Delete(ctx, ownerID, id); err != nil {
		return mapTaskError(err, "failed to delete task")
	}

	s.log(ctx).Debug("Task deleted", slog.Int64("taskID", id), slog.Int64("ownerID", ownerID))

	return nil
}

func validateTask(task *entity.Task) error {
	switch {
	case task.Title == "":
		return domainerrors.ErrValidationFailed.WithDetails("title is required")
	case utf8.RuneCountInString(task.Title) > maxTaskTitleLength:
		return domainerrors.ErrValidationFailed.WithDetails("title is too long")
	case utf8.RuneCountInString(task.Description) > maxTaskDescriptionLength:
		return domainerrors.ErrValidationFailed.WithDetails("description is too long")
	}

	return nil
}

func mapTaskError(err error, msg string) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return domainerrors.ErrTaskNotFound.WrapMessage(msg)
	}

	return errors.Wrap(err, msg)
}
