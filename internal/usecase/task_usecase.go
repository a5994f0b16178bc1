package usecase

import (
	"context"
	"time"

	"docket/internal/domain/entity"
)

// CreateTaskInput defines the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// TaskUsecase defines task management for the authenticated owner.
// A task owned by someone else behaves exactly like a missing one.
type TaskUsecase interface {
	ListTasks(ctx context.Context, ownerID int64) ([]*entity.Task, error)
	GetTask(ctx context.Context, ownerID, id int64) (*entity.Task, error)
	CreateTask(ctx context.Context, ownerID int64, input CreateTaskInput) (*entity.Task, error)

	// UpdateTask applies a partial update and returns the stored result.
	UpdateTask(ctx context.Context, ownerID, id int64, patch entity.TaskPatch) (*entity.Task, error)

	DeleteTask(ctx context.Context, ownerID, id int64) error
}
