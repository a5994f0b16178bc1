package repository

import (
	"context"
	"errors"

	"docket/internal/domain/entity"
)

// ErrTaskNotFound is returned when the task does not exist or belongs to another owner.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository persists tasks. Every method is scoped to an owner.
type TaskRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*entity.Task, error)
	FindByID(ctx context.Context, ownerID, id int64) (*entity.Task, error)
	Create(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	Delete(ctx context.Context, ownerID, id int64) error
}
