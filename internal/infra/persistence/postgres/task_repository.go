package postgres

import (
	"context"
	"time"

	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/repository"
	"docket/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository returns a TaskRepository backed by db, which may be a transaction.
func NewTaskRepository(db *gorm.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

// ListByOwner returns the owner's tasks, oldest first.
func (repo *taskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*entity.Task, error) {
	var taskMs []model.TaskModel
	if err := repo.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&taskMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	tasks := make([]*entity.Task, 0, len(taskMs))
	for i := range taskMs {
		tasks = append(tasks, toTaskDomain(&taskMs[i]))
	}

	return tasks, nil
}

func (repo *taskRepository) FindByID(ctx context.Context, ownerID, id int64) (*entity.Task, error) {
	var taskM model.TaskModel
	if err := repo.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&taskM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTaskNotFound
		}

		return nil, errors.Wrap(err, "failed to find task")
	}

	return toTaskDomain(&taskM), nil
}

func (repo *taskRepository) Create(ctx context.Context, task *entity.Task) error {
	taskM := fromTaskDomain(task)

	if err := repo.db.WithContext(ctx).Create(taskM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("task owner does not exist")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid task")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create task")
	}

	task.ID = taskM.ID
	task.CreatedAt = taskM.CreatedAt
	task.UpdatedAt = taskM.UpdatedAt

	return nil
}

// Update writes every mutable column, including a cleared due date.
func (repo *taskRepository) Update(ctx context.Context, task *entity.Task) error {
	taskM := fromTaskDomain(task)
	taskM.UpdatedAt = time.Now()

	result := repo.db.WithContext(ctx).Model(&model.TaskModel{}).
		Where("id = ? AND owner_id = ?", task.ID, task.OwnerID).
		Select("title", "description", "due_date", "is_complete", "updated_at").
		Updates(taskM)
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid task")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update task")
	}
	if result.RowsAffected == 0 {
		return repository.ErrTaskNotFound
	}

	task.UpdatedAt = taskM.UpdatedAt

	return nil
}

func (repo *taskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.TaskModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete task")
	}
	if result.RowsAffected == 0 {
		return repository.ErrTaskNotFound
	}

	return nil
}

func toTaskDomain(taskM *model.TaskModel) *entity.Task {
	if taskM == nil {
		return nil
	}

	return &entity.Task{
		ID:          taskM.ID,
		OwnerID:     taskM.OwnerID,
		Title:       taskM.Title,
		Description: taskM.Description,
		DueDate:     taskM.DueDate,
		IsComplete:  taskM.IsComplete,
		CreatedAt:   taskM.CreatedAt,
		UpdatedAt:   taskM.UpdatedAt,
	}
}

func fromTaskDomain(task *entity.Task) *model.TaskModel {
	if task == nil {
		return nil
	}

	return &model.TaskModel{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		IsComplete:  task.IsComplete,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
