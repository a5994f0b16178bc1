package postgres

import (
	"testing"
	"time"

	"docket/internal/domain/entity"
	"docket/internal/infra/persistence/model"

	"github.com/stretchr/testify/assert"
)

func TestUserMapping(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	user := &entity.User{
		ID:           7,
		Name:         "Ada",
		Email:        "  Ada@Example.COM ",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$a2V5",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	userM := fromUserDomain(user)
	assert.Equal(t, "ada@example.com", userM.Email)
	assert.Equal(t, user.PasswordHash, userM.PasswordHash)

	back := toUserDomain(userM)
	assert.Equal(t, int64(7), back.ID)
	assert.Equal(t, "Ada", back.Name)
	assert.Equal(t, "ada@example.com", back.Email)
	assert.Equal(t, now, back.CreatedAt)

	assert.Nil(t, toUserDomain(nil))
	assert.Nil(t, fromUserDomain(nil))
}

func TestTaskMapping(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	taskM := &model.TaskModel{
		ID:          3,
		OwnerID:     7,
		Title:       "Write report",
		Description: "quarterly",
		DueDate:     &due,
		IsComplete:  true,
	}

	task := toTaskDomain(taskM)
	assert.Equal(t, int64(3), task.ID)
	assert.Equal(t, int64(7), task.OwnerID)
	assert.Equal(t, &due, task.DueDate)
	assert.True(t, task.IsComplete)

	assert.Equal(t, taskM, fromTaskDomain(task))
	assert.Nil(t, toTaskDomain(nil))
}
