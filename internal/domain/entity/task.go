package entity

import "time"

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int64
	OwnerID     int64      // The user this task belongs to. Tasks are never visible to other users.
	Title       string     // 1..100 characters.
	Description string     // Up to 200 characters, may be empty.
	DueDate     *time.Time // Optional, date precision.
	IsComplete  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries the fields of a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	IsComplete   *bool
}

// Apply copies the set fields of the patch onto task.
func (p TaskPatch) Apply(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.ClearDueDate {
		task.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		task.DueDate = &due
	}
	if p.IsComplete != nil {
		task.IsComplete = *p.IsComplete
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDueDate && p.IsComplete == nil
}
