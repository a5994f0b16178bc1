package model

import "time"

// TaskModel mirrors the 'tasks' table.
type TaskModel struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	OwnerID     int64      `gorm:"not null;index"`
	Title       string     `gorm:"type:varchar(100);not null"`
	Description string     `gorm:"type:varchar(200);not null;default:''"`
	DueDate     *time.Time `gorm:"type:date"`
	IsComplete  bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (TaskModel) TableName() string {
	return "tasks"
}
