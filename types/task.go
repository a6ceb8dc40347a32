package types

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusOnHold      TaskStatus = "onHold"
	TaskStatusInProgress  TaskStatus = "inProgress"
	TaskStatusUnderReview TaskStatus = "underReview"
	TaskStatusCompleted   TaskStatus = "completed"
)

// Valid reports whether s is one of the known workflow states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusOnHold, TaskStatusInProgress,
		TaskStatusUnderReview, TaskStatusCompleted:
		return true
	}
	return false
}

// Task belongs to exactly one project.
type Task struct {
	// ID is the unique identifier of the task.
	ID int `json:"id" db:"id"`

	// ProjectID references the owning project.
	ProjectID int `json:"project_id" db:"project_id"`

	// Name is the display name of the task.
	Name string `json:"name" db:"name"`

	// Description is a free-form summary of the task.
	Description string `json:"description" db:"description"`

	// Status is the current workflow state.
	Status TaskStatus `json:"status" db:"status"`

	// CreatedAt is the timestamp the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
