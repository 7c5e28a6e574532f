package model

import "time"

// Kanban columns.
const (
	TaskToDo       = "to_do"
	TaskInProgress = "in_progress"
	TaskClosed     = "closed"
)

// Criticality levels.
const (
	CriticalityLow    = 0
	CriticalityMedium = 1
	CriticalityHigh   = 2
)

// ValidTaskStatus reports whether s is one of the Kanban columns.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskClosed:
		return true
	}
	return false
}

// Task is a Kanban card belonging to an idea.
type Task struct {
	ID          string     `json:"id"`
	IdeaID      string     `json:"ideaId"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	Order       int        `json:"order"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Criticality int        `json:"criticality"`
	Tags        []Tag      `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Tag is a label shared between tasks and expenses. Names are unique.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
