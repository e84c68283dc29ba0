package models

import (
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultPriority is applied when a priority is omitted or not recognised.
const DefaultPriority = PriorityMedium

var priorityAliases = map[string]Priority{
	"high":    PriorityHigh,
	"medium":  PriorityMedium,
	"low":     PriorityLow,
	"haute":   PriorityHigh,
	"moyenne": PriorityMedium,
	"basse":   PriorityLow,
}

// ParsePriority maps raw input onto the priority enumeration.
// Unknown and empty values yield DefaultPriority.
func ParsePriority(raw string) Priority {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return DefaultPriority
}

// Valid reports whether p is one of the enumeration values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task represents a work item owned by exactly one user.
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID      string     `json:"user" gorm:"index:idx_tasks_owner_created,priority:1;type:varchar(36);not null" bson:"user"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null" bson:"title"`
	Description string     `json:"description" gorm:"type:text" bson:"description"`
	DueDate     *time.Time `json:"dueDate" bson:"dueDate"`
	Priority    Priority   `json:"priority" gorm:"type:varchar(10);not null;check:chk_tasks_priority,priority IN ('high','medium','low')" bson:"priority"`
	Completed   bool       `json:"completed" gorm:"not null" bson:"completed"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index:idx_tasks_owner_created,priority:2" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TaskChanges carries a partial task update. Nil fields are left untouched;
// DueDateSet distinguishes "clear the due date" from "leave it alone".
type TaskChanges struct {
	Title       *string
	Description *string
	DueDateSet  bool
	DueDate     *time.Time
	Priority    *Priority
	Completed   *bool
}

// Apply merges the changes into t.
func (c TaskChanges) Apply(t *Task) {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.DueDateSet {
		t.DueDate = c.DueDate
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
}
