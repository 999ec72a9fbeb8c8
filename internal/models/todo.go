package models

import (
	"strings"
	"time"
)

// Status is a todo's three-state completion status.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusIncomplete, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Next advances along the fixed cycle
// incomplete -> in-progress -> completed -> incomplete.
func (s Status) Next() Status {
	switch s {
	case StatusIncomplete:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusIncomplete
	}
}

// Todo is a single task item.
//
// Invariant: CompletedAt is set if and only if Status is completed.
type Todo struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Status      Status     `json:"status"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Open reports whether the todo is not yet completed.
func (t Todo) Open() bool {
	return t.Status != StatusCompleted
}

// Clone returns a deep copy.
func (t Todo) Clone() Todo {
	c := t
	c.CreatedAt = cloneTime(t.CreatedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return c
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
