package models

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
	StatusBlocked    TaskStatus = "BLOCKED"
)

type Task struct {
	Id           string
	BoardId      string
	Title        string
	Description  string
	Status       TaskStatus
	StatusColumn string
	Position     int
	// IssueNumber pairs the task with a GitHub issue. Nil means the issue
	// was never created on the GitHub side.
	IssueNumber *int
	// Desynced marks a task whose paired issue stopped answering (e.g. it
	// was deleted out of band). Cleared on the next successful inbound sync.
	Desynced  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func ParseStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusBlocked:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}
