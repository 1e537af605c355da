// Package statusmap holds the fixed translation tables between board task
// statuses, GitHub issue labels and Projects v2 single-select option names.
// The label strings are a wire contract shared by the outbound and inbound
// syncers and must not drift.
package statusmap

import (
	"errors"
	"strings"

	"github.com/taskhub/issue-sync/internal/models"
)

// ErrNoMatchingOption means the live option list on the GitHub project has
// nothing matching the wanted name, even case-insensitively. Callers skip
// the field update instead of failing the whole sync.
var ErrNoMatchingOption = errors.New("no matching project field option")

var statusLabels = map[models.TaskStatus]string{
	models.StatusTodo:       "todo",
	models.StatusInProgress: "in-progress",
	models.StatusInReview:   "in-review",
	models.StatusDone:       "done",
	models.StatusBlocked:    "blocked",
}

var labelStatuses = map[string]models.TaskStatus{
	"todo":        models.StatusTodo,
	"in-progress": models.StatusInProgress,
	"in-review":   models.StatusInReview,
	"done":        models.StatusDone,
	"blocked":     models.StatusBlocked,
}

var optionNames = map[models.TaskStatus]string{
	models.StatusTodo:       "Todo",
	models.StatusInProgress: "In Progress",
	models.StatusInReview:   "In Review",
	models.StatusDone:       "Done",
	models.StatusBlocked:    "Blocked",
}

// Precedence when an issue carries more than one recognized status label.
var labelPrecedence = []models.TaskStatus{
	models.StatusInProgress,
	models.StatusInReview,
	models.StatusBlocked,
	models.StatusDone,
	models.StatusTodo,
}

// LabelFor returns the canonical issue label for a status.
func LabelFor(status models.TaskStatus) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return statusLabels[models.StatusTodo]
}

// OptionNameFor returns the human-readable Projects v2 option name for a status.
func OptionNameFor(status models.TaskStatus) string {
	if n, ok := optionNames[status]; ok {
		return n
	}
	return optionNames[models.StatusTodo]
}

// IsStatusLabel reports whether a label belongs to the status label set.
func IsStatusLabel(label string) bool {
	_, ok := labelStatuses[label]
	return ok
}

// StatusFromLabels resolves a status from an issue's label set. When several
// status labels are present the precedence order wins; when none is present
// the open/closed state decides.
func StatusFromLabels(labels []string, issueState string) models.TaskStatus {
	present := make(map[models.TaskStatus]bool, len(labels))
	for _, l := range labels {
		if st, ok := labelStatuses[l]; ok {
			present[st] = true
		}
	}
	for _, st := range labelPrecedence {
		if present[st] {
			return st
		}
	}
	if issueState == "closed" {
		return models.StatusDone
	}
	return models.StatusTodo
}

// StatusFromOptionName resolves a status from a Projects v2 option name,
// exact match first, case-insensitive second.
func StatusFromOptionName(name string) (models.TaskStatus, bool) {
	if name == "" {
		return "", false
	}
	for st, n := range optionNames {
		if n == name {
			return st, true
		}
	}
	for st, n := range optionNames {
		if strings.EqualFold(n, name) {
			return st, true
		}
	}
	return "", false
}

// MatchOption finds the live project option matching the wanted name. The
// exact pass runs first so that operator-renamed options differing only in
// casing still resolve predictably.
func MatchOption(options []models.ProjectOption, name string) (models.ProjectOption, error) {
	for _, opt := range options {
		if opt.Name == name {
			return opt, nil
		}
	}
	for _, opt := range options {
		if strings.EqualFold(opt.Name, name) {
			return opt, nil
		}
	}
	return models.ProjectOption{}, ErrNoMatchingOption
}
