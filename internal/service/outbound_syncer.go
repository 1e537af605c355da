package service

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/taskhub/issue-sync/internal/client"
	"github.com/taskhub/issue-sync/internal/client/github"
	"github.com/taskhub/issue-sync/internal/models"
	"github.com/taskhub/issue-sync/internal/repository"
	"github.com/taskhub/issue-sync/internal/statusmap"
	"github.com/taskhub/issue-sync/internal/vault"
)

// OutboundSyncer pushes local task mutations to GitHub. Every external call
// is best-effort: failures are logged and swallowed so the local write that
// triggered the sync is never failed, blocked or rolled back.
type OutboundSyncer struct {
	vault     *vault.Vault
	tasks     *repository.TaskRepository
	newClient client.Factory
}

func NewOutboundSyncer(v *vault.Vault, tasks *repository.TaskRepository, factory client.Factory) *OutboundSyncer {
	return &OutboundSyncer{
		vault:     v,
		tasks:     tasks,
		newClient: factory,
	}
}

// TaskCreated mirrors a freshly created task as a new GitHub issue and, when
// the board is wired to a project, adds the issue there with its status.
func (s *OutboundSyncer) TaskCreated(ctx context.Context, board models.Board, task *models.Task) {
	api, owner, repo, ok := s.clientFor(board)
	if !ok {
		return
	}
	s.createIssue(ctx, api, owner, repo, board, task)
}

// TaskUpdated mirrors title/body/state changes and reconciles status labels.
// A task whose issue was never created (a previous sync attempt failed) gets
// the issue created now instead.
func (s *OutboundSyncer) TaskUpdated(ctx context.Context, board models.Board, task *models.Task, previousStatus models.TaskStatus) {
	api, owner, repo, ok := s.clientFor(board)
	if !ok {
		return
	}

	if task.IssueNumber == nil {
		// Lazy repair: first sync attempt failed at creation time.
		s.createIssue(ctx, api, owner, repo, board, task)
		return
	}
	number := *task.IssueNumber

	state := issueState(task.Status)
	updated, err := api.UpdateIssue(ctx, owner, repo, number, models.IssueUpdate{
		Title: &task.Title,
		Body:  &task.Description,
		State: &state,
	})
	if err != nil {
		var apiErr *github.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			// The paired issue is gone, likely deleted out of band. Keep
			// the pairing but flag the task so it shows up as desynced.
			if derr := s.tasks.SetDesynced(task.Id, true); derr != nil {
				log.WithField("task", task.Id).Errorf("mark task desynced: %v", derr)
			}
		}
		s.logSyncFailure(board, task, "update issue", err)
		return
	}

	s.reconcileLabels(ctx, api, owner, repo, number, previousStatus, task.Status, board, task)

	if board.ProjectNumber != nil {
		s.syncProjectStatus(ctx, api, board, updated.NodeId, task.Status)
	}
}

// TaskDeleted closes the paired issue. Issues are never deleted; GitHub
// keeps the history.
func (s *OutboundSyncer) TaskDeleted(ctx context.Context, board models.Board, task *models.Task) {
	if task.IssueNumber == nil {
		return
	}
	api, owner, repo, ok := s.clientFor(board)
	if !ok {
		return
	}
	if err := api.CloseIssue(ctx, owner, repo, *task.IssueNumber); err != nil {
		s.logSyncFailure(board, task, "close issue", err)
	}
}

func (s *OutboundSyncer) createIssue(ctx context.Context, api client.API, owner, repo string, board models.Board, task *models.Task) {
	created, err := api.CreateIssue(ctx, owner, repo, models.ExternalIssue{
		Title:  task.Title,
		Body:   task.Description,
		State:  issueState(task.Status),
		Labels: []string{statusmap.LabelFor(task.Status)},
	})
	if err != nil {
		s.logSyncFailure(board, task, "create issue", err)
		return
	}

	// Persist the pairing key exactly once. If this write fails the task
	// stays unpaired and the next update repairs it lazily.
	if err := s.tasks.SetIssueNumber(task.Id, created.Number); err != nil {
		log.WithFields(log.Fields{"task": task.Id, "issue": created.Number}).
			Errorf("persist issue number: %v", err)
		return
	}
	task.IssueNumber = &created.Number

	if board.ProjectNumber != nil {
		s.syncProjectStatus(ctx, api, board, created.NodeId, task.Status)
	}
}

// reconcileLabels removes the stale status label and applies the current
// one. Re-applying the same status is a no-op on the label set.
func (s *OutboundSyncer) reconcileLabels(ctx context.Context, api client.API, owner, repo string, number int, previous, current models.TaskStatus, board models.Board, task *models.Task) {
	oldLabel := statusmap.LabelFor(previous)
	newLabel := statusmap.LabelFor(current)

	if oldLabel != newLabel {
		if err := api.RemoveLabel(ctx, owner, repo, number, oldLabel); err != nil {
			var apiErr *github.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
				s.logSyncFailure(board, task, "remove label", err)
			}
		}
	}

	// Make sure the label exists before applying it; 422 means it already
	// does.
	if err := api.CreateLabel(ctx, owner, repo, newLabel, labelColor(current)); err != nil {
		var apiErr *github.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
			s.logSyncFailure(board, task, "create label", err)
		}
	}
	if err := api.AddLabels(ctx, owner, repo, number, []string{newLabel}); err != nil {
		s.logSyncFailure(board, task, "add label", err)
	}
}

// syncProjectStatus adds the issue to the board's project when needed and
// writes the status into the Status single-select field. Any failure here
// only costs the project mirror, never the issue sync.
func (s *OutboundSyncer) syncProjectStatus(ctx context.Context, api client.API, board models.Board, issueNodeId string, status models.TaskStatus) {
	if issueNodeId == "" || board.RepoFullName == nil || board.ProjectNumber == nil {
		return
	}
	owner, _, ok := models.SplitRepo(*board.RepoFullName)
	if !ok {
		return
	}

	resolver := NewFieldResolver(api)

	projectId, err := resolver.ResolveProject(ctx, owner, *board.ProjectNumber)
	if err != nil {
		log.WithField("board", board.Id).Warnf("resolve project %d: %v", *board.ProjectNumber, err)
		return
	}
	itemId, err := resolver.EnsureItem(ctx, projectId, issueNodeId)
	if err != nil {
		log.WithField("board", board.Id).Warnf("ensure project item: %v", err)
		return
	}
	field, err := resolver.ResolveStatusField(ctx, projectId)
	if err != nil {
		log.WithField("board", board.Id).Warnf("resolve status field: %v", err)
		return
	}
	if field == nil {
		// Project has no Status field. The item was still added.
		return
	}
	option, err := statusmap.MatchOption(field.Options, statusmap.OptionNameFor(status))
	if err != nil {
		log.WithField("board", board.Id).Debugf("status option %q: %v", statusmap.OptionNameFor(status), err)
		return
	}
	if err := api.SetProjectItemField(ctx, projectId, itemId, field.Id, option.Id); err != nil {
		log.WithField("board", board.Id).Warnf("set project status field: %v", err)
	}
}

func (s *OutboundSyncer) clientFor(board models.Board) (client.API, string, string, bool) {
	if !board.SyncConfigured() {
		return nil, "", "", false
	}
	owner, repo, ok := models.SplitRepo(*board.RepoFullName)
	if !ok {
		log.WithField("board", board.Id).Errorf("invalid repo identifier %q", *board.RepoFullName)
		return nil, "", "", false
	}
	token, err := s.vault.Decrypt(*board.EncryptedToken)
	if err != nil {
		log.WithField("board", board.Id).Errorf("decrypt sync token: %v", err)
		return nil, "", "", false
	}
	return s.newClient(token), owner, repo, true
}

func (s *OutboundSyncer) logSyncFailure(board models.Board, task *models.Task, op string, err error) {
	log.WithFields(log.Fields{
		"board": board.Id,
		"task":  task.Id,
	}).Errorf("%s: %v", op, err)
}

func issueState(status models.TaskStatus) string {
	if status == models.StatusDone {
		return "closed"
	}
	return "open"
}

func labelColor(status models.TaskStatus) string {
	switch status {
	case models.StatusInProgress:
		return "fbca04"
	case models.StatusInReview:
		return "0e8a16"
	case models.StatusDone:
		return "5319e7"
	case models.StatusBlocked:
		return "d93f0b"
	default:
		return "ededed"
	}
}
