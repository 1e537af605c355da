package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskhub/issue-sync/internal/client"
	"github.com/taskhub/issue-sync/internal/models"
	"github.com/taskhub/issue-sync/internal/notify"
	"github.com/taskhub/issue-sync/internal/repository"
	"github.com/taskhub/issue-sync/internal/statusmap"
	"github.com/taskhub/issue-sync/internal/vault"
)

// InboundSyncer applies verified webhook deliveries to the local task store.
// The upsert is keyed by (board, issue number), so duplicate deliveries
// collapse into one row.
type InboundSyncer struct {
	vault     *vault.Vault
	boards    *repository.BoardRepository
	tasks     *repository.TaskRepository
	notifier  *notify.Notifier
	newClient client.Factory
}

func NewInboundSyncer(
	v *vault.Vault,
	boards *repository.BoardRepository,
	tasks *repository.TaskRepository,
	notifier *notify.Notifier,
	factory client.Factory,
) *InboundSyncer {
	return &InboundSyncer{
		vault:     v,
		boards:    boards,
		tasks:     tasks,
		notifier:  notifier,
		newClient: factory,
	}
}

// SyncOutcome reports what a delivery did. Nil outcome with nil error means
// the event was acknowledged without action.
type SyncOutcome struct {
	TaskId  string
	Created bool
}

var acceptedIssueActions = map[string]bool{
	"opened":     true,
	"closed":     true,
	"edited":     true,
	"assigned":   true,
	"unassigned": true,
	"labeled":    true,
	"unlabeled":  true,
}

var acceptedProjectItemActions = map[string]bool{
	"edited":  true,
	"updated": true,
}

// HandleIssueEvent upserts the local task paired with the issue in the
// delivery. The external side is the source of truth for title, description
// and status: the upsert is a full overwrite, last writer wins.
func (s *InboundSyncer) HandleIssueEvent(ctx context.Context, ev models.IssueEvent) (*SyncOutcome, error) {
	if !acceptedIssueActions[ev.Action] {
		return nil, nil
	}
	if ev.Issue == nil || ev.Repository == nil {
		return nil, nil
	}

	board, err := s.boards.GetByRepo(ev.Repository.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ResolutionError{Kind: "board", Key: ev.Repository.FullName}
	}
	if err != nil {
		return nil, err
	}

	status := statusmap.StatusFromLabels(ev.Issue.LabelNames(), ev.Issue.State)
	return s.upsert(ctx, board, ev.Issue.Number, ev.Issue.Title, ev.Issue.Body, status, ev.Action)
}

// HandleProjectItemEvent syncs a Projects v2 item change. The board is
// resolved by project number first, then by repository; the live item is
// fetched so the Status field value decides the task status.
func (s *InboundSyncer) HandleProjectItemEvent(ctx context.Context, ev models.ProjectItemEvent) (*SyncOutcome, error) {
	if !acceptedProjectItemActions[ev.Action] {
		return nil, nil
	}
	if ev.Item == nil || ev.Item.NodeId == "" {
		return nil, nil
	}
	if ev.Item.ContentType != "" && ev.Item.ContentType != "Issue" {
		// Drafts and pull requests are not mirrored.
		return nil, nil
	}

	board, err := s.resolveProjectBoard(ev)
	if err != nil {
		return nil, err
	}
	if !board.SyncConfigured() {
		return nil, &ResolutionError{Kind: "board", Key: board.Id}
	}

	token, err := s.vault.Decrypt(*board.EncryptedToken)
	if err != nil {
		return nil, err
	}
	detail, err := s.newClient(token).GetProjectItem(ctx, ev.Item.NodeId)
	if err != nil {
		return nil, fmt.Errorf("fetch project item: %w", err)
	}
	if detail.Issue == nil {
		return nil, nil
	}

	status, ok := statusmap.StatusFromOptionName(detail.StatusOption)
	if !ok {
		status = statusmap.StatusFromLabels(detail.Issue.Labels, detail.Issue.State)
	}
	return s.upsert(ctx, board, detail.Issue.Number, detail.Issue.Title, detail.Issue.Body, status, ev.Action)
}

// BackfillBoard imports the repository's existing issues after sync is first
// configured, so the board starts from the tracker's current state instead of
// waiting for webhooks to trickle in. Returns how many tasks were created.
func (s *InboundSyncer) BackfillBoard(ctx context.Context, board models.Board) (int, error) {
	if !board.SyncConfigured() {
		return 0, &ResolutionError{Kind: "board", Key: board.Id}
	}
	owner, repo, ok := models.SplitRepo(*board.RepoFullName)
	if !ok {
		return 0, fmt.Errorf("invalid repo identifier %q", *board.RepoFullName)
	}
	token, err := s.vault.Decrypt(*board.EncryptedToken)
	if err != nil {
		return 0, err
	}

	issues, err := s.newClient(token).ListIssues(ctx, owner, repo)
	if err != nil {
		return 0, fmt.Errorf("list issues: %w", err)
	}

	created := 0
	for _, issue := range issues {
		status := statusmap.StatusFromLabels(issue.Labels, issue.State)
		outcome, err := s.upsert(ctx, board, issue.Number, issue.Title, issue.Body, status, "backfill")
		if err != nil {
			return created, err
		}
		if outcome.Created {
			created++
		}
	}
	return created, nil
}

func (s *InboundSyncer) resolveProjectBoard(ev models.ProjectItemEvent) (models.Board, error) {
	if ev.Item.ProjectNumber > 0 {
		board, err := s.boards.GetByProjectNumber(ev.Item.ProjectNumber)
		if err == nil {
			return board, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Board{}, err
		}
	}
	if ev.Repository != nil && ev.Repository.FullName != "" {
		board, err := s.boards.GetByRepo(ev.Repository.FullName)
		if err == nil {
			return board, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Board{}, err
		}
	}
	key := fmt.Sprintf("project %d", ev.Item.ProjectNumber)
	if ev.Repository != nil {
		key = fmt.Sprintf("%s / %s", key, ev.Repository.FullName)
	}
	return models.Board{}, &ResolutionError{Kind: "board", Key: key}
}

func (s *InboundSyncer) upsert(ctx context.Context, board models.Board, issueNumber int, title, body string, status models.TaskStatus, action string) (*SyncOutcome, error) {
	var outcome *SyncOutcome

	existing, err := s.tasks.GetByIssueNumber(board.Id, issueNumber)
	switch {
	case err == nil:
		existing.Title = title
		existing.Description = body
		existing.Status = status
		existing.StatusColumn = statusmap.OptionNameFor(status)
		existing.Desynced = false
		if err := s.tasks.Update(&existing); err != nil {
			return nil, err
		}
		outcome = &SyncOutcome{TaskId: existing.Id}

	case errors.Is(err, sql.ErrNoRows):
		task := &models.Task{
			Id:           uuid.NewString(),
			BoardId:      board.Id,
			Title:        title,
			Description:  body,
			Status:       status,
			StatusColumn: statusmap.OptionNameFor(status),
			Position:     0,
			IssueNumber:  &issueNumber,
		}
		if err := s.tasks.Create(task); err != nil {
			return nil, err
		}
		outcome = &SyncOutcome{TaskId: task.Id, Created: true}

	default:
		return nil, err
	}

	s.notifier.TaskChanged(ctx, notify.TaskChange{
		BoardId: board.Id,
		TaskId:  outcome.TaskId,
		Action:  action,
		Source:  "webhook",
	})
	return outcome, nil
}
