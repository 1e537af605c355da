package client

import (
	"context"

	"github.com/taskhub/issue-sync/internal/models"
)

type IssueAPI interface {
	CreateIssue(ctx context.Context, owner, repo string, issue models.ExternalIssue) (*models.ExternalIssue, error)
	UpdateIssue(ctx context.Context, owner, repo string, number int, upd models.IssueUpdate) (*models.ExternalIssue, error)
	CloseIssue(ctx context.Context, owner, repo string, number int) error
	ListIssues(ctx context.Context, owner, repo string) ([]models.ExternalIssue, error)
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error
	CreateLabel(ctx context.Context, owner, repo, name, color string) error
}

type ProjectAPI interface {
	UserProject(ctx context.Context, login string, number int) (string, error)
	OrgProject(ctx context.Context, login string, number int) (string, error)
	ProjectFields(ctx context.Context, projectId string) ([]models.ProjectField, error)
	ProjectItems(ctx context.Context, projectId string) ([]models.ProjectItem, error)
	AddProjectItem(ctx context.Context, projectId, contentNodeId string) (string, error)
	SetProjectItemField(ctx context.Context, projectId, itemId, fieldId, optionId string) error
	GetProjectItem(ctx context.Context, itemNodeId string) (*models.ProjectItemDetail, error)
}

type API interface {
	IssueAPI
	ProjectAPI
}

// Factory builds a tracker client for a decrypted token. Sync services take
// a Factory so tests can point clients at a fake server.
type Factory func(token string) API
