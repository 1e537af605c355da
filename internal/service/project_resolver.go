package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskhub/issue-sync/internal/client"
	"github.com/taskhub/issue-sync/internal/models"
)

const statusFieldName = "Status"

// FieldResolver locates a Projects v2 project, its Status single-select
// field and the item backing a given issue. Nothing is cached between calls;
// fields and options can be renamed on the GitHub side at any moment.
type FieldResolver struct {
	api client.ProjectAPI
}

func NewFieldResolver(api client.ProjectAPI) *FieldResolver {
	return &FieldResolver{api: api}
}

// ResolveProject finds the project node id for an owner login and project
// number. The API needs to know whether the owner is a user or an
// organization, so the user-scoped lookup runs first and the org-scoped one
// is the fallback.
func (r *FieldResolver) ResolveProject(ctx context.Context, owner string, number int) (string, error) {
	id, userErr := r.api.UserProject(ctx, owner, number)
	if userErr == nil && id != "" {
		return id, nil
	}
	id, orgErr := r.api.OrgProject(ctx, owner, number)
	if orgErr != nil {
		if userErr != nil {
			return "", fmt.Errorf("resolve project: user lookup: %v; org lookup: %w", userErr, orgErr)
		}
		return "", fmt.Errorf("resolve project: %w", orgErr)
	}
	if id == "" {
		return "", &ResolutionError{Kind: "project", Key: fmt.Sprintf("%s/%d", owner, number)}
	}
	return id, nil
}

// ResolveStatusField returns the project's Status single-select field, or
// nil when the project has none. A missing field is not an error: the issue
// can still be added to the project without a status value.
func (r *FieldResolver) ResolveStatusField(ctx context.Context, projectId string) (*models.ProjectField, error) {
	fields, err := r.api.ProjectFields(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("list project fields: %w", err)
	}
	for i := range fields {
		if fields[i].Name == statusFieldName {
			return &fields[i], nil
		}
	}
	for i := range fields {
		if strings.EqualFold(fields[i].Name, statusFieldName) {
			return &fields[i], nil
		}
	}
	return nil, nil
}

// EnsureItem finds the project item for an issue by content node identity,
// adding the issue to the project when it is not there yet.
func (r *FieldResolver) EnsureItem(ctx context.Context, projectId, contentNodeId string) (string, error) {
	items, err := r.api.ProjectItems(ctx, projectId)
	if err != nil {
		return "", fmt.Errorf("list project items: %w", err)
	}
	for _, it := range items {
		if it.ContentNodeId != "" && it.ContentNodeId == contentNodeId {
			return it.Id, nil
		}
	}
	itemId, err := r.api.AddProjectItem(ctx, projectId, contentNodeId)
	if err != nil {
		return "", fmt.Errorf("add project item: %w", err)
	}
	return itemId, nil
}
