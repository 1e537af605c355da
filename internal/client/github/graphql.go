package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/taskhub/issue-sync/internal/models"
)

const userProjectQuery = `query($login: String!, $number: Int!) {
  user(login: $login) { projectV2(number: $number) { id } }
}`

const orgProjectQuery = `query($login: String!, $number: Int!) {
  organization(login: $login) { projectV2(number: $number) { id } }
}`

const projectFieldsQuery = `query($id: ID!) {
  node(id: $id) {
    ... on ProjectV2 {
      fields(first: 30) {
        nodes {
          ... on ProjectV2SingleSelectField { id name options { id name } }
        }
      }
    }
  }
}`

const projectItemsQuery = `query($id: ID!) {
  node(id: $id) {
    ... on ProjectV2 {
      items(first: 100) {
        nodes {
          id
          content {
            ... on Issue { id }
            ... on PullRequest { id }
          }
        }
      }
    }
  }
}`

const addItemMutation = `mutation($projectId: ID!, $contentId: ID!) {
  addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
    item { id }
  }
}`

const setFieldMutation = `mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $optionId: String!) {
  updateProjectV2ItemFieldValue(input: {
    projectId: $projectId,
    itemId: $itemId,
    fieldId: $fieldId,
    value: {singleSelectOptionId: $optionId}
  }) {
    projectV2Item { id }
  }
}`

const projectItemQuery = `query($id: ID!) {
  node(id: $id) {
    ... on ProjectV2Item {
      project { number }
      fieldValueByName(name: "Status") {
        ... on ProjectV2ItemFieldSingleSelectValue { name }
      }
      content {
        ... on Issue {
          number
          title
          body
          state
          repository { nameWithOwner }
          labels(first: 20) { nodes { name } }
        }
      }
    }
  }
}`

// UserProject resolves a user-owned project's node id. Returns "" without
// error when the user exists but has no such project.
func (c *Client) UserProject(ctx context.Context, login string, number int) (string, error) {
	var data ownerProjectData
	vars := map[string]any{"login": login, "number": number}
	if err := c.doGraphQL(ctx, userProjectQuery, vars, &data); err != nil {
		return "", err
	}
	if data.User == nil || data.User.ProjectV2 == nil {
		return "", nil
	}
	return data.User.ProjectV2.Id, nil
}

// OrgProject is the organization-scoped twin of UserProject.
func (c *Client) OrgProject(ctx context.Context, login string, number int) (string, error) {
	var data ownerProjectData
	vars := map[string]any{"login": login, "number": number}
	if err := c.doGraphQL(ctx, orgProjectQuery, vars, &data); err != nil {
		return "", err
	}
	if data.Organization == nil || data.Organization.ProjectV2 == nil {
		return "", nil
	}
	return data.Organization.ProjectV2.Id, nil
}

// ProjectFields lists the project's single-select fields with their live
// options. Fetched fresh on every sync; options can change externally.
func (c *Client) ProjectFields(ctx context.Context, projectId string) ([]models.ProjectField, error) {
	var data projectFieldsData
	if err := c.doGraphQL(ctx, projectFieldsQuery, map[string]any{"id": projectId}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil {
		return nil, nil
	}
	fields := make([]models.ProjectField, 0, len(data.Node.Fields.Nodes))
	for _, f := range data.Node.Fields.Nodes {
		// Non-single-select fields come back as empty fragments.
		if f.Id == "" {
			continue
		}
		field := models.ProjectField{Id: f.Id, Name: f.Name}
		for _, o := range f.Options {
			field.Options = append(field.Options, models.ProjectOption{Id: o.Id, Name: o.Name})
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// ProjectItems returns one page of up to 100 project items.
func (c *Client) ProjectItems(ctx context.Context, projectId string) ([]models.ProjectItem, error) {
	var data projectItemsData
	if err := c.doGraphQL(ctx, projectItemsQuery, map[string]any{"id": projectId}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil {
		return nil, nil
	}
	items := make([]models.ProjectItem, 0, len(data.Node.Items.Nodes))
	for _, it := range data.Node.Items.Nodes {
		item := models.ProjectItem{Id: it.Id}
		if it.Content != nil {
			item.ContentNodeId = it.Content.Id
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) AddProjectItem(ctx context.Context, projectId, contentNodeId string) (string, error) {
	var data addItemData
	vars := map[string]any{"projectId": projectId, "contentId": contentNodeId}
	if err := c.doGraphQL(ctx, addItemMutation, vars, &data); err != nil {
		return "", err
	}
	if data.AddProjectV2ItemById == nil || data.AddProjectV2ItemById.Item == nil {
		return "", fmt.Errorf("add project item: empty mutation result")
	}
	return data.AddProjectV2ItemById.Item.Id, nil
}

func (c *Client) SetProjectItemField(ctx context.Context, projectId, itemId, fieldId, optionId string) error {
	vars := map[string]any{
		"projectId": projectId,
		"itemId":    itemId,
		"fieldId":   fieldId,
		"optionId":  optionId,
	}
	return c.doGraphQL(ctx, setFieldMutation, vars, nil)
}

// GetProjectItem resolves a project item node into its issue content, owning
// project number and current Status option.
func (c *Client) GetProjectItem(ctx context.Context, itemNodeId string) (*models.ProjectItemDetail, error) {
	var data projectItemData
	if err := c.doGraphQL(ctx, projectItemQuery, map[string]any{"id": itemNodeId}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil {
		return nil, fmt.Errorf("project item %s not found", itemNodeId)
	}
	detail := &models.ProjectItemDetail{}
	if data.Node.Project != nil {
		detail.ProjectNumber = data.Node.Project.Number
	}
	if data.Node.FieldValueByName != nil {
		detail.StatusOption = data.Node.FieldValueByName.Name
	}
	if content := data.Node.Content; content != nil && content.Number != 0 {
		issue := &models.ExternalIssue{
			Number: content.Number,
			NodeId: itemNodeId,
			Title:  content.Title,
			Body:   content.Body,
			State:  strings.ToLower(content.State),
		}
		if content.Repository != nil {
			detail.Repo = content.Repository.NameWithOwner
		}
		if content.Labels != nil {
			for _, l := range content.Labels.Nodes {
				issue.Labels = append(issue.Labels, l.Name)
			}
		}
		detail.Issue = issue
	}
	return detail, nil
}

func (c *Client) doGraphQL(ctx context.Context, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlUrl, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("parse graphql envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Body: strings.Join(messages, "; ")}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("parse graphql data: %w", err)
		}
	}
	return nil
}
