package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskhub/issue-sync/internal/models"
)

type Client struct {
	baseUrl    string
	graphqlUrl string
	token      string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseUrl:    "https://api.github.com",
		graphqlUrl: "https://api.github.com/graphql",
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseUrl points the client at a different API host. Tests use
// it with httptest servers.
func NewClientWithBaseUrl(token, baseUrl, graphqlUrl string) *Client {
	c := NewClient(token)
	c.baseUrl = baseUrl
	c.graphqlUrl = graphqlUrl
	return c
}

func (c *Client) CreateIssue(ctx context.Context, owner, repo string, issue models.ExternalIssue) (*models.ExternalIssue, error) {
	reqBody := createIssueRequest{
		Title:  issue.Title,
		Body:   issue.Body,
		Labels: issue.Labels,
	}
	var created restIssue
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, &created, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	// The create endpoint always opens the issue; a closed initial state
	// needs a follow-up patch.
	if issue.State == "closed" {
		state := "closed"
		patched, err := c.UpdateIssue(ctx, owner, repo, created.Number, models.IssueUpdate{State: &state})
		if err != nil {
			return nil, err
		}
		return patched, nil
	}
	return externalIssue(created), nil
}

func (c *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, upd models.IssueUpdate) (*models.ExternalIssue, error) {
	reqBody := updateIssueRequest{
		Title: upd.Title,
		Body:  upd.Body,
		State: upd.State,
	}
	var updated restIssue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.doJSON(ctx, http.MethodPatch, path, reqBody, &updated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("update issue #%d: %w", number, err)
	}
	return externalIssue(updated), nil
}

func (c *Client) CloseIssue(ctx context.Context, owner, repo string, number int) error {
	state := "closed"
	_, err := c.UpdateIssue(ctx, owner, repo, number, models.IssueUpdate{State: &state})
	return err
}

func (c *Client) ListIssues(ctx context.Context, owner, repo string) ([]models.ExternalIssue, error) {
	var listed []restIssue
	path := fmt.Sprintf("/repos/%s/%s/issues?state=all&per_page=100", owner, repo)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &listed, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	issues := make([]models.ExternalIssue, len(listed))
	for i, it := range listed {
		issues[i] = *externalIssue(it)
	}
	return issues, nil
}

func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", owner, repo, number)
	if err := c.doJSON(ctx, http.MethodPost, path, addLabelsRequest{Labels: labels}, nil, http.StatusOK); err != nil {
		return fmt.Errorf("add labels to #%d: %w", number, err)
	}
	return nil
}

func (c *Client) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels/%s", owner, repo, number, label)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, http.StatusOK); err != nil {
		return fmt.Errorf("remove label %q from #%d: %w", label, number, err)
	}
	return nil
}

func (c *Client) CreateLabel(ctx context.Context, owner, repo, name, color string) error {
	path := fmt.Sprintf("/repos/%s/%s/labels", owner, repo)
	if err := c.doJSON(ctx, http.MethodPost, path, createLabelRequest{Name: name, Color: color}, nil, http.StatusCreated); err != nil {
		return fmt.Errorf("create label %q: %w", name, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any, wantStatus int) error {
	var reader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func externalIssue(ri restIssue) *models.ExternalIssue {
	labels := make([]string, 0, len(ri.Labels))
	for _, l := range ri.Labels {
		labels = append(labels, l.Name)
	}
	return &models.ExternalIssue{
		Number: ri.Number,
		NodeId: ri.NodeId,
		Title:  ri.Title,
		Body:   ri.Body,
		State:  ri.State,
		Labels: labels,
	}
}
