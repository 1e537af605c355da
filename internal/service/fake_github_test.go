package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/taskhub/issue-sync/internal/client"
	"github.com/taskhub/issue-sync/internal/client/github"
	"github.com/taskhub/issue-sync/internal/models"
)

// fakeGitHub is an in-memory stand-in for the REST and GraphQL APIs, just
// enough surface for the syncers.
type fakeGitHub struct {
	t  *testing.T
	mu sync.Mutex

	issues     map[int]*fakeIssue
	repoLabels map[string]bool
	nextIssue  int

	project *fakeProject

	requests int

	server *httptest.Server
}

type fakeIssue struct {
	number int
	title  string
	body   string
	state  string
	labels map[string]bool
}

type fakeProject struct {
	id         string
	number     int
	ownerKind  string // "user" or "org"
	fieldId    string
	fieldName  string
	options    []models.ProjectOption
	items      map[string]string // contentNodeId -> itemId
	itemValues map[string]string // itemId -> optionId
	nextItem   int
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	f := &fakeGitHub{
		t:          t,
		issues:     make(map[int]*fakeIssue),
		repoLabels: make(map[string]bool),
		nextIssue:  1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues", f.handleCreateIssue)
	mux.HandleFunc("GET /repos/{owner}/{repo}/issues", f.handleListIssues)
	mux.HandleFunc("PATCH /repos/{owner}/{repo}/issues/{number}", f.handleUpdateIssue)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues/{number}/labels", f.handleAddLabels)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/issues/{number}/labels/{label}", f.handleRemoveLabel)
	mux.HandleFunc("POST /repos/{owner}/{repo}/labels", f.handleCreateLabel)
	mux.HandleFunc("POST /graphql", f.handleGraphQL)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGitHub) factory() client.Factory {
	return func(token string) client.API {
		return github.NewClientWithBaseUrl(token, f.server.URL, f.server.URL+"/graphql")
	}
}

func (f *fakeGitHub) addIssue(title, body, state string, labels ...string) *fakeIssue {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := &fakeIssue{
		number: f.nextIssue,
		title:  title,
		body:   body,
		state:  state,
		labels: make(map[string]bool),
	}
	for _, l := range labels {
		issue.labels[l] = true
	}
	f.issues[issue.number] = issue
	f.nextIssue++
	return issue
}

func (f *fakeGitHub) setProject(ownerKind string, number int, fieldName string, options ...models.ProjectOption) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.project = &fakeProject{
		id:         "PVT_1",
		number:     number,
		ownerKind:  ownerKind,
		fieldId:    "PVTF_1",
		fieldName:  fieldName,
		options:    options,
		items:      make(map[string]string),
		itemValues: make(map[string]string),
		nextItem:   1,
	}
}

func (f *fakeGitHub) addItemForIssue(number int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	itemId := fmt.Sprintf("PVTI_%d", f.project.nextItem)
	f.project.nextItem++
	f.project.items[issueNodeId(number)] = itemId
	return itemId
}

func (f *fakeGitHub) issueLabels(number int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := f.issues[number]
	if issue == nil {
		return nil
	}
	var labels []string
	for l := range issue.labels {
		labels = append(labels, l)
	}
	return labels
}

func (f *fakeGitHub) fieldValueForIssue(number int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.project == nil {
		return ""
	}
	itemId, ok := f.project.items[issueNodeId(number)]
	if !ok {
		return ""
	}
	return f.project.itemValues[itemId]
}

func issueNodeId(number int) string { return fmt.Sprintf("I_%d", number) }

func (f *fakeGitHub) writeIssue(w http.ResponseWriter, status int, issue *fakeIssue) {
	labels := make([]map[string]string, 0, len(issue.labels))
	for l := range issue.labels {
		labels = append(labels, map[string]string{"name": l})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"number":  issue.number,
		"node_id": issueNodeId(issue.number),
		"title":   issue.title,
		"body":    issue.body,
		"state":   issue.state,
		"labels":  labels,
	})
}

func (f *fakeGitHub) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	issue := f.addIssue(req.Title, req.Body, "open", req.Labels...)
	f.mu.Lock()
	for _, l := range req.Labels {
		f.repoLabels[l] = true
	}
	f.mu.Unlock()
	f.writeIssue(w, http.StatusCreated, issue)
}

func (f *fakeGitHub) handleListIssues(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	list := make([]map[string]any, 0, len(f.issues))
	for _, issue := range f.issues {
		labels := make([]map[string]string, 0, len(issue.labels))
		for l := range issue.labels {
			labels = append(labels, map[string]string{"name": l})
		}
		list = append(list, map[string]any{
			"number": issue.number, "node_id": issueNodeId(issue.number),
			"title": issue.title, "body": issue.body, "state": issue.state, "labels": labels,
		})
	}
	json.NewEncoder(w).Encode(list)
}

func (f *fakeGitHub) issueFromPath(w http.ResponseWriter, r *http.Request) *fakeIssue {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return nil
	}
	f.mu.Lock()
	issue := f.issues[number]
	f.mu.Unlock()
	if issue == nil {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return nil
	}
	return issue
}

func (f *fakeGitHub) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	issue := f.issueFromPath(w, r)
	if issue == nil {
		return
	}
	var req struct {
		Title *string `json:"title"`
		Body  *string `json:"body"`
		State *string `json:"state"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	if req.Title != nil {
		issue.title = *req.Title
	}
	if req.Body != nil {
		issue.body = *req.Body
	}
	if req.State != nil {
		issue.state = *req.State
	}
	f.mu.Unlock()
	f.writeIssue(w, http.StatusOK, issue)
}

func (f *fakeGitHub) handleAddLabels(w http.ResponseWriter, r *http.Request) {
	issue := f.issueFromPath(w, r)
	if issue == nil {
		return
	}
	var req struct {
		Labels []string `json:"labels"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	for _, l := range req.Labels {
		issue.labels[l] = true
		f.repoLabels[l] = true
	}
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode([]map[string]string{})
}

func (f *fakeGitHub) handleRemoveLabel(w http.ResponseWriter, r *http.Request) {
	issue := f.issueFromPath(w, r)
	if issue == nil {
		return
	}
	label := r.PathValue("label")

	f.mu.Lock()
	present := issue.labels[label]
	delete(issue.labels, label)
	f.mu.Unlock()

	if !present {
		http.Error(w, `{"message":"Label does not exist"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode([]map[string]string{})
}

func (f *fakeGitHub) handleCreateLabel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	exists := f.repoLabels[req.Name]
	f.repoLabels[req.Name] = true
	f.mu.Unlock()

	if exists {
		http.Error(w, `{"message":"Validation Failed"}`, http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"name": req.Name})
}

func writeGraphQL(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakeGitHub) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q := req.Query
	switch {
	case strings.Contains(q, "user(login:"):
		if f.project != nil && f.project.ownerKind == "user" && int(req.Variables["number"].(float64)) == f.project.number {
			writeGraphQL(w, map[string]any{"user": map[string]any{"projectV2": map[string]any{"id": f.project.id}}})
			return
		}
		writeGraphQL(w, map[string]any{"user": nil})

	case strings.Contains(q, "organization(login:"):
		if f.project != nil && f.project.ownerKind == "org" && int(req.Variables["number"].(float64)) == f.project.number {
			writeGraphQL(w, map[string]any{"organization": map[string]any{"projectV2": map[string]any{"id": f.project.id}}})
			return
		}
		writeGraphQL(w, map[string]any{"organization": nil})

	case strings.Contains(q, "fields(first:"):
		if f.project == nil {
			writeGraphQL(w, map[string]any{"node": nil})
			return
		}
		options := make([]map[string]string, 0, len(f.project.options))
		for _, o := range f.project.options {
			options = append(options, map[string]string{"id": o.Id, "name": o.Name})
		}
		fields := []map[string]any{}
		if f.project.fieldName != "" {
			fields = append(fields, map[string]any{
				"id": f.project.fieldId, "name": f.project.fieldName, "options": options,
			})
		}
		writeGraphQL(w, map[string]any{"node": map[string]any{"fields": map[string]any{"nodes": fields}}})

	case strings.Contains(q, "items(first:"):
		if f.project == nil {
			writeGraphQL(w, map[string]any{"node": nil})
			return
		}
		nodes := make([]map[string]any, 0, len(f.project.items))
		for contentId, itemId := range f.project.items {
			nodes = append(nodes, map[string]any{"id": itemId, "content": map[string]string{"id": contentId}})
		}
		writeGraphQL(w, map[string]any{"node": map[string]any{"items": map[string]any{"nodes": nodes}}})

	case strings.Contains(q, "addProjectV2ItemById"):
		contentId := req.Variables["contentId"].(string)
		itemId := fmt.Sprintf("PVTI_%d", f.project.nextItem)
		f.project.nextItem++
		f.project.items[contentId] = itemId
		writeGraphQL(w, map[string]any{"addProjectV2ItemById": map[string]any{"item": map[string]string{"id": itemId}}})

	case strings.Contains(q, "updateProjectV2ItemFieldValue"):
		itemId := req.Variables["itemId"].(string)
		optionId := req.Variables["optionId"].(string)
		f.project.itemValues[itemId] = optionId
		writeGraphQL(w, map[string]any{"updateProjectV2ItemFieldValue": map[string]any{"projectV2Item": map[string]string{"id": itemId}}})

	case strings.Contains(q, "fieldValueByName"):
		itemNodeId := req.Variables["id"].(string)
		var contentId string
		for cid, iid := range f.project.items {
			if iid == itemNodeId {
				contentId = cid
				break
			}
		}
		if contentId == "" {
			writeGraphQL(w, map[string]any{"node": nil})
			return
		}
		number, _ := strconv.Atoi(strings.TrimPrefix(contentId, "I_"))
		issue := f.issues[number]
		if issue == nil {
			writeGraphQL(w, map[string]any{"node": nil})
			return
		}
		labels := make([]map[string]string, 0, len(issue.labels))
		for l := range issue.labels {
			labels = append(labels, map[string]string{"name": l})
		}
		var fieldValue any
		if optionId, ok := f.project.itemValues[itemNodeId]; ok {
			for _, o := range f.project.options {
				if o.Id == optionId {
					fieldValue = map[string]string{"name": o.Name}
				}
			}
		}
		writeGraphQL(w, map[string]any{"node": map[string]any{
			"project":          map[string]int{"number": f.project.number},
			"fieldValueByName": fieldValue,
			"content": map[string]any{
				"number":     issue.number,
				"title":      issue.title,
				"body":       issue.body,
				"state":      strings.ToUpper(issue.state),
				"repository": map[string]string{"nameWithOwner": "acme/backend"},
				"labels":     map[string]any{"nodes": labels},
			},
		}})

	default:
		f.t.Errorf("fake github: unhandled graphql query: %s", q)
		http.Error(w, "unhandled query", http.StatusBadRequest)
	}
}
