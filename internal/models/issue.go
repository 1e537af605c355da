package models

// ExternalIssue is the transient view of a GitHub issue used during a single
// sync operation. It is never cached.
type ExternalIssue struct {
	Number int
	NodeId string
	Title  string
	Body   string
	State  string // "open" or "closed"
	Labels []string
}

// IssueUpdate carries the fields to patch on an existing issue. Nil fields
// are left untouched.
type IssueUpdate struct {
	Title *string
	Body  *string
	State *string
}

// ProjectItem is one row of a project's item listing.
type ProjectItem struct {
	Id            string
	ContentNodeId string
}

// ProjectItemDetail is the resolved view of a single project item, fetched
// when a project webhook arrives. Issue is nil for drafts and pull requests.
type ProjectItemDetail struct {
	ProjectNumber int
	Repo          string
	Issue         *ExternalIssue
	StatusOption  string
}
