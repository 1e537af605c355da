package models

// Transient views of GitHub-side objects. These are fetched fresh per sync
// call and never persisted; project fields and options can be renamed on the
// GitHub side at any time.

type ProjectOption struct {
	Id   string
	Name string
}

type ProjectField struct {
	Id      string
	Name    string
	Options []ProjectOption
}
