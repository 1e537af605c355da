package models

// Webhook payload shapes, reduced to the fields the sync engine reads.
// GitHub sends much more; everything else is ignored on purpose.

type EventLabel struct {
	Name string `json:"name"`
}

type EventIssue struct {
	Number int          `json:"number"`
	NodeId string       `json:"node_id"`
	Title  string       `json:"title"`
	Body   string       `json:"body"`
	State  string       `json:"state"`
	Labels []EventLabel `json:"labels"`
}

type EventRepo struct {
	FullName string `json:"full_name"`
}

type IssueEvent struct {
	Action     string      `json:"action"`
	Issue      *EventIssue `json:"issue"`
	Repository *EventRepo  `json:"repository"`
}

type EventProjectItem struct {
	NodeId        string `json:"node_id"`
	ContentNodeId string `json:"content_node_id"`
	ContentType   string `json:"content_type"`
	// ProjectNumber is present on deliveries from trackers that include it;
	// zero means unknown and board resolution falls back to the repository.
	ProjectNumber int `json:"project_number"`
}

type ProjectItemEvent struct {
	Action     string            `json:"action"`
	Item       *EventProjectItem `json:"projects_v2_item"`
	Repository *EventRepo        `json:"repository"`
}

func (e EventIssue) LabelNames() []string {
	names := make([]string, 0, len(e.Labels))
	for _, l := range e.Labels {
		names = append(names, l.Name)
	}
	return names
}
