package github

import "fmt"

// APIError is returned for any non-2xx REST response or GraphQL error
// payload. Callers decide what to do with it; the client never retries.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: status %d: %s", e.StatusCode, e.Body)
}

type restLabel struct {
	Name string `json:"name"`
}

type restIssue struct {
	Number int         `json:"number"`
	NodeId string      `json:"node_id"`
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	State  string      `json:"state"`
	Labels []restLabel `json:"labels"`
}

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

type updateIssueRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	State *string `json:"state,omitempty"`
}

type addLabelsRequest struct {
	Labels []string `json:"labels"`
}

type createLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// GraphQL envelope and response shapes. Optional nesting is modeled with
// pointers so the resolution fallbacks can distinguish "absent" from "empty".

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type idNode struct {
	Id string `json:"id"`
}

type ownerProjectData struct {
	User *struct {
		ProjectV2 *idNode `json:"projectV2"`
	} `json:"user"`
	Organization *struct {
		ProjectV2 *idNode `json:"projectV2"`
	} `json:"organization"`
}

type gqlOption struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type gqlField struct {
	Id      string      `json:"id"`
	Name    string      `json:"name"`
	Options []gqlOption `json:"options"`
}

type projectFieldsData struct {
	Node *struct {
		Fields struct {
			Nodes []gqlField `json:"nodes"`
		} `json:"fields"`
	} `json:"node"`
}

type gqlItem struct {
	Id      string  `json:"id"`
	Content *idNode `json:"content"`
}

type projectItemsData struct {
	Node *struct {
		Items struct {
			Nodes []gqlItem `json:"nodes"`
		} `json:"items"`
	} `json:"node"`
}

type addItemData struct {
	AddProjectV2ItemById *struct {
		Item *idNode `json:"item"`
	} `json:"addProjectV2ItemById"`
}

type gqlIssueContent struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	State      string `json:"state"`
	Repository *struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Labels *struct {
		Nodes []restLabel `json:"nodes"`
	} `json:"labels"`
}

type projectItemData struct {
	Node *struct {
		Project *struct {
			Number int `json:"number"`
		} `json:"project"`
		FieldValueByName *struct {
			Name string `json:"name"`
		} `json:"fieldValueByName"`
		Content *gqlIssueContent `json:"content"`
	} `json:"node"`
}
