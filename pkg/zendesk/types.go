package zendesk

import (
	"encoding/json"
	"time"
)

// Ticket is a support request as returned by the Zendesk API.
// Only the fields the exporter reads are mapped.
type Ticket struct {
	ID            int64         `json:"id"`
	Subject       string        `json:"subject,omitempty"`
	Status        string        `json:"status"`
	GroupID       int64         `json:"group_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at,omitempty"`
	Via           *Via          `json:"via,omitempty"`
	Requester     *User         `json:"requester,omitempty"`
	EmailCCs      []EmailCC     `json:"email_ccs,omitempty"`
	Collaborators []User        `json:"collaborators,omitempty"`
	CustomFields  []CustomField `json:"custom_fields,omitempty"`
	Fields        []CustomField `json:"fields,omitempty"`
	Comments      []Comment     `json:"comments,omitempty"`
}

// Via describes how a ticket was created. For email tickets the original
// sender address lives at via.source.from.address.
type Via struct {
	Channel string    `json:"channel,omitempty"`
	Source  ViaSource `json:"source,omitempty"`
}

// ViaSource holds the from/to endpoints of the ticket's channel.
type ViaSource struct {
	From ViaAddress `json:"from,omitempty"`
}

// ViaAddress is an email endpoint on a via source.
type ViaAddress struct {
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
}

// User is a Zendesk user, sideloaded or embedded in tickets.
type User struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// EmailCC is a CC entry on a ticket. The API returns either a bare address
// string or an object with an email field, so unmarshaling accepts both.
type EmailCC struct {
	Email string `json:"email"`
}

// UnmarshalJSON accepts both `"cc@example.com"` and `{"email": "..."}`.
func (c *EmailCC) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Email = s
		return nil
	}
	type alias EmailCC
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = EmailCC(a)
	return nil
}

// CustomField is a ticket field; values are free-form.
type CustomField struct {
	ID    int64 `json:"id,omitempty"`
	Value any   `json:"value"`
}

// Comment is a public or internal ticket comment.
type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Via       *Via      `json:"via,omitempty"`
}

// Group is a Zendesk agent group, used only to scope ticket fetches.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// searchResponse is one page of the search endpoint.
type searchResponse struct {
	Results  []Ticket `json:"results"`
	Count    int      `json:"count"`
	NextPage *string  `json:"next_page"`
}

// groupsResponse is one page of the groups endpoint.
type groupsResponse struct {
	Groups   []Group `json:"groups"`
	NextPage *string `json:"next_page"`
}

// commentsResponse is one page of the ticket comments endpoint.
type commentsResponse struct {
	Comments []Comment `json:"comments"`
	NextPage *string   `json:"next_page"`
}

// userResponse wraps the current-user endpoint.
type userResponse struct {
	User User `json:"user"`
}
