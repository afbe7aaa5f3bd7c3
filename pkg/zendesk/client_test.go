package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	zderrors "github.com/alderacgit/ZenDeskExport/pkg/errors"
)

// newTestClient points a client at a test server.
func newTestClient(serverURL string) *Client {
	c := NewClient("testaccount", "agent@example.com", "token123")
	c.baseURL = serverURL
	return c
}

func TestClient_SearchPaginates(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"results":[{"id":1,"status":"open"},{"id":2,"status":"open"}],"count":3,"next_page":"http://example.com/page2"}`)
		case "2":
			fmt.Fprint(w, `{"results":[{"id":3,"status":"open"}],"count":3,"next_page":null}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	tickets, err := newTestClient(srv.URL).Search(context.Background(), "group_id:42")
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(tickets) != 3 {
		t.Errorf("got %d tickets, want 3", len(tickets))
	}
	if requests.Load() != 2 {
		t.Errorf("got %d requests, want 2", requests.Load())
	}
	if tickets[2].ID != 3 {
		t.Errorf("tickets not in page order: %+v", tickets)
	}
}

func TestClient_SearchQueryScopedToTickets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "type:ticket group_id:42 status:open" {
			t.Errorf("query = %q", got)
		}
		fmt.Fprint(w, `{"results":[],"count":0,"next_page":null}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Search(context.Background(), "group_id:42 status:open"); err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
}

func TestClient_AuthErrorNotRetried(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "group_id:42")
	if !zderrors.Is(err, zderrors.ErrCodeUnauthorized) {
		t.Fatalf("got %v, want UNAUTHORIZED", err)
	}
	if requests.Load() != 1 {
		t.Errorf("got %d requests, want 1 (auth errors must not be retried)", requests.Load())
	}
}

func TestClient_RateLimitRetried(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":1,"status":"open"}],"count":1,"next_page":null}`)
	}))
	defer srv.Close()

	tickets, err := newTestClient(srv.URL).Search(context.Background(), "group_id:42")
	if err != nil {
		t.Fatalf("Search() failed after rate limit: %v", err)
	}
	if len(tickets) != 1 {
		t.Errorf("got %d tickets, want 1", len(tickets))
	}
	if requests.Load() != 2 {
		t.Errorf("got %d requests, want 2", requests.Load())
	}
}

func TestClient_ServerErrorExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "group_id:42")
	if !zderrors.Is(err, zderrors.ErrCodeNetwork) {
		t.Fatalf("got %v, want NETWORK_ERROR", err)
	}
	if requests.Load() != 3 {
		t.Errorf("got %d requests, want 3 (retry bound)", requests.Load())
	}
}

func TestClient_Me(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "agent@example.com/token" || pass != "token123" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		fmt.Fprint(w, `{"user":{"id":7,"name":"Agent","email":"agent@example.com"}}`)
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL).Me(context.Background())
	if err != nil {
		t.Fatalf("Me() failed: %v", err)
	}
	if user.Name != "Agent" {
		t.Errorf("user = %+v", user)
	}
}

func TestClient_MeAnonymousMeansBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"user":{"id":0}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Me(context.Background())
	if !zderrors.Is(err, zderrors.ErrCodeUnauthorized) {
		t.Fatalf("got %v, want UNAUTHORIZED", err)
	}
}

func TestClient_Comments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tickets/99/comments.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"comments":[{"id":1,"body":"see ops@example.com"}],"next_page":null}`)
	}))
	defer srv.Close()

	comments, err := newTestClient(srv.URL).Comments(context.Background(), 99)
	if err != nil {
		t.Fatalf("Comments() failed: %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "see ops@example.com" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestEmailCC_UnmarshalBothForms(t *testing.T) {
	var ticket Ticket
	payload := `{"id":1,"status":"open","email_ccs":["plain@example.com",{"email":"object@example.com"}]}`
	if err := json.Unmarshal([]byte(payload), &ticket); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(ticket.EmailCCs) != 2 {
		t.Fatalf("got %d ccs, want 2", len(ticket.EmailCCs))
	}
	if ticket.EmailCCs[0].Email != "plain@example.com" || ticket.EmailCCs[1].Email != "object@example.com" {
		t.Errorf("ccs = %+v", ticket.EmailCCs)
	}
}
