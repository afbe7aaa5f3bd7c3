// Package zendesk implements a minimal client for the Zendesk ticketing API
// and the paginated ticket fetcher built on top of it.
//
// The client covers exactly the endpoints the exporter needs: ticket search,
// groups, ticket comments, and the current user (as a credentials check).
// Authentication uses the api-token scheme: HTTP basic auth with the user
// "<email>/token" and the API token as password.
package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	zderrors "github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/httputil"
)

const (
	httpTimeout = 30 * time.Second

	// defaultPageSize is the maximum page size Zendesk allows.
	defaultPageSize = 100

	// retryAttempts bounds the retry loop for rate-limit and transient errors.
	retryAttempts = 3
)

// API is the narrow surface the fetcher depends on. Tests substitute a fake
// implementation so no network access is needed.
type API interface {
	Search(ctx context.Context, query string) ([]Ticket, error)
	Groups(ctx context.Context) ([]Group, error)
	Comments(ctx context.Context, ticketID int64) ([]Comment, error)
}

// Client is an authenticated Zendesk API client with retry/backoff.
type Client struct {
	http     *http.Client
	baseURL  string
	email    string
	token    string
	pageSize int
}

// NewClient creates a client for the given account subdomain and credentials.
func NewClient(subdomain, email, token string) *Client {
	return &Client{
		http:     &http.Client{Timeout: httpTimeout},
		baseURL:  fmt.Sprintf("https://%s.zendesk.com/api/v2", subdomain),
		email:    email,
		token:    token,
		pageSize: defaultPageSize,
	}
}

// Me fetches the authenticated user. Used as a connection and credentials
// test before a run.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp userResponse
	if err := c.get(ctx, "/users/me.json", nil, &resp); err != nil {
		return nil, err
	}
	// Zendesk answers /users/me with an anonymous user instead of a 401
	// when the token is wrong.
	if resp.User.ID == 0 {
		return nil, zderrors.New(zderrors.ErrCodeUnauthorized, "credentials rejected (check ZENDESK_EMAIL and ZENDESK_API_TOKEN)")
	}
	return &resp.User, nil
}

// Search runs a ticket search and returns all result pages. The query is
// scoped to tickets and sorted by creation time, newest first.
func (c *Client) Search(ctx context.Context, query string) ([]Ticket, error) {
	params := url.Values{
		"query":      {"type:ticket " + query},
		"sort_by":    {"created_at"},
		"sort_order": {"desc"},
	}

	var tickets []Ticket
	err := c.paginate(ctx, "/search.json", func(page int) (more bool, err error) {
		var resp searchResponse
		if err := c.get(ctx, "/search.json", withPage(params, page, c.pageSize), &resp); err != nil {
			return false, err
		}
		tickets = append(tickets, resp.Results...)
		return len(resp.Results) > 0 && resp.NextPage != nil, nil
	})
	return tickets, err
}

// Groups returns all groups on the account.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var groups []Group
	err := c.paginate(ctx, "/groups.json", func(page int) (bool, error) {
		var resp groupsResponse
		if err := c.get(ctx, "/groups.json", withPage(nil, page, c.pageSize), &resp); err != nil {
			return false, err
		}
		groups = append(groups, resp.Groups...)
		return len(resp.Groups) > 0 && resp.NextPage != nil, nil
	})
	return groups, err
}

// Comments returns all comments on a ticket, oldest first.
func (c *Client) Comments(ctx context.Context, ticketID int64) ([]Comment, error) {
	path := fmt.Sprintf("/tickets/%d/comments.json", ticketID)

	var comments []Comment
	err := c.paginate(ctx, path, func(page int) (bool, error) {
		var resp commentsResponse
		if err := c.get(ctx, path, withPage(nil, page, c.pageSize), &resp); err != nil {
			return false, err
		}
		comments = append(comments, resp.Comments...)
		return len(resp.Comments) > 0 && resp.NextPage != nil, nil
	})
	return comments, err
}

// paginate drives the page loop: fetch is called with increasing page
// numbers until it reports no further pages.
func (c *Client) paginate(ctx context.Context, path string, fetch func(page int) (bool, error)) error {
	for page := 1; ; page++ {
		more, err := fetch(page)
		if err != nil {
			return fmt.Errorf("page %d of %s: %w", page, path, err)
		}
		if !more {
			return nil
		}
	}
}

// get performs a GET with retry/backoff and decodes the JSON response into v.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	return httputil.Retry(ctx, retryAttempts, time.Second, func() error {
		return c.doGet(ctx, path, params, v)
	})
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zderrors.Wrap(zderrors.ErrCodeInternal, err, "build request for %s", path)
	}
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &httputil.RetryableError{Err: zderrors.Wrap(zderrors.ErrCodeNetwork, err, "request %s", path)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return zderrors.Wrap(zderrors.ErrCodeInternal, err, "decode response from %s", path)
	}
	return nil
}

// checkStatus maps HTTP status codes onto the error taxonomy. Credential
// failures are terminal; rate limits and server errors are retryable.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return zderrors.New(zderrors.ErrCodeUnauthorized, "credentials rejected (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return zderrors.New(zderrors.ErrCodeNotFound, "resource not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		after := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{Err: zderrors.Wrap(
			zderrors.ErrCodeRateLimited,
			&zderrors.RateLimitedError{RetryAfter: after},
			"rate limit exceeded",
		)}
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: zderrors.New(zderrors.ErrCodeNetwork, "server error (status %d)", resp.StatusCode)}
	default:
		return zderrors.New(zderrors.ErrCodeNetwork, "unexpected status %d", resp.StatusCode)
	}
}

func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	n, err := strconv.Atoi(header)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// withPage copies params and adds pagination query values.
func withPage(params url.Values, page, perPage int) url.Values {
	out := url.Values{}
	for k, vs := range params {
		out[k] = vs
	}
	out.Set("page", strconv.Itoa(page))
	out.Set("per_page", strconv.Itoa(perPage))
	return out
}

// Ensure Client implements API.
var _ API = (*Client)(nil)
