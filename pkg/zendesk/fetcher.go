package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alderacgit/ZenDeskExport/pkg/cache"
)

// FetchOptions describe one ticket fetch: the group scope and the filters
// that form the cache signature.
type FetchOptions struct {
	GroupID         string // group to fetch; empty only inside FetchAllGroups
	Status          string // open|pending|solved|closed; empty means all
	DaysBack        int    // only tickets created in the last N days; 0 means no window
	IncludeComments bool   // fetch and attach ticket comments
}

// Fetcher drives paginated ticket retrieval for a group scope, applying
// status and date filters and consulting the response cache.
type Fetcher struct {
	api       API
	cache     cache.Cache
	ttl       time.Duration
	namespace string // account subdomain, part of every cache signature
	logger    *log.Logger
	now       func() time.Time
}

// NewFetcher creates a fetcher. The namespace (account subdomain) keys the
// cache so two accounts never share entries. Pass cache.NewNullCache() to
// disable caching for the run.
func NewFetcher(api API, c cache.Cache, ttl time.Duration, namespace string, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		api:       api,
		cache:     c,
		ttl:       ttl,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// FetchGroup returns all tickets for one group matching the filters.
// A fresh cache entry for the exact signature short-circuits the API.
func (f *Fetcher) FetchGroup(ctx context.Context, opts FetchOptions) ([]Ticket, error) {
	key := f.cacheKey(opts)

	if data, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warnf("Cache read failed, fetching fresh: %v", err)
	} else if ok {
		var tickets []Ticket
		if err := json.Unmarshal(data, &tickets); err == nil {
			f.logger.Infof("Loaded %d tickets from cache for group %s", len(tickets), opts.GroupID)
			return tickets, nil
		}
		f.logger.Warnf("Discarding unreadable cache entry for group %s", opts.GroupID)
	}

	cutoff, hasCutoff := f.cutoff(opts)
	query := buildQuery(opts, cutoff, hasCutoff)
	f.logger.Debugf("Searching tickets with query: %s", query)

	tickets, err := f.api.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search group %s: %w", opts.GroupID, err)
	}

	// The search query already filters server-side; re-check here so a
	// lenient server response can never leak tickets past the filters,
	// and report anything dropped.
	kept, dropped := filterTickets(tickets, opts, cutoff, hasCutoff)
	if dropped > 0 {
		f.logger.Infof("Dropped %d tickets outside the status/date filters", dropped)
	}
	f.logger.Infof("Found %d tickets in group %s", len(kept), opts.GroupID)

	if opts.IncludeComments {
		if err := f.attachComments(ctx, kept); err != nil {
			return nil, err
		}
	}

	if len(kept) > 0 {
		if data, err := json.Marshal(kept); err == nil {
			if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
				f.logger.Warnf("Cache write failed: %v", err)
			}
		}
	}

	return kept, nil
}

// FetchAllGroups fetches tickets for every group on the account, applying
// the same filters to each group.
func (f *Fetcher) FetchAllGroups(ctx context.Context, opts FetchOptions) ([]Ticket, error) {
	groups, err := f.api.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		f.logger.Warn("No groups found on the account")
		return nil, nil
	}

	var all []Ticket
	for _, g := range groups {
		groupOpts := opts
		groupOpts.GroupID = fmt.Sprintf("%d", g.ID)
		f.logger.Infof("Fetching tickets for group %q (id %d)", g.Name, g.ID)

		tickets, err := f.FetchGroup(ctx, groupOpts)
		if err != nil {
			return nil, err
		}
		all = append(all, tickets...)
	}
	return all, nil
}

// attachComments fetches comments for each ticket and attaches them in place.
func (f *Fetcher) attachComments(ctx context.Context, tickets []Ticket) error {
	for i := range tickets {
		comments, err := f.api.Comments(ctx, tickets[i].ID)
		if err != nil {
			return fmt.Errorf("comments for ticket %d: %w", tickets[i].ID, err)
		}
		tickets[i].Comments = comments
	}
	return nil
}

// cacheKey derives the request-signature cache key for opts.
func (f *Fetcher) cacheKey(opts FetchOptions) string {
	return cache.Key("tickets", f.namespace, opts.GroupID, opts.Status, opts.DaysBack, opts.IncludeComments)
}

// cutoff returns the inclusive lower bound on created_at, truncated to a
// UTC date so a ticket created exactly DaysBack days ago is kept.
func (f *Fetcher) cutoff(opts FetchOptions) (time.Time, bool) {
	if opts.DaysBack <= 0 {
		return time.Time{}, false
	}
	return f.now().UTC().AddDate(0, 0, -opts.DaysBack).Truncate(24 * time.Hour), true
}

// buildQuery assembles the server-side search query for opts.
func buildQuery(opts FetchOptions, cutoff time.Time, hasCutoff bool) string {
	parts := []string{"group_id:" + opts.GroupID}
	if opts.Status != "" {
		parts = append(parts, "status:"+opts.Status)
	}
	if hasCutoff {
		parts = append(parts, "created>="+cutoff.Format("2006-01-02"))
	}
	return strings.Join(parts, " ")
}

// filterTickets applies the status and date-window filters client-side,
// returning the kept tickets and the number dropped.
func filterTickets(tickets []Ticket, opts FetchOptions, cutoff time.Time, hasCutoff bool) ([]Ticket, int) {
	kept := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if hasCutoff && t.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, t)
	}
	return kept, len(tickets) - len(kept)
}
