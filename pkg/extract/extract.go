// Package extract scans fetched tickets for email addresses and aggregates
// them into per-address records.
//
// Addresses come from four places on a ticket: the requester (via source or
// sideloaded user), the CC list, custom field values, and comment bodies.
// Free-text sources are scanned with a conventional email pattern; every
// candidate is then syntax-checked, lowercased, and folded into a Record.
// Extraction is a pure fold over the ticket slice: running it twice over the
// same input yields identical output.
package extract

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alderacgit/ZenDeskExport/pkg/zendesk"
)

// emailPattern finds email-shaped substrings in free text. Matches are still
// validated with net/mail before being counted.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Source names where an address was seen on a ticket.
type Source string

// Sources in precedence order (most specific first).
const (
	SourceRequester   Source = "requester"
	SourceCC          Source = "cc"
	SourceComment     Source = "comment"
	SourceCustomField Source = "custom_field"
)

// Record is the aggregated view of one email address across all tickets.
type Record struct {
	Address     string    `json:"email"`
	TicketIDs   []int64   `json:"ticket_ids"`
	Count       int       `json:"ticket_count"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Requester   bool      `json:"is_requester"`
	CC          bool      `json:"is_cc"`
	Comment     bool      `json:"is_from_comment"`
	CustomField bool      `json:"is_custom_field"`
}

// PrimaryType returns the most specific source the address was seen in,
// using the precedence requester > cc > comment > custom_field.
func (r *Record) PrimaryType() string {
	switch {
	case r.Requester:
		return string(SourceRequester)
	case r.CC:
		return string(SourceCC)
	case r.Comment:
		return string(SourceComment)
	case r.CustomField:
		return string(SourceCustomField)
	default:
		return "unknown"
	}
}

// Types returns every source the address was seen in, in precedence order.
func (r *Record) Types() []string {
	var types []string
	if r.Requester {
		types = append(types, string(SourceRequester))
	}
	if r.CC {
		types = append(types, string(SourceCC))
	}
	if r.Comment {
		types = append(types, string(SourceComment))
	}
	if r.CustomField {
		types = append(types, string(SourceCustomField))
	}
	return types
}

// Options control which ticket fields are scanned.
type Options struct {
	IncludeCCs      bool
	IncludeComments bool

	// Logger receives debug notes about skipped malformed addresses.
	// May be nil.
	Logger func(msg string, args ...any)
}

// FromTickets folds the ticket slice into a mapping from normalized address
// to Record. Addresses are lowercased; the ticket-id sets are deduplicated
// and sorted, and Count always equals the number of distinct tickets.
func FromTickets(tickets []zendesk.Ticket, opts Options) map[string]*Record {
	records := make(map[string]*Record)

	for i := range tickets {
		t := &tickets[i]

		if addr := requesterAddress(t); addr != "" {
			add(records, addr, t, SourceRequester, opts)
		}

		if opts.IncludeCCs {
			for _, addr := range ccAddresses(t) {
				add(records, addr, t, SourceCC, opts)
			}
		}

		for _, addr := range customFieldAddresses(t) {
			add(records, addr, t, SourceCustomField, opts)
		}

		if opts.IncludeComments {
			for _, addr := range commentAddresses(t) {
				add(records, addr, t, SourceComment, opts)
			}
		}
	}

	for _, r := range records {
		sort.Slice(r.TicketIDs, func(i, j int) bool { return r.TicketIDs[i] < r.TicketIDs[j] })
	}
	return records
}

// add validates and normalizes addr, then folds it into records.
func add(records map[string]*Record, addr string, t *zendesk.Ticket, source Source, opts Options) {
	normalized, ok := Normalize(addr)
	if !ok {
		if opts.Logger != nil {
			opts.Logger("Skipping malformed address %q on ticket %d", addr, t.ID)
		}
		return
	}

	r, exists := records[normalized]
	if !exists {
		r = &Record{Address: normalized}
		records[normalized] = r
	}

	if !containsID(r.TicketIDs, t.ID) {
		r.TicketIDs = append(r.TicketIDs, t.ID)
		r.Count = len(r.TicketIDs)
	}

	if !t.CreatedAt.IsZero() {
		if r.FirstSeen.IsZero() || t.CreatedAt.Before(r.FirstSeen) {
			r.FirstSeen = t.CreatedAt
		}
		if r.LastSeen.IsZero() || t.CreatedAt.After(r.LastSeen) {
			r.LastSeen = t.CreatedAt
		}
	}

	switch source {
	case SourceRequester:
		r.Requester = true
	case SourceCC:
		r.CC = true
	case SourceComment:
		r.Comment = true
	case SourceCustomField:
		r.CustomField = true
	}
}

// Normalize validates an address and returns its lowercased form.
func Normalize(addr string) (string, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", false
	}
	// Require a dotted domain; mail.ParseAddress accepts local domains
	// like "user@host" that never occur in real ticket traffic.
	if !emailPattern.MatchString(parsed.Address) {
		return "", false
	}
	return strings.ToLower(parsed.Address), true
}

// requesterAddress pulls the requester email from the via source, falling
// back to a sideloaded requester user.
func requesterAddress(t *zendesk.Ticket) string {
	if t.Via != nil && t.Via.Source.From.Address != "" {
		return t.Via.Source.From.Address
	}
	if t.Requester != nil {
		return t.Requester.Email
	}
	return ""
}

// ccAddresses collects addresses from the email_ccs list and collaborators.
func ccAddresses(t *zendesk.Ticket) []string {
	var addrs []string
	for _, cc := range t.EmailCCs {
		if cc.Email != "" {
			addrs = append(addrs, cc.Email)
		}
	}
	for _, collab := range t.Collaborators {
		if collab.Email != "" {
			addrs = append(addrs, collab.Email)
		}
	}
	return addrs
}

// customFieldAddresses scans string-valued custom and ticket fields.
func customFieldAddresses(t *zendesk.Ticket) []string {
	var addrs []string
	scan := func(fields []zendesk.CustomField) {
		for _, f := range fields {
			if s, ok := f.Value.(string); ok && s != "" {
				addrs = append(addrs, emailPattern.FindAllString(s, -1)...)
			}
		}
	}
	scan(t.CustomFields)
	scan(t.Fields)
	return addrs
}

// commentAddresses scans comment bodies for email-shaped text.
func commentAddresses(t *zendesk.Ticket) []string {
	var addrs []string
	for _, c := range t.Comments {
		if c.Body != "" {
			addrs = append(addrs, emailPattern.FindAllString(c.Body, -1)...)
		}
	}
	return addrs
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// SampleTicketIDs renders up to max ticket ids as a comma-separated string.
func (r *Record) SampleTicketIDs(max int) string {
	ids := r.TicketIDs
	if len(ids) > max {
		ids = ids[:max]
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
