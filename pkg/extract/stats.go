package extract

import (
	"math"
	"sort"
)

// Stats summarizes an extraction result.
type Stats struct {
	TotalUniqueEmails  int     `json:"total_unique_emails"`
	TotalTickets       int     `json:"total_tickets"`
	RequesterEmails    int     `json:"requester_emails"`
	CCEmails           int     `json:"cc_emails"`
	CommentEmails      int     `json:"comment_emails"`
	AvgTicketsPerEmail float64 `json:"avg_tickets_per_email"`
}

// Summarize computes aggregate statistics over the record mapping.
// TotalTickets counts distinct tickets across all records.
func Summarize(records map[string]*Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	var s Stats
	s.TotalUniqueEmails = len(records)

	seen := make(map[int64]struct{})
	totalAssociations := 0
	for _, r := range records {
		if r.Requester {
			s.RequesterEmails++
		}
		if r.CC {
			s.CCEmails++
		}
		if r.Comment {
			s.CommentEmails++
		}
		totalAssociations += r.Count
		for _, id := range r.TicketIDs {
			seen[id] = struct{}{}
		}
	}
	s.TotalTickets = len(seen)
	s.AvgTicketsPerEmail = math.Round(float64(totalAssociations)/float64(len(records))*100) / 100
	return s
}

// SortedByAddress returns the records ordered by address.
func SortedByAddress(records map[string]*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// TopByTickets returns up to n records ordered by ticket count descending,
// ties broken by address so the order is deterministic.
func TopByTickets(records map[string]*Record, n int) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Address < out[j].Address
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopRequesters returns up to n requester records by ticket count.
func TopRequesters(records map[string]*Record, n int) []*Record {
	requesters := make(map[string]*Record)
	for addr, r := range records {
		if r.Requester {
			requesters[addr] = r
		}
	}
	return TopByTickets(requesters, n)
}
