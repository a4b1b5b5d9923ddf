package listings

import "strings"

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type SearchParams struct {
	Query         string
	Category      string
	Owner         OwnerID
	OnlyAvailable bool
	Limit         int
	Offset        int
}

type SearchResult struct {
	Items []*Listing
	Total int
}

// Normalized trims filters and clamps paging.
func (p SearchParams) Normalized() SearchParams {
	out := p
	out.Query = strings.ToLower(strings.TrimSpace(p.Query))
	out.Category = strings.TrimSpace(p.Category)
	if out.Limit <= 0 {
		out.Limit = defaultSearchLimit
	}
	if out.Limit > maxSearchLimit {
		out.Limit = maxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// Matches applies the text and attribute filters to a single listing.
func (p SearchParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.Owner != "" && l.Owner != p.Owner {
		return false
	}
	if p.OnlyAvailable && !l.IsAvailable() {
		return false
	}
	if p.Category != "" && !strings.EqualFold(l.Category, p.Category) {
		return false
	}
	if p.Query == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{l.Name, l.Description, l.Category}, " "))
	return strings.Contains(haystack, p.Query)
}
