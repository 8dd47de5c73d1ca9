package domain

import "strings"

type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortTitle     SortKey = "title"
)

type SortDirection int

const (
	SortDescending SortDirection = iota
	SortAscending
)

// ListOptions carries the filtering and ordering parameters for list queries.
// A zero value lists everything ordered by created_at descending.
type ListOptions struct {
	Search        string
	Author        string
	SortKey       SortKey
	SortDirection SortDirection
}

// OrderKey returns the sort key, defaulting to created_at.
func (o ListOptions) OrderKey() SortKey {
	if o.SortKey == "" {
		return SortCreatedAt
	}
	return o.SortKey
}

// ParseOrdering parses an ordering parameter such as "title" or
// "-created_at". Only the first comma-separated field is honoured.
// It reports false when raw is empty or names a key
// outside allowed, in which case callers keep the default order.
func ParseOrdering(raw string, allowed ...SortKey) (SortKey, SortDirection, bool) {
	raw, _, _ = strings.Cut(raw, ",")
	raw = strings.TrimSpace(raw)
	dir := SortAscending
	if strings.HasPrefix(raw, "-") {
		dir = SortDescending
		raw = raw[1:]
	}
	for _, k := range allowed {
		if raw == string(k) {
			return k, dir, true
		}
	}
	return "", SortDescending, false
}
