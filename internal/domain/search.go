package domain

import "time"

// SearchRequest is one tenant-scoped directory lookup. TenantID always comes
// from a trusted context (webhook destination or verified token).
type SearchRequest struct {
	TenantID     string
	Term         string
	CategoryCode string
	Offset       int
	Limit        int
	Statuses     []string
	Timeout      time.Duration
}

// IsCategoryBrowse reports whether the request lists one category exactly.
func (r *SearchRequest) IsCategoryBrowse() bool {
	return r.CategoryCode != ""
}

// SearchResult is one page of matching entries.
type SearchResult struct {
	Entries            []*Entry `json:"entries"`
	TotalFound         int      `json:"total_found"`
	TotalEstimated     bool     `json:"total_estimated"`
	HasMore            bool     `json:"has_more"`
	TimedOutSubQueries int      `json:"timed_out_sub_queries"`
}

// Partial reports whether some sub-queries were abandoned.
func (r *SearchResult) Partial() bool {
	return r.TimedOutSubQueries > 0
}

// DirectoryQuery is the query string accepted by the HTTP search endpoints.
type DirectoryQuery struct {
	Query string `form:"q"`
	Page  int    `form:"page"`
}

// SearchResponse is the HTTP envelope payload for search and category browse.
type SearchResponse struct {
	Entries            []*Entry `json:"entries"`
	Count              int      `json:"count"`
	Page               int      `json:"page"`
	TotalFound         int      `json:"total_found"`
	HasMore            bool     `json:"has_more"`
	TimedOutSubQueries int      `json:"timed_out_sub_queries"`
}

// NewSearchResponse builds the HTTP payload for one result page.
func NewSearchResponse(page int, r *SearchResult) *SearchResponse {
	entries := r.Entries
	if entries == nil {
		entries = []*Entry{}
	}
	return &SearchResponse{
		Entries:            entries,
		Count:              len(entries),
		Page:               page,
		TotalFound:         r.TotalFound,
		HasMore:            r.HasMore,
		TimedOutSubQueries: r.TimedOutSubQueries,
	}
}
