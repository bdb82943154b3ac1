package driven

import "context"

// SearchEntry is one entry of a search page as reported by the source
// service. Kind is the content kind ("page", "blogpost", "attachment", …);
// entries of other kinds are filtered out by the core.
type SearchEntry struct {
	ID   int64
	Kind string
}

// SearchPage is the source service's response to one paginated request.
type SearchPage struct {
	// Entries are the raw results, all kinds included.
	Entries []SearchEntry

	// Size is the server-reported result count for this page. Offsets
	// advance by Size, not by the filtered entry count, to stay aligned
	// with server-side paging.
	Size int

	// TotalMatched is the server-reported total across all pages.
	TotalMatched int
}

// SearchGateway executes one page of a content search against the source
// service. Implementations perform a single request; retry and pagination
// belong to the core.
type SearchGateway interface {
	// Search requests up to limit entries starting at offset.
	// A malformed query yields an error satisfying
	// errors.Is(err, domain.ErrQuerySyntax).
	Search(ctx context.Context, query string, offset, limit int) (*SearchPage, error)
}
