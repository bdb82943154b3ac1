package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// searchExpansions is kept minimal: wider expansions silently lower the
// server's effective page size.
const searchExpansions = "space"

// SearchGateway implements the driven search port against the CQL
// search endpoint.
type SearchGateway struct {
	client *Client
}

// NewSearchGateway creates the gateway.
func NewSearchGateway(client *Client) *SearchGateway {
	return &SearchGateway{client: client}
}

type searchResponse struct {
	Results []struct {
		Content struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"content"`
	} `json:"results"`
	Size      int `json:"size"`
	TotalSize int `json:"totalSize"`
}

// Search fetches one result page for the CQL query. An HTTP 400 means
// the query itself is malformed and surfaces as ErrQuerySyntax.
func (g *SearchGateway) Search(ctx context.Context, query string, offset, limit int) (*driven.SearchPage, error) {
	params := url.Values{}
	params.Set("cql", query)
	params.Set("start", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("expand", searchExpansions)

	var resp searchResponse
	if err := g.client.getJSON(ctx, "/rest/api/search", params, &resp); err != nil {
		if IsBadRequest(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrQuerySyntax, err)
		}
		return nil, err
	}

	page := &driven.SearchPage{
		Entries:      make([]driven.SearchEntry, 0, len(resp.Results)),
		Size:         resp.Size,
		TotalMatched: resp.TotalSize,
	}
	for _, r := range resp.Results {
		id, err := strconv.ParseInt(r.Content.ID, 10, 64)
		if err != nil {
			logger.Debug("Skipping result with non-numeric id %q", r.Content.ID)
			continue
		}
		page.Entries = append(page.Entries, driven.SearchEntry{ID: id, Kind: r.Content.Type})
	}
	return page, nil
}
