package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

const (
	// pageExpansions pulls everything the enricher needs in one request.
	pageExpansions = "space,version,ancestors,metadata.labels," +
		"history,history.contributors.publishers.users,body.export_view"

	// attachmentPageSize is the listing page size for child attachments.
	attachmentPageSize = 50
)

// ContentSource implements the driven content port: page fetch with
// metadata and attachment listing, plus attachment download.
type ContentSource struct {
	client *Client
}

var _ driven.ContentSource = (*ContentSource)(nil)

// NewContentSource creates the content source.
func NewContentSource(client *Client) *ContentSource {
	return &ContentSource{client: client}
}

type pageResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"space"`
	Version struct {
		Number int    `json:"number"`
		When   string `json:"when"`
	} `json:"version"`
	History struct {
		CreatedDate string `json:"createdDate"`
		CreatedBy   struct {
			DisplayName string `json:"displayName"`
		} `json:"createdBy"`
		Contributors struct {
			Publishers struct {
				Users []struct {
					DisplayName string `json:"displayName"`
				} `json:"users"`
			} `json:"publishers"`
		} `json:"contributors"`
	} `json:"history"`
	Ancestors []struct {
		Title string `json:"title"`
	} `json:"ancestors"`
	Metadata struct {
		Labels struct {
			Results []struct {
				Name string `json:"name"`
			} `json:"results"`
		} `json:"labels"`
	} `json:"metadata"`
	Body struct {
		ExportView struct {
			Value string `json:"value"`
		} `json:"export_view"`
	} `json:"body"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

type attachmentListResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Extensions struct {
			MediaType string `json:"mediaType"`
			FileSize  int64  `json:"fileSize"`
		} `json:"extensions"`
		Links struct {
			Download string `json:"download"`
		} `json:"_links"`
	} `json:"results"`
	Size int `json:"size"`
}

// GetPage fetches one page with its metadata and attachment listing.
func (s *ContentSource) GetPage(ctx context.Context, id int64) (*domain.RawPage, error) {
	params := url.Values{}
	params.Set("expand", pageExpansions)

	var resp pageResponse
	path := fmt.Sprintf("/rest/api/content/%d", id)
	if err := s.client.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	raw := &domain.RawPage{
		ID:        id,
		Title:     resp.Title,
		SpaceKey:  resp.Space.Key,
		SpaceName: resp.Space.Name,
		CreatedBy: resp.History.CreatedBy.DisplayName,
		CreatedAt: parseTime(resp.History.CreatedDate),
		UpdatedAt: parseTime(resp.Version.When),
		Version:   resp.Version.Number,
		WebURL:    resp.Links.WebUI,
		Body:      resp.Body.ExportView.Value,
	}
	for _, u := range resp.History.Contributors.Publishers.Users {
		raw.ContributedBy = append(raw.ContributedBy, u.DisplayName)
	}
	for _, a := range resp.Ancestors {
		raw.AncestorTitles = append(raw.AncestorTitles, a.Title)
	}
	for _, l := range resp.Metadata.Labels.Results {
		raw.Labels = append(raw.Labels, l.Name)
	}

	attachments, err := s.listAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	raw.Attachments = attachments

	logger.Debug("Fetched page %d (%q): version %d, %d attachments",
		id, raw.Title, raw.Version, len(raw.Attachments))
	return raw, nil
}

// listAttachments pages through the child-attachment listing.
func (s *ContentSource) listAttachments(ctx context.Context, pageID int64) ([]domain.RawAttachment, error) {
	var attachments []domain.RawAttachment
	path := fmt.Sprintf("/rest/api/content/%d/child/attachment", pageID)

	for start := 0; ; start += attachmentPageSize {
		params := url.Values{}
		params.Set("start", strconv.Itoa(start))
		params.Set("limit", strconv.Itoa(attachmentPageSize))

		var resp attachmentListResponse
		if err := s.client.getJSON(ctx, path, params, &resp); err != nil {
			return nil, fmt.Errorf("list attachments of page %d: %w", pageID, err)
		}
		for _, a := range resp.Results {
			attachments = append(attachments, domain.RawAttachment{
				ID:          a.ID,
				Title:       a.Title,
				SizeBytes:   a.Extensions.FileSize,
				MediaType:   a.Extensions.MediaType,
				DownloadURL: a.Links.Download,
			})
		}
		if resp.Size < attachmentPageSize {
			return attachments, nil
		}
	}
}

// DownloadAttachment fetches attachment content by its download link,
// which the API reports relative to the instance root.
func (s *ContentSource) DownloadAttachment(ctx context.Context, downloadURL string) ([]byte, error) {
	return s.client.get(ctx, downloadURL, nil)
}

// parseTime reads the API's RFC3339 timestamps, tolerating the absent
// or oddly formatted values older instances produce.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
