package domain

import "time"

// RawPage is a page as fetched from the source system, before enrichment.
// It is the connector's output; the enricher turns it into a PageArtifact.
type RawPage struct {
	// ID is the page identifier.
	ID int64

	// Title is the page title.
	Title string

	// SpaceKey and SpaceName describe the containing space.
	SpaceKey  string
	SpaceName string

	// CreatedBy and ContributedBy are author display names as reported
	// by the source system.
	CreatedBy     string
	ContributedBy []string

	// CreatedAt and UpdatedAt are source-system timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time

	// AncestorTitles lists ancestor page titles, root first.
	// Nil for a root-level page.
	AncestorTitles []string

	// Labels are the page's labels, nil when unlabelled.
	Labels []string

	// Version is the page version number.
	Version int

	// WebURL is the relative or absolute link to the page.
	WebURL string

	// Body is the page body rendition selected for export.
	Body string

	// Attachments are the page's attachments.
	Attachments []RawAttachment
}

// RawAttachment is an attachment as reported by the source system.
type RawAttachment struct {
	// ID is the attachment identifier.
	ID string

	// Title is the attachment file name.
	Title string

	// SizeBytes is the reported file size.
	SizeBytes int64

	// MediaType is the reported MIME type, possibly empty.
	MediaType string

	// DownloadURL locates the attachment content.
	DownloadURL string
}
