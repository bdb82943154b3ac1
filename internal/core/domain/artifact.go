package domain

import "time"

// PageArtifact is an exported page enriched with provenance metadata.
// It is created once per identifier during export and is immutable after
// enrichment. It lives only for the duration of one run: after a successful
// upload or terminal failure it is discarded, never persisted.
type PageArtifact struct {
	// ID is the page identifier in the source system.
	ID int64

	// Title is the page title.
	Title string

	// SpaceKey is the key of the containing space.
	SpaceKey string

	// SpaceName is the display name of the containing space.
	SpaceName string

	// Authors lists contributor display names, creator first.
	Authors []string

	// CreatedAt is when the page was created in the source system.
	CreatedAt time.Time

	// UpdatedAt is when the current version was written.
	UpdatedAt time.Time

	// Ancestors lists ancestor page titles from root to direct parent.
	// Empty for a root-level page, never nil after enrichment.
	Ancestors []string

	// Labels are the page's labels. Empty when unlabelled, never nil
	// after enrichment.
	Labels []string

	// Version is the page version number.
	Version int

	// CanonicalURL is the absolute link to the page in the source system.
	CanonicalURL string

	// ContentRef locates the page body for upload (markdown rendition).
	ContentRef string
}

// AttachmentArtifact is an attachment owned by a PageArtifact. It exists
// only long enough to pass through the filter and the dispatcher.
type AttachmentArtifact struct {
	// ParentID is the identifier of the owning page.
	ParentID int64

	// Filename is the attachment file name, extension included.
	Filename string

	// SizeBytes is the attachment size as reported by the source system.
	SizeBytes int64

	// MediaType is the MIME type used when uploading.
	MediaType string

	// SourceURL is the download location in the source system.
	SourceURL string
}
