package services

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// MetadataEnricher turns raw source pages into immutable artifacts and
// renders the provenance front matter attached to uploaded content. The
// configured field list controls which fields are emitted; the artifact
// itself always carries everything.
type MetadataEnricher struct {
	baseURL string
	fields  map[string]bool
}

// NewMetadataEnricher creates an enricher. baseURL resolves relative
// page links to canonical URLs; fields selects the front-matter fields.
func NewMetadataEnricher(baseURL string, fields []string) *MetadataEnricher {
	selected := make(map[string]bool, len(fields))
	for _, f := range fields {
		selected[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return &MetadataEnricher{baseURL: strings.TrimRight(baseURL, "/"), fields: selected}
}

// Enrich builds the page artifact and its attachment artifacts from the
// raw source representation. Missing optionals become empty slices, so
// downstream code never checks for nil.
func (e *MetadataEnricher) Enrich(raw *domain.RawPage) (*domain.PageArtifact, []domain.AttachmentArtifact) {
	authors := make([]string, 0, 1+len(raw.ContributedBy))
	if raw.CreatedBy != "" {
		authors = append(authors, raw.CreatedBy)
	}
	for _, c := range raw.ContributedBy {
		if c != "" && c != raw.CreatedBy {
			authors = append(authors, c)
		}
	}

	page := &domain.PageArtifact{
		ID:           raw.ID,
		Title:        raw.Title,
		SpaceKey:     raw.SpaceKey,
		SpaceName:    raw.SpaceName,
		Authors:      authors,
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
		Ancestors:    append([]string{}, raw.AncestorTitles...),
		Labels:       append([]string{}, raw.Labels...),
		Version:      raw.Version,
		CanonicalURL: e.canonicalURL(raw.WebURL),
		ContentRef:   fmt.Sprintf("%s/rest/api/content/%d", e.baseURL, raw.ID),
	}

	attachments := make([]domain.AttachmentArtifact, 0, len(raw.Attachments))
	for _, a := range raw.Attachments {
		mediaType := a.MediaType
		if mediaType == "" {
			mediaType = MediaTypeFor(a.Title)
		}
		attachments = append(attachments, domain.AttachmentArtifact{
			ParentID:  raw.ID,
			Filename:  a.Title,
			SizeBytes: a.SizeBytes,
			MediaType: mediaType,
			SourceURL: a.DownloadURL,
		})
	}

	logger.Debug("Enriched page %d (%q): %d authors, %d attachments",
		page.ID, page.Title, len(page.Authors), len(attachments))
	return page, attachments
}

// frontMatter is the YAML shape of the provenance header. Field order is
// fixed by the struct; unselected fields are zeroed before marshalling
// and dropped by omitempty.
type frontMatter struct {
	Title     string            `yaml:"title,omitempty"`
	Space     *frontMatterSpace `yaml:"space,omitempty"`
	Authors   []string          `yaml:"authors,omitempty"`
	Created   string            `yaml:"created,omitempty"`
	Updated   string            `yaml:"updated,omitempty"`
	Ancestors []string          `yaml:"ancestors,omitempty"`
	Labels    []string          `yaml:"labels,omitempty"`
	Version   int               `yaml:"version,omitempty"`
	URL       string            `yaml:"url,omitempty"`
}

type frontMatterSpace struct {
	Key  string `yaml:"key,omitempty"`
	Name string `yaml:"name,omitempty"`
}

// RenderPage returns the upload payload for a page: YAML front matter
// followed by the page body.
func (e *MetadataEnricher) RenderPage(page *domain.PageArtifact, body string) []byte {
	fm := frontMatter{}
	if e.fields["title"] {
		fm.Title = page.Title
	}
	if e.fields["space"] && (page.SpaceKey != "" || page.SpaceName != "") {
		fm.Space = &frontMatterSpace{Key: page.SpaceKey, Name: page.SpaceName}
	}
	if e.fields["authors"] {
		fm.Authors = page.Authors
	}
	if e.fields["created"] && !page.CreatedAt.IsZero() {
		fm.Created = page.CreatedAt.UTC().Format(time.RFC3339)
	}
	if e.fields["updated"] && !page.UpdatedAt.IsZero() {
		fm.Updated = page.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if e.fields["ancestors"] {
		fm.Ancestors = page.Ancestors
	}
	if e.fields["labels"] {
		fm.Labels = page.Labels
	}
	if e.fields["version"] {
		fm.Version = page.Version
	}
	if e.fields["url"] {
		fm.URL = page.CanonicalURL
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		// The struct holds only strings, slices and an int; marshalling
		// cannot fail for well-formed input. Fall back to the bare body.
		logger.Warn("Front matter rendering failed for page %d: %v", page.ID, err)
		return []byte(body)
	}

	var b strings.Builder
	b.Grow(len(header) + len(body) + 16)
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (e *MetadataEnricher) canonicalURL(webURL string) string {
	if webURL == "" {
		return ""
	}
	if strings.HasPrefix(webURL, "http://") || strings.HasPrefix(webURL, "https://") {
		return webURL
	}
	return e.baseURL + "/" + strings.TrimLeft(webURL, "/")
}

// SafeFilename turns a page or attachment title into a destination-safe
// file name, appending ext (with leading dot) unless already present.
func SafeFilename(title, ext string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(title) {
		safe := r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		switch {
		case safe:
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.Trim(b.String(), "_.")
	if name == "" {
		name = "untitled"
	}
	if ext != "" && !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name += ext
	}
	return name
}
