package services

import (
	"strings"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// AttachmentFilter admits attachments whose extension is on the
// allow-list and whose reported size fits the ceiling. Rejections are
// recorded, never raised: a filtered attachment does not fail the run.
type AttachmentFilter struct {
	allowed map[string]bool
	maxSize int64
}

// NewAttachmentFilter creates a filter from the run settings. Extensions
// are matched case-insensitively, with or without a leading dot.
func NewAttachmentFilter(extensions []string, maxSize int64) *AttachmentFilter {
	allowed := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))] = true
	}
	return &AttachmentFilter{allowed: allowed, maxSize: maxSize}
}

// Admit decides one attachment. The returned reason is meaningful only
// when admit is false. When an attachment fails both checks the
// extension is reported as the primary cause.
func (f *AttachmentFilter) Admit(att domain.AttachmentArtifact) (bool, domain.RejectReason) {
	if !f.allowed[extensionOf(att.Filename)] {
		return false, domain.RejectExtension
	}
	if f.maxSize > 0 && att.SizeBytes > f.maxSize {
		return false, domain.RejectSize
	}
	return true, ""
}

// Filter partitions attachments into admitted artifacts and recorded
// rejections, preserving input order.
func (f *AttachmentFilter) Filter(atts []domain.AttachmentArtifact) ([]domain.AttachmentArtifact, []domain.Rejection) {
	admitted := make([]domain.AttachmentArtifact, 0, len(atts))
	var rejections []domain.Rejection
	for _, att := range atts {
		ok, reason := f.Admit(att)
		if !ok {
			logger.Debug("Rejected attachment %q: %s", att.Filename, reason)
			rejections = append(rejections, domain.Rejection{Filename: att.Filename, Reason: reason})
			continue
		}
		admitted = append(admitted, att)
	}
	return admitted, rejections
}

func extensionOf(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// mediaTypes maps file extensions to the MIME type sent on upload.
var mediaTypes = map[string]string{
	"txt":  "text/plain",
	"md":   "text/markdown",
	"json": "application/json",
	"yaml": "application/x-yaml",
	"yml":  "application/x-yaml",
	"csv":  "text/csv",
	"html": "text/html",
	"htm":  "text/html",
	"xml":  "application/xml",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"zip":  "application/zip",
}

// MediaTypeFor resolves the upload MIME type for a file name, falling
// back to application/octet-stream for unknown extensions.
func MediaTypeFor(filename string) string {
	if mt, ok := mediaTypes[extensionOf(filename)]; ok {
		return mt
	}
	return "application/octet-stream"
}
