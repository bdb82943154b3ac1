package domain

import (
	"fmt"
	"time"
)

// RunOutcome reports the result of one export run to operational callers.
// A completed run always reports its counts, even when some items failed;
// only authentication or query-construction failures produce an aborted run.
type RunOutcome struct {
	// RunID uniquely identifies the run.
	RunID string

	// Query is the normalised query the run executed.
	Query Query

	// ContainerID is the destination container the run uploaded into.
	ContainerID string

	// ContainerName is the destination container's display name.
	ContainerName string

	// TotalMatched is the server-reported count of matching content.
	TotalMatched int

	// TotalRetrieved is the number of unique page identifiers exported.
	TotalRetrieved int

	// Uploaded counts items accepted by the destination.
	Uploaded int

	// Skipped counts items the destination already held (duplicates).
	Skipped int

	// Rejected counts attachments filtered out locally.
	Rejected int

	// Failed counts items with a terminal upload failure.
	Failed int

	// Rejections details each filtered attachment.
	Rejections []Rejection

	// Failures details each terminally failed item.
	Failures []ItemResult

	// Warning carries the normaliser's policy warning, if any.
	Warning string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary returns a one-line human-readable account of the run.
func (o RunOutcome) Summary() string {
	return fmt.Sprintf("matched %d, retrieved %d, uploaded %d, skipped %d, rejected %d, failed %d",
		o.TotalMatched, o.TotalRetrieved, o.Uploaded, o.Skipped, o.Rejected, o.Failed)
}

// Clean reports whether every processed item succeeded.
func (o RunOutcome) Clean() bool {
	return o.Failed == 0
}
