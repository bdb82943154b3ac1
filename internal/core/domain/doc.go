// Package domain defines the core business entities for pagesync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Query: A raw and normalised content query with a retrieval limit
//   - SearchResult: The deduplicated, ordered outcome of a paginated search
//   - PageArtifact / AttachmentArtifact: The units of export and upload
//   - UploadBatch: A bounded group of artifacts dispatched together
//   - RetryPolicy: Backoff/attempt budget for network operations
//   - RunOutcome: The counts and failures reported for one export run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
