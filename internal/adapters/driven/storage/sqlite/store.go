package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pagesync-labs/pagesync-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
)

// Store is the SQLite-backed local metadata store. Run history is its
// only table today; the migration machinery leaves room for more.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.pagesync/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagesync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// rejectionRecord is the JSON shape of one filtered attachment.
type rejectionRecord struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// failureRecord is the JSON shape of one terminally failed item.
// Errors persist as text; they are rehydrated as opaque errors.
type failureRecord struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
	FileID   string `json:"file_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Save records a completed (or aborted) run. Saving the same run ID
// again overwrites the earlier record.
func (s *runStore) Save(ctx context.Context, outcome domain.RunOutcome) error {
	if outcome.RunID == "" {
		return domain.ErrInvalidInput
	}

	rejectionsJSON, err := json.Marshal(toRejectionRecords(outcome.Rejections))
	if err != nil {
		return fmt.Errorf("marshalling rejections: %w", err)
	}
	failuresJSON, err := json.Marshal(toFailureRecords(outcome.Failures))
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, raw_query, normalised_query, query_limit, warning,
			container_id, container_name,
			total_matched, total_retrieved, uploaded, skipped, rejected, failed,
			rejections, failures, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			raw_query = excluded.raw_query,
			normalised_query = excluded.normalised_query,
			query_limit = excluded.query_limit,
			warning = excluded.warning,
			container_id = excluded.container_id,
			container_name = excluded.container_name,
			total_matched = excluded.total_matched,
			total_retrieved = excluded.total_retrieved,
			uploaded = excluded.uploaded,
			skipped = excluded.skipped,
			rejected = excluded.rejected,
			failed = excluded.failed,
			rejections = excluded.rejections,
			failures = excluded.failures,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, outcome.RunID, outcome.Query.Raw, outcome.Query.Normalised, outcome.Query.Limit,
		nullString(outcome.Warning), nullString(outcome.ContainerID), nullString(outcome.ContainerName),
		outcome.TotalMatched, outcome.TotalRetrieved, outcome.Uploaded,
		outcome.Skipped, outcome.Rejected, outcome.Failed,
		string(rejectionsJSON), string(failuresJSON),
		formatNullableTime(outcome.StartedAt), formatNullableTime(outcome.FinishedAt))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

const runColumns = `run_id, raw_query, normalised_query, query_limit, warning,
	container_id, container_name,
	total_matched, total_retrieved, uploaded, skipped, rejected, failed,
	rejections, failures, started_at, finished_at`

// List returns recorded runs, most recent first, up to limit.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.RunOutcome, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.RunOutcome //nolint:prealloc // size unknown from query
	for rows.Next() {
		outcome, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, *outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return outcomes, nil
}

// Get returns one recorded run by its ID.
func (s *runStore) Get(ctx context.Context, runID string) (*domain.RunOutcome, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	return scanRun(row.Scan)
}

// scanRun scans one run row through the given Scan function.
func scanRun(scan func(dest ...any) error) (*domain.RunOutcome, error) {
	var outcome domain.RunOutcome
	var warning, containerID, containerName sql.NullString
	var rejectionsJSON, failuresJSON sql.NullString
	var startedAt, finishedAt sql.NullString

	if err := scan(&outcome.RunID, &outcome.Query.Raw, &outcome.Query.Normalised, &outcome.Query.Limit,
		&warning, &containerID, &containerName,
		&outcome.TotalMatched, &outcome.TotalRetrieved, &outcome.Uploaded,
		&outcome.Skipped, &outcome.Rejected, &outcome.Failed,
		&rejectionsJSON, &failuresJSON, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	outcome.Warning = warning.String
	outcome.ContainerID = containerID.String
	outcome.ContainerName = containerName.String
	outcome.StartedAt = parseNullableTime(startedAt)
	outcome.FinishedAt = parseNullableTime(finishedAt)

	if rejectionsJSON.Valid && rejectionsJSON.String != "" {
		var records []rejectionRecord
		if err := json.Unmarshal([]byte(rejectionsJSON.String), &records); err != nil {
			return nil, fmt.Errorf("unmarshalling rejections: %w", err)
		}
		outcome.Rejections = fromRejectionRecords(records)
	}
	if failuresJSON.Valid && failuresJSON.String != "" {
		var records []failureRecord
		if err := json.Unmarshal([]byte(failuresJSON.String), &records); err != nil {
			return nil, fmt.Errorf("unmarshalling failures: %w", err)
		}
		outcome.Failures = fromFailureRecords(records)
	}

	return &outcome, nil
}

// ==================== Helper Functions ====================

func toRejectionRecords(rejections []domain.Rejection) []rejectionRecord {
	records := make([]rejectionRecord, 0, len(rejections))
	for _, r := range rejections {
		records = append(records, rejectionRecord{Filename: r.Filename, Reason: string(r.Reason)})
	}
	return records
}

func fromRejectionRecords(records []rejectionRecord) []domain.Rejection {
	rejections := make([]domain.Rejection, 0, len(records))
	for _, r := range records {
		rejections = append(rejections, domain.Rejection{
			Filename: r.Filename,
			Reason:   domain.RejectReason(r.Reason),
		})
	}
	return rejections
}

func toFailureRecords(failures []domain.ItemResult) []failureRecord {
	records := make([]failureRecord, 0, len(failures))
	for _, f := range failures {
		record := failureRecord{
			Name:     f.Name,
			State:    string(f.State),
			Attempts: f.Attempts,
			FileID:   f.FileID,
		}
		if f.Err != nil {
			record.Error = f.Err.Error()
		}
		records = append(records, record)
	}
	return records
}

func fromFailureRecords(records []failureRecord) []domain.ItemResult {
	failures := make([]domain.ItemResult, 0, len(records))
	for _, r := range records {
		result := domain.ItemResult{
			Name:     r.Name,
			State:    domain.ItemState(r.State),
			Attempts: r.Attempts,
			FileID:   r.FileID,
		}
		if r.Error != "" {
			result.Err = errors.New(r.Error)
		}
		failures = append(failures, result)
	}
	return failures
}

// formatNullableTime formats a time to RFC3339 string, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseNullableTime parses a nullable RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{} // Return zero time on parse error
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
