package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"aotw/internal/config"
)

// Store manages the journal database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy covers the bot and a CLI command writing at the same moment.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) stamp(t time.Time) int64 {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().UnixNano()
}

// RecordSubmission journals an orchestrator run and returns its row id.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) (int64, error) {
	if strings.TrimSpace(sub.SourceURL) == "" {
		return 0, errors.New("submission url required")
	}
	if strings.TrimSpace(sub.Kind) == "" {
		return 0, errors.New("submission kind required")
	}
	id, err := s.insert(ctx, `INSERT INTO submissions
		(correlation_id, source_url, album_id, kind, success, partial_failure, message, pick_number, artist, album, picker, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.CorrelationID, sub.SourceURL, sub.AlbumID, sub.Kind,
		boolToInt(sub.Success), boolToInt(sub.PartialFailure), sub.Message, sub.PickNumber,
		sub.Artist, sub.Album, sub.Picker, s.stamp(sub.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

// RecordPublish journals a publish run and returns its row id.
func (s *Store) RecordPublish(ctx context.Context, run PublishRun) (int64, error) {
	trigger := strings.TrimSpace(run.Trigger)
	if trigger == "" {
		trigger = "manual"
	}
	id, err := s.insert(ctx, `INSERT INTO publish_runs
		(correlation_id, trigger_name, success, albums, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.CorrelationID, trigger, boolToInt(run.Success), run.Albums, run.Message, s.stamp(run.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert publish run: %w", err)
	}
	return id, nil
}

const submissionColumns = `id, correlation_id, source_url, album_id, kind, success, partial_failure,
	message, pick_number, artist, album, picker, created_at`

// Recent returns up to limit submissions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// PendingPublish returns the newest partially failed submission when no
// full success or successful publish run has happened since. nil means the
// website is current.
func (s *Store) PendingPublish(ctx context.Context) (*Submission, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE success = 1 AND partial_failure = 1 ORDER BY created_at DESC, id DESC LIMIT 1")
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	since := sub.CreatedAt.UTC().UnixNano()
	var healed int
	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(1) FROM submissions WHERE success = 1 AND partial_failure = 0 AND created_at > ?) +
		(SELECT COUNT(1) FROM publish_runs WHERE success = 1 AND created_at > ?)`, since, since).Scan(&healed)
	if err != nil {
		return nil, fmt.Errorf("query publish state: %w", err)
	}
	if healed > 0 {
		return nil, nil
	}
	return sub, nil
}

// LastPublish returns the newest publish run, or nil when none exist.
func (s *Store) LastPublish(ctx context.Context) (*PublishRun, error) {
	var (
		run       PublishRun
		success   int
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, correlation_id, trigger_name, success, albums, message, created_at
		FROM publish_runs ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&run.ID, &run.CorrelationID, &run.Trigger, &success, &run.Albums, &run.Message, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query publish runs: %w", err)
	}
	run.Success = success != 0
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return &run, nil
}

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*Submission, error) {
	var (
		sub       Submission
		success   int
		partial   int
		createdAt int64
	)
	if err := scanner.Scan(
		&sub.ID, &sub.CorrelationID, &sub.SourceURL, &sub.AlbumID, &sub.Kind, &success, &partial,
		&sub.Message, &sub.PickNumber, &sub.Artist, &sub.Album, &sub.Picker, &createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	sub.Success = success != 0
	sub.PartialFailure = partial != 0
	sub.CreatedAt = time.Unix(0, createdAt).UTC()
	return &sub, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
