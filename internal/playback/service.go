// Package playback persists watch progress per media file and derives
// the unwatched/partial/watched classification shown in directory
// listings. It also owns the per-file outro latch that stops progress
// writes from regressing a file after the end-of-content action fired.
package playback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Querier is the subset of database/sql used by the service.
// *sql.DB satisfies it; tests substitute a call-counting wrapper.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Service provides playback progress storage.
type Service struct {
	db     Querier
	logger zerolog.Logger
}

// NewService creates a new playback service.
func NewService(db Querier, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "playback").Logger(),
	}
}

// Save upserts the progress record for a file. While the outro latch is
// set for the file the write is a silent no-op that still succeeds: the
// 60s progress poller may race the outro action, and the latched watched
// state must win. The conditional update keeps the whole operation a
// single atomic statement.
func (s *Service) Save(ctx context.Context, input SaveInput) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback (filename, position, duration, percent, series_prefix, series_suffix, debug_note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			position = excluded.position,
			duration = excluded.duration,
			percent = excluded.percent,
			series_prefix = excluded.series_prefix,
			series_suffix = excluded.series_suffix,
			debug_note = excluded.debug_note
		WHERE playback.outro_triggered = 0`,
		input.Filename, input.Position, input.Duration, input.Percent,
		input.SeriesPrefix, input.SeriesSuffix, input.DebugNote)
	if err != nil {
		return fmt.Errorf("failed to save playback: %w", err)
	}

	s.logger.Debug().
		Str("filename", input.Filename).
		Int64("position", input.Position).
		Int("percent", input.Percent).
		Msg("playback saved")
	return nil
}

// Get returns the progress record for a file, or nil when absent.
func (s *Service) Get(ctx context.Context, filename string) (*Record, error) {
	var (
		r              Record
		prefix, suffix sql.NullString
		note           sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT filename, position, duration, percent, series_prefix, series_suffix, debug_note, outro_triggered
		FROM playback
		WHERE filename = ?`,
		filename).Scan(&r.Filename, &r.Position, &r.Duration, &r.Percent,
		&prefix, &suffix, &note, &r.OutroTriggered)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playback: %w", err)
	}

	r.SeriesPrefix = prefix.String
	r.SeriesSuffix = suffix.String
	r.DebugNote = note.String
	return &r, nil
}

// GetPercent returns the percent watched for a file, 0 when absent.
func (s *Service) GetPercent(ctx context.Context, filename string) (int, error) {
	var percent int
	err := s.db.QueryRowContext(ctx,
		`SELECT percent FROM playback WHERE filename = ?`, filename).Scan(&percent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get percent: %w", err)
	}
	return percent, nil
}

// GetStatus returns the derived watch status for a file.
// An absent file is unwatched.
func (s *Service) GetStatus(ctx context.Context, filename string) (Status, error) {
	var (
		percent   int
		triggered bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT percent, outro_triggered FROM playback WHERE filename = ?`,
		filename).Scan(&percent, &triggered)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusUnwatched, nil
	}
	if err != nil {
		return StatusUnwatched, fmt.Errorf("failed to get status: %w", err)
	}
	return StatusFor(percent, triggered), nil
}

// GetBatchStatus returns the watch status for every requested file in a
// single query. Directory listings with dozens of files must not pay a
// per-file round trip. Files without a record map to unwatched.
func (s *Service) GetBatchStatus(ctx context.Context, filenames []string) (map[string]Status, error) {
	statuses := make(map[string]Status, len(filenames))
	for _, filename := range filenames {
		statuses[filename] = StatusUnwatched
	}
	if len(filenames) == 0 {
		return statuses, nil
	}

	query := `SELECT filename, percent, outro_triggered FROM playback WHERE filename IN (` +
		placeholders(len(filenames)) + `)`

	rows, err := s.db.QueryContext(ctx, query, toArgs(filenames)...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch query status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			filename  string
			percent   int
			triggered bool
		)
		if err := rows.Scan(&filename, &percent, &triggered); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		statuses[filename] = StatusFor(percent, triggered)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status rows: %w", err)
	}

	return statuses, nil
}

// GetBatchPercent returns percent watched for every requested file in a
// single query. Files without a record map to 0.
func (s *Service) GetBatchPercent(ctx context.Context, filenames []string) (map[string]int, error) {
	percents := make(map[string]int, len(filenames))
	for _, filename := range filenames {
		percents[filename] = 0
	}
	if len(filenames) == 0 {
		return percents, nil
	}

	query := `SELECT filename, percent FROM playback WHERE filename IN (` +
		placeholders(len(filenames)) + `)`

	rows, err := s.db.QueryContext(ctx, query, toArgs(filenames)...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch query percent: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			filename string
			percent  int
		)
		if err := rows.Scan(&filename, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan percent row: %w", err)
		}
		percents[filename] = percent
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read percent rows: %w", err)
	}

	return percents, nil
}

// OutroTriggered returns the outro latch for a file, false when absent.
func (s *Service) OutroTriggered(ctx context.Context, filename string) (bool, error) {
	var triggered bool
	err := s.db.QueryRowContext(ctx,
		`SELECT outro_triggered FROM playback WHERE filename = ?`, filename).Scan(&triggered)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get outro latch: %w", err)
	}
	return triggered, nil
}

// SetOutroTriggered sets or clears the outro latch for a file, creating
// the record if it does not exist yet.
func (s *Service) SetOutroTriggered(ctx context.Context, filename string, triggered bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback (filename, outro_triggered)
		VALUES (?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			outro_triggered = excluded.outro_triggered`,
		filename, triggered)
	if err != nil {
		return fmt.Errorf("failed to set outro latch: %w", err)
	}

	s.logger.Debug().
		Str("filename", filename).
		Bool("triggered", triggered).
		Msg("outro latch updated")
	return nil
}

// FindOtherVersions returns other encodes of the same series prefix with
// a different release suffix, each with its most recently written
// filename and highest percent watched.
func (s *Service) FindOtherVersions(ctx context.Context, prefix, currentSuffix string) ([]OtherVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT COALESCE(p1.series_suffix, ''),
			(SELECT filename FROM playback p2
			 WHERE p2.series_prefix = p1.series_prefix
			   AND COALESCE(p2.series_suffix, '') = COALESCE(p1.series_suffix, '')
			 ORDER BY rowid DESC LIMIT 1),
			(SELECT MAX(percent) FROM playback p3
			 WHERE p3.series_prefix = p1.series_prefix
			   AND COALESCE(p3.series_suffix, '') = COALESCE(p1.series_suffix, ''))
		FROM playback p1
		WHERE p1.series_prefix = ?
		  AND COALESCE(p1.series_suffix, '') != COALESCE(?, '')`,
		prefix, currentSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to find other versions: %w", err)
	}
	defer rows.Close()

	var versions []OtherVersion
	for rows.Next() {
		var v OtherVersion
		if err := rows.Scan(&v.Suffix, &v.LastFilename, &v.MaxPercent); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read version rows: %w", err)
	}

	return versions, nil
}

// ResetByPrefix deletes all records whose filename starts with the given
// prefix. Progress records are never deleted in normal operation; this
// exists for test tooling.
func (s *Service) ResetByPrefix(ctx context.Context, keyPrefix string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM playback WHERE filename LIKE ? || '%'`, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to reset by prefix: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset rows: %w", err)
	}

	s.logger.Info().
		Str("keyPrefix", keyPrefix).
		Int64("deleted", deleted).
		Msg("playback records reset")
	return deleted, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(filenames []string) []any {
	args := make([]any, len(filenames))
	for i, filename := range filenames {
		args[i] = filename
	}
	return args
}
