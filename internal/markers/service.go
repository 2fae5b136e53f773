// Package markers persists per-series skip markers and behavior flags,
// keyed by the normalized series prefix and release suffix.
package markers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidIntroRange is returned when intro end is not after intro start.
	ErrInvalidIntroRange = errors.New("intro end must be after intro start")
	// ErrNegativeSeconds is returned when a marker value is negative.
	ErrNegativeSeconds = errors.New("marker seconds must not be negative")
	// ErrUnknownKind is returned for an unrecognized clear target.
	ErrUnknownKind = errors.New("unknown marker kind")
)

// Service provides skip-marker and series-settings storage.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new markers service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "markers").Logger(),
	}
}

// SetIntroMarkers stores the intro start/end pair for a series.
// Validation failures leave any existing row unchanged.
func (s *Service) SetIntroMarkers(ctx context.Context, prefix, suffix string, start, end int64) error {
	if start < 0 || end < 0 {
		return ErrNegativeSeconds
	}
	if end <= start {
		return ErrInvalidIntroRange
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_settings (series_prefix, series_suffix, intro_start, intro_end)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(series_prefix, series_suffix) DO UPDATE SET
			intro_start = excluded.intro_start,
			intro_end = excluded.intro_end`,
		prefix, suffix, start, end)
	if err != nil {
		return fmt.Errorf("failed to set intro markers: %w", err)
	}

	s.logger.Debug().
		Str("prefix", prefix).
		Str("suffix", suffix).
		Int64("start", start).
		Int64("end", end).
		Msg("intro markers set")
	return nil
}

// SetCreditsDuration stores the trailing credits length for a series.
func (s *Service) SetCreditsDuration(ctx context.Context, prefix, suffix string, seconds int64) error {
	if seconds < 0 {
		return ErrNegativeSeconds
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_settings (series_prefix, series_suffix, credits_duration)
		VALUES (?, ?, ?)
		ON CONFLICT(series_prefix, series_suffix) DO UPDATE SET
			credits_duration = excluded.credits_duration`,
		prefix, suffix, seconds)
	if err != nil {
		return fmt.Errorf("failed to set credits duration: %w", err)
	}

	s.logger.Debug().
		Str("prefix", prefix).
		Str("suffix", suffix).
		Int64("seconds", seconds).
		Msg("credits duration set")
	return nil
}

// GetMarkers returns the stored skip markers for a series.
// Returns nil when the series has no settings row.
func (s *Service) GetMarkers(ctx context.Context, prefix, suffix string) (*Markers, error) {
	var introStart, introEnd, credits sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT intro_start, intro_end, credits_duration
		FROM series_settings
		WHERE series_prefix = ? AND series_suffix = ?`,
		prefix, suffix).Scan(&introStart, &introEnd, &credits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get markers: %w", err)
	}

	m := &Markers{}
	if introStart.Valid {
		m.IntroStart = &introStart.Int64
	}
	if introEnd.Valid {
		m.IntroEnd = &introEnd.Int64
	}
	if credits.Valid {
		m.CreditsDuration = &credits.Int64
	}
	return m, nil
}

// GetFlags returns the behavior flags for a series.
// A series without a settings row has all flags false.
func (s *Service) GetFlags(ctx context.Context, prefix, suffix string) (Flags, error) {
	var f Flags

	err := s.db.QueryRowContext(ctx, `
		SELECT autoplay, skip_intro, skip_outro
		FROM series_settings
		WHERE series_prefix = ? AND series_suffix = ?`,
		prefix, suffix).Scan(&f.Autoplay, &f.SkipIntro, &f.SkipOutro)
	if errors.Is(err, sql.ErrNoRows) {
		return Flags{}, nil
	}
	if err != nil {
		return Flags{}, fmt.Errorf("failed to get series flags: %w", err)
	}
	return f, nil
}

// SetFlags stores the behavior flags for a series, preserving any markers.
func (s *Service) SetFlags(ctx context.Context, prefix, suffix string, f Flags) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_settings (series_prefix, series_suffix, autoplay, skip_intro, skip_outro)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(series_prefix, series_suffix) DO UPDATE SET
			autoplay = excluded.autoplay,
			skip_intro = excluded.skip_intro,
			skip_outro = excluded.skip_outro`,
		prefix, suffix, f.Autoplay, f.SkipIntro, f.SkipOutro)
	if err != nil {
		return fmt.Errorf("failed to set series flags: %w", err)
	}
	return nil
}

// SaveSettings upserts the full settings row for a series.
// Marker values pass through the same validation as their setters.
func (s *Service) SaveSettings(ctx context.Context, prefix, suffix string, settings Settings) error {
	if settings.IntroStart != nil || settings.IntroEnd != nil {
		if settings.IntroStart == nil || settings.IntroEnd == nil {
			return ErrInvalidIntroRange
		}
		if *settings.IntroStart < 0 || *settings.IntroEnd < 0 {
			return ErrNegativeSeconds
		}
		if *settings.IntroEnd <= *settings.IntroStart {
			return ErrInvalidIntroRange
		}
	}
	if settings.CreditsDuration != nil && *settings.CreditsDuration < 0 {
		return ErrNegativeSeconds
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_settings
			(series_prefix, series_suffix, autoplay, skip_intro, skip_outro,
			 intro_start, intro_end, credits_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(series_prefix, series_suffix) DO UPDATE SET
			autoplay = excluded.autoplay,
			skip_intro = excluded.skip_intro,
			skip_outro = excluded.skip_outro,
			intro_start = excluded.intro_start,
			intro_end = excluded.intro_end,
			credits_duration = excluded.credits_duration`,
		prefix, suffix, settings.Autoplay, settings.SkipIntro, settings.SkipOutro,
		nullableInt(settings.IntroStart), nullableInt(settings.IntroEnd),
		nullableInt(settings.CreditsDuration))
	if err != nil {
		return fmt.Errorf("failed to save series settings: %w", err)
	}
	return nil
}

// GetSettings returns the full settings row for a series.
// Returns nil when the series has no settings row.
func (s *Service) GetSettings(ctx context.Context, prefix, suffix string) (*Settings, error) {
	var (
		settings                      Settings
		introStart, introEnd, credits sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT autoplay, skip_intro, skip_outro, intro_start, intro_end, credits_duration
		FROM series_settings
		WHERE series_prefix = ? AND series_suffix = ?`,
		prefix, suffix).Scan(&settings.Autoplay, &settings.SkipIntro, &settings.SkipOutro,
		&introStart, &introEnd, &credits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get series settings: %w", err)
	}

	if introStart.Valid {
		settings.IntroStart = &introStart.Int64
	}
	if introEnd.Valid {
		settings.IntroEnd = &introEnd.Int64
	}
	if credits.Valid {
		settings.CreditsDuration = &credits.Int64
	}
	return &settings, nil
}

// Exists reports whether a settings row exists for a series.
func (s *Service) Exists(ctx context.Context, prefix, suffix string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM series_settings
		WHERE series_prefix = ? AND series_suffix = ?`,
		prefix, suffix).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check series settings: %w", err)
	}
	return count > 0, nil
}

// ClearMarkers removes stored markers for a series without touching flags.
func (s *Service) ClearMarkers(ctx context.Context, prefix, suffix string, kind Kind) error {
	var query string
	switch kind {
	case KindIntro:
		query = `UPDATE series_settings SET intro_start = NULL, intro_end = NULL
			WHERE series_prefix = ? AND series_suffix = ?`
	case KindCredits:
		query = `UPDATE series_settings SET credits_duration = NULL
			WHERE series_prefix = ? AND series_suffix = ?`
	case KindAll:
		query = `UPDATE series_settings SET intro_start = NULL, intro_end = NULL, credits_duration = NULL
			WHERE series_prefix = ? AND series_suffix = ?`
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if _, err := s.db.ExecContext(ctx, query, prefix, suffix); err != nil {
		return fmt.Errorf("failed to clear markers: %w", err)
	}

	s.logger.Debug().
		Str("prefix", prefix).
		Str("suffix", suffix).
		Str("kind", string(kind)).
		Msg("markers cleared")
	return nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
