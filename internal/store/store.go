package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/store/model"
)

// Repository is the main contract for the data layer. Every series method
// returns sparse rows whose labels are already canonical period keys.
type Repository interface {
	Users() UserRepository
	Posts() PostRepository
	Reports() ReportRepository

	Ping(ctx context.Context) error
	Close() error
}

type UserRepository interface {
	// Signups returns the number of new users per period of r.
	Signups(ctx context.Context, r series.Range) ([]series.DataPoint, error)
	// Count returns every user ever registered.
	Count(ctx context.Context) (int64, error)
	// CountActive returns users whose account is active.
	CountActive(ctx context.Context) (int64, error)
}

type PostRepository interface {
	// Volume returns the number of active posts created per period of r.
	Volume(ctx context.Context, r series.Range) ([]series.DataPoint, error)
	// CountActive returns all active posts regardless of date.
	CountActive(ctx context.Context) (int64, error)
	// TopInteracted returns, for each period of r, up to limit posts ranked
	// by the number of comments they received in that period.
	TopInteracted(ctx context.Context, r series.Range, limit int) ([]model.RankedPost, error)
}

type ReportRepository interface {
	// Volume returns the number of reports filed per period of r.
	Volume(ctx context.Context, r series.Range) ([]series.DataPoint, error)
	// ReportedContent returns the number of distinct reported items per period.
	ReportedContent(ctx context.Context, r series.Range) ([]series.DataPoint, error)
	// Count returns every report ever filed.
	Count(ctx context.Context) (int64, error)
}

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SelectSeries runs an aggregate query yielding (period, count) rows and
// normalises the period labels to canonical keys for g.
func SelectSeries(ctx context.Context, db DB, g series.Granularity, query string, args ...interface{}) ([]series.DataPoint, error) {
	var rows []model.PeriodCount
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	points := make([]series.DataPoint, len(rows))
	for i, row := range rows {
		points[i] = series.DataPoint{Label: row.Period, Count: row.Count}
	}

	normalized, err := series.NormalizeAll(points, g)
	if err != nil {
		return nil, fmt.Errorf("unexpected period label from database: %w", err)
	}
	return normalized, nil
}

// NormalizeRanked rewrites the period of every ranked row to its canonical key.
func NormalizeRanked(rows []model.RankedPost, g series.Granularity) error {
	for i := range rows {
		key, err := series.Normalize(rows[i].Period, g)
		if err != nil {
			return fmt.Errorf("unexpected period label from database: %w", err)
		}
		rows[i].Period = key
	}
	return nil
}

// Count runs a single-value COUNT query.
func Count(ctx context.Context, db DB, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}
