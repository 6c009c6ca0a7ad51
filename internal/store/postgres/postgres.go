package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/store"
	"github.com/nulzo/analytics-api/internal/store/model"
	"go.uber.org/zap"
)

var _ store.Repository = (*PostgresRepository)(nil)

// PostgresRepository reads from the social platform's primary database.
// The schema is owned by that platform, so no migrations run here.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresStorage connects through the pgx stdlib driver.
func NewPostgresStorage(dsn string, maxOpenConns int, logger *zap.Logger) (*PostgresRepository, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("Connected to postgres", zap.Int("max_open_conns", maxOpenConns))
	return NewPostgresRepository(db), nil
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Users() store.UserRepository {
	return &userRepo{db: r.db}
}

func (r *PostgresRepository) Posts() store.PostRepository {
	return &postRepo{db: r.db}
}

func (r *PostgresRepository) Reports() store.ReportRepository {
	return &reportRepo{db: r.db}
}

// periodKey renders the canonical key of col's bucket directly, so the labels
// need no rewriting beyond validation.
func periodKey(col string, g series.Granularity) string {
	utc := fmt.Sprintf("(%s AT TIME ZONE 'UTC')", col)
	switch g {
	case series.Weekly:
		return fmt.Sprintf(`to_char(date_trunc('week', %s), 'IYYY-"W"IW')`, utc)
	case series.Monthly:
		return fmt.Sprintf(`to_char(date_trunc('month', %s), 'YYYY-MM')`, utc)
	default:
		return fmt.Sprintf(`to_char(%s, 'YYYY-MM-DD')`, utc)
	}
}

func seriesQuery(g series.Granularity, table, count, where string) string {
	return fmt.Sprintf(`
	SELECT %s AS period, %s AS count
	FROM %s
	WHERE created_at >= $1 AND created_at < $2%s
	GROUP BY 1
	ORDER BY 1`, periodKey("created_at", g), count, table, where)
}

type userRepo struct {
	db store.DB
}

func (r *userRepo) Signups(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := rg.Bounds()
	query := seriesQuery(rg.Granularity, "users", "COUNT(*)", "")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM users`)
}

func (r *userRepo) CountActive(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM users WHERE is_active = true`)
}

type postRepo struct {
	db store.DB
}

func (r *postRepo) Volume(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := rg.Bounds()
	query := seriesQuery(rg.Granularity, "posts", "COUNT(*)", " AND is_active = true")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *postRepo) CountActive(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM posts WHERE is_active = true`)
}

const isoTimestamp = `'YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'`

func (r *postRepo) TopInteracted(ctx context.Context, rg series.Range, limit int) ([]model.RankedPost, error) {
	from, to := rg.Bounds()
	query := fmt.Sprintf(`
	WITH comments_per_period AS (
		SELECT %s AS period, c.post_id, COUNT(c.id) AS comment_count
		FROM comments c
		WHERE c.created_at >= $1 AND c.created_at < $2
		GROUP BY 1, c.post_id
	),
	ranked AS (
		SELECT cp.*,
			ROW_NUMBER() OVER (PARTITION BY cp.period ORDER BY cp.comment_count DESC, cp.post_id) AS rn
		FROM comments_per_period cp
	)
	SELECT
		rk.period,
		p.id::text AS id,
		p.user_id::text AS user_id,
		p.content,
		to_char(p.created_at AT TIME ZONE 'UTC', %s) AS created_at,
		to_char(p.updated_at AT TIME ZONE 'UTC', %s) AS updated_at,
		p.file_url,
		p.file_size,
		p.media_type,
		p.is_active,
		p.is_edited,
		p.status,
		rk.comment_count
	FROM ranked rk
	JOIN posts p ON p.id = rk.post_id
	WHERE rk.rn <= $3
	ORDER BY rk.period, rk.comment_count DESC, p.id`,
		periodKey("c.created_at", rg.Granularity), isoTimestamp, isoTimestamp)

	var rows []model.RankedPost
	if err := r.db.SelectContext(ctx, &rows, query, from, to, limit); err != nil {
		return nil, err
	}
	if err := store.NormalizeRanked(rows, rg.Granularity); err != nil {
		return nil, err
	}
	return rows, nil
}

type reportRepo struct {
	db store.DB
}

func (r *reportRepo) Volume(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := rg.Bounds()
	query := seriesQuery(rg.Granularity, "reports", "COUNT(*)", "")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *reportRepo) ReportedContent(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := rg.Bounds()
	query := seriesQuery(rg.Granularity, "reports", "COUNT(DISTINCT reported_content_id)", "")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *reportRepo) Count(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM reports`)
}
