package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/store"
	"github.com/nulzo/analytics-api/internal/store/model"
)

// timestamps are stored as UTC text so that string comparison orders them
const timeLayout = "2006-01-02 15:04:05"

var _ store.Repository = (*SqliteRepository)(nil)

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor store.DB // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithTx runs fn against a repository bound to a single transaction.
func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo *SqliteRepository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Users() store.UserRepository {
	return &userRepo{db: r.executor}
}

func (r *SqliteRepository) Posts() store.PostRepository {
	return &postRepo{db: r.executor}
}

func (r *SqliteRepository) Reports() store.ReportRepository {
	return &reportRepo{db: r.executor}
}

// CreateUser, CreatePost, CreateComment and CreateReport back the seeder and
// the tests. The analytics service itself is read-only.
func (r *SqliteRepository) CreateUser(ctx context.Context, u *model.User) error {
	return (&userRepo{db: r.executor}).Create(ctx, u)
}

func (r *SqliteRepository) CreatePost(ctx context.Context, p *model.Post) error {
	return (&postRepo{db: r.executor}).Create(ctx, p)
}

func (r *SqliteRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	return (&postRepo{db: r.executor}).CreateComment(ctx, c)
}

func (r *SqliteRepository) CreateReport(ctx context.Context, rp *model.Report) error {
	return (&reportRepo{db: r.executor}).Create(ctx, rp)
}

// bucket returns the SQL expression mapping col to the first day of its
// period. 'weekday 0' advances to the next Sunday, minus six days is the
// ISO Monday.
func bucket(col string, g series.Granularity) string {
	switch g {
	case series.Weekly:
		return fmt.Sprintf("date(%s, 'weekday 0', '-6 days')", col)
	case series.Monthly:
		return fmt.Sprintf("date(%s, 'start of month')", col)
	default:
		return fmt.Sprintf("date(%s)", col)
	}
}

func bounds(r series.Range) (string, string) {
	from, to := r.Bounds()
	return from.Format(timeLayout), to.Format(timeLayout)
}

func seriesQuery(g series.Granularity, table, count, where string) string {
	b := bucket("created_at", g)
	return fmt.Sprintf(`
	SELECT %s AS period, %s AS count
	FROM %s
	WHERE created_at >= ? AND created_at < ?%s
	GROUP BY period
	ORDER BY period`, b, count, table, where)
}

type userRepo struct {
	db store.DB
}

func (r *userRepo) Signups(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := bounds(rg)
	query := seriesQuery(rg.Granularity, "users", "COUNT(*)", "")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM users`)
}

func (r *userRepo) CountActive(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM users WHERE is_active = 1`)
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
	INSERT INTO users (id, email, name, role, is_active, created_at)
	VALUES (:id, :email, :name, :role, :is_active, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"is_active":  u.IsActive,
		"created_at": formatTime(u.CreatedAt),
	})
	return err
}

type postRepo struct {
	db store.DB
}

func (r *postRepo) Volume(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := bounds(rg)
	query := seriesQuery(rg.Granularity, "posts", "COUNT(*)", " AND is_active = 1")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *postRepo) CountActive(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM posts WHERE is_active = 1`)
}

func (r *postRepo) TopInteracted(ctx context.Context, rg series.Range, limit int) ([]model.RankedPost, error) {
	from, to := bounds(rg)
	query := fmt.Sprintf(`
	WITH comments_per_period AS (
		SELECT %s AS period, post_id, COUNT(*) AS comment_count
		FROM comments
		WHERE created_at >= ? AND created_at < ?
		GROUP BY period, post_id
	),
	ranked AS (
		SELECT cp.*,
			ROW_NUMBER() OVER (PARTITION BY cp.period ORDER BY cp.comment_count DESC, cp.post_id) AS rn
		FROM comments_per_period cp
	)
	SELECT
		rk.period,
		p.id,
		p.user_id,
		p.content,
		strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', p.created_at) AS created_at,
		strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', p.updated_at) AS updated_at,
		p.file_url,
		p.file_size,
		p.media_type,
		p.is_active,
		p.is_edited,
		p.status,
		rk.comment_count
	FROM ranked rk
	JOIN posts p ON p.id = rk.post_id
	WHERE rk.rn <= ?
	ORDER BY rk.period, rk.comment_count DESC, p.id`, bucket("created_at", rg.Granularity))

	var rows []model.RankedPost
	if err := r.db.SelectContext(ctx, &rows, query, from, to, limit); err != nil {
		return nil, err
	}
	if err := store.NormalizeRanked(rows, rg.Granularity); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *postRepo) Create(ctx context.Context, p *model.Post) error {
	query := `
	INSERT INTO posts (
		id, user_id, content, file_url, file_size, media_type,
		is_active, is_edited, status, created_at, updated_at
	) VALUES (
		:id, :user_id, :content, :file_url, :file_size, :media_type,
		:is_active, :is_edited, :status, :created_at, :updated_at
	)`
	var updated *string
	if p.UpdatedAt != nil {
		s := formatTime(*p.UpdatedAt)
		updated = &s
	}
	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         p.ID,
		"user_id":    p.UserID,
		"content":    p.Content,
		"file_url":   p.FileURL,
		"file_size":  p.FileSize,
		"media_type": p.MediaType,
		"is_active":  p.IsActive,
		"is_edited":  p.IsEdited,
		"status":     p.Status,
		"created_at": formatTime(p.CreatedAt),
		"updated_at": updated,
	})
	return err
}

// CreateComment inserts a comment on a post.
func (r *postRepo) CreateComment(ctx context.Context, c *model.Comment) error {
	query := `
	INSERT INTO comments (id, post_id, user_id, content, created_at)
	VALUES (:id, :post_id, :user_id, :content, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         c.ID,
		"post_id":    c.PostID,
		"user_id":    c.UserID,
		"content":    c.Content,
		"created_at": formatTime(c.CreatedAt),
	})
	return err
}

type reportRepo struct {
	db store.DB
}

func (r *reportRepo) Volume(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := bounds(rg)
	query := seriesQuery(rg.Granularity, "reports", "COUNT(*)", "")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *reportRepo) ReportedContent(ctx context.Context, rg series.Range) ([]series.DataPoint, error) {
	from, to := bounds(rg)
	query := seriesQuery(rg.Granularity, "reports", "COUNT(DISTINCT reported_content_id)", "")
	return store.SelectSeries(ctx, r.db, rg.Granularity, query, from, to)
}

func (r *reportRepo) Count(ctx context.Context) (int64, error) {
	return store.Count(ctx, r.db, `SELECT COUNT(*) FROM reports`)
}

func (r *reportRepo) Create(ctx context.Context, rp *model.Report) error {
	query := `
	INSERT INTO reports (id, reporter_id, reported_content_id, content_type, reason, created_at)
	VALUES (:id, :reporter_id, :reported_content_id, :content_type, :reason, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                  rp.ID,
		"reporter_id":         rp.ReporterID,
		"reported_content_id": rp.ReportedContentID,
		"content_type":        rp.ContentType,
		"reason":              rp.Reason,
		"created_at":          formatTime(rp.CreatedAt),
	})
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
