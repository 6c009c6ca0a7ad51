package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/analytics-api/internal/platform/logger"
	"github.com/nulzo/analytics-api/internal/store/model"
	"github.com/nulzo/analytics-api/internal/store/sqlite"
	"go.uber.org/zap"
)

var reasons = []string{"spam", "harassment", "misinformation", "nudity", "other"}

func main() {
	dsn := flag.String("db", "analytics.db", "SQLite database file")
	days := flag.Int("days", 120, "Number of days of history to generate")
	users := flag.Int("users", 200, "Number of users")
	posts := flag.Int("posts", 800, "Number of posts")
	comments := flag.Int("comments", 3000, "Number of comments")
	reports := flag.Int("reports", 300, "Number of reports")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	if *users < 1 || *posts < 1 || *days < 1 {
		log.Fatal("days, users and posts must be positive")
	}

	zl, err := logger.New(logger.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	repo, err := sqlite.NewSQLiteStorage(*dsn, zl)
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	rng := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)
	span := end.Sub(start)

	at := func(after time.Time) time.Time {
		window := end.Sub(after)
		if window <= 0 {
			return end
		}
		return after.Add(time.Duration(rng.Int63n(int64(window))))
	}

	ctx := context.Background()

	err = repo.WithTx(ctx, func(tx *sqlite.SqliteRepository) error {
		userRows := make([]*model.User, 0, *users)
		for i := 0; i < *users; i++ {
			u := &model.User{
				ID:        uuid.NewString(),
				Email:     fmt.Sprintf("user%d@example.com", i),
				Name:      fmt.Sprintf("User %d", i),
				Role:      "user",
				IsActive:  rng.Intn(10) > 0,
				CreatedAt: start.Add(time.Duration(rng.Int63n(int64(span)))),
			}
			if err := tx.CreateUser(ctx, u); err != nil {
				return err
			}
			userRows = append(userRows, u)
		}

		postRows := make([]*model.Post, 0, *posts)
		for i := 0; i < *posts; i++ {
			author := userRows[rng.Intn(len(userRows))]
			content := fmt.Sprintf("Post %d", i)
			p := &model.Post{
				ID:        uuid.NewString(),
				UserID:    author.ID,
				Content:   &content,
				IsActive:  rng.Intn(8) > 0,
				Status:    1,
				CreatedAt: at(author.CreatedAt),
			}
			if err := tx.CreatePost(ctx, p); err != nil {
				return err
			}
			postRows = append(postRows, p)
		}

		for i := 0; i < *comments; i++ {
			// Skew towards a handful of posts so the rankings are interesting.
			p := postRows[int(float64(len(postRows))*rng.Float64()*rng.Float64())]
			c := &model.Comment{
				ID:        uuid.NewString(),
				PostID:    p.ID,
				UserID:    userRows[rng.Intn(len(userRows))].ID,
				Content:   "nice",
				CreatedAt: at(p.CreatedAt),
			}
			if err := tx.CreateComment(ctx, c); err != nil {
				return err
			}
		}

		for i := 0; i < *reports; i++ {
			p := postRows[rng.Intn(len(postRows)/4+1)]
			rp := &model.Report{
				ID:                uuid.NewString(),
				ReporterID:        userRows[rng.Intn(len(userRows))].ID,
				ReportedContentID: p.ID,
				ContentType:       "post",
				Reason:            reasons[rng.Intn(len(reasons))],
				CreatedAt:         at(p.CreatedAt),
			}
			if err := tx.CreateReport(ctx, rp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		zl.Fatal("Seeding failed", zap.Error(err))
	}

	zl.Info("Seeded database",
		zap.String("db", *dsn),
		zap.Int("users", *users),
		zap.Int("posts", *posts),
		zap.Int("comments", *comments),
		zap.Int("reports", *reports),
	)
}
