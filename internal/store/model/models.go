package model

import (
	"time"
)

// User is an account of the social platform whose signups we chart.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"` // 'admin', 'user'
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Post is a piece of user content. Media fields are optional.
type Post struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Content   *string    `db:"content" json:"content,omitempty"`
	FileURL   *string    `db:"file_url" json:"file_url,omitempty"`
	FileSize  *int64     `db:"file_size" json:"file_size,omitempty"`
	MediaType *int       `db:"media_type" json:"media_type,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	IsEdited  bool       `db:"is_edited" json:"is_edited"`
	Status    int        `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Comment is the interaction counted by the top-interacted ranking.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	PostID    string    `db:"post_id" json:"post_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Report flags a piece of content. Several reports may target the same
// content, which is why reported-content series count distinct ids.
type Report struct {
	ID                string    `db:"id" json:"id"`
	ReporterID        string    `db:"reporter_id" json:"reporter_id"`
	ReportedContentID string    `db:"reported_content_id" json:"reported_content_id"`
	ContentType       string    `db:"content_type" json:"content_type"` // 'post', 'comment', 'user'
	Reason            string    `db:"reason" json:"reason"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// PeriodCount is one row of an aggregate query: the bucket label as produced
// by the database and the number of events in it.
type PeriodCount struct {
	Period string `db:"period"`
	Count  int64  `db:"count"`
}

// RankedPost is a post together with its comment count in one period.
// Timestamps are already rendered as ISO 8601 strings by the query.
type RankedPost struct {
	Period       string  `db:"period"`
	ID           string  `db:"id"`
	UserID       string  `db:"user_id"`
	Content      *string `db:"content"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    *string `db:"updated_at"`
	FileURL      *string `db:"file_url"`
	FileSize     *int64  `db:"file_size"`
	MediaType    *int    `db:"media_type"`
	IsActive     bool    `db:"is_active"`
	IsEdited     bool    `db:"is_edited"`
	Status       int     `db:"status"`
	CommentCount int64   `db:"comment_count"`
}
