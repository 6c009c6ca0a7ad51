package analytics

import (
	"github.com/nulzo/analytics-api/internal/store/model"
	"github.com/nulzo/analytics-api/pkg/api"
)

func toPostDetail(p model.RankedPost) api.PostDetail {
	return api.PostDetail{
		ID:           p.ID,
		UserID:       p.UserID,
		Content:      p.Content,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		FileURL:      p.FileURL,
		FileSize:     p.FileSize,
		MediaType:    p.MediaType,
		IsActive:     p.IsActive,
		IsEdited:     p.IsEdited,
		Status:       p.Status,
		CommentCount: p.CommentCount,
	}
}
