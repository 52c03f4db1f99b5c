package store

import (
	"context"

	"github.com/campuslink/backend/internal/models"
)

// ListComments returns all comments on a post, oldest first. Threading
// (parent_id nesting) is reconstructed by the caller.
func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment inserts a comment, optionally under a parent comment.
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}
