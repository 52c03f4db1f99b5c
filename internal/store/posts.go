package store

import (
	"context"
	"errors"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/models"
	"gorm.io/gorm"
)

// PostQuery narrows a feed page. AuthorIDs distinguishes nil (no author
// constraint, global feed) from empty (constrained to nobody: the result is
// an empty page, never a fallback to the global feed).
type PostQuery struct {
	AuthorIDs  []string
	Campus     string
	City       string
	Categories []string
	Promos     []string
	Fields     []string
	EventsOnly bool
	Limit      int
	Offset     int
}

// ListPosts returns a page of posts ordered by creation time descending.
func (s *Store) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	if q.AuthorIDs != nil && len(q.AuthorIDs) == 0 {
		return []models.Post{}, nil
	}

	tx := s.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC")

	if q.AuthorIDs != nil {
		tx = tx.Where("user_id IN ?", q.AuthorIDs)
	}
	if q.Campus != "" {
		tx = tx.Where("campus = ?", q.Campus)
	}
	if q.City != "" {
		tx = tx.Where("city = ?", q.City)
	}
	if len(q.Categories) > 0 {
		tx = tx.Where("categories && ?", models.StringArray(q.Categories))
	}
	if len(q.Promos) > 0 {
		tx = tx.Where("promos && ?", models.StringArray(q.Promos))
	}
	if len(q.Fields) > 0 {
		tx = tx.Where("fields && ?", models.StringArray(q.Fields))
	}
	if q.EventsOnly {
		tx = tx.Where("is_event = ?", true)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var posts []models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post with its author.
func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("post")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListReplies returns the direct replies to a post, oldest first.
func (s *Store) ListReplies(ctx context.Context, postID string, limit, offset int) ([]models.Post, error) {
	var replies []models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("reply_to_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&replies).Error
	return replies, err
}

// CreatePost inserts a post along with its extracted hashtag rows.
func (s *Store) CreatePost(ctx context.Context, post *models.Post, tags []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Create(&models.PostTag{PostID: post.ID, Tag: tag}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePost soft-deletes a post owned by userID.
func (s *Store) DeletePost(ctx context.Context, userID, postID string) error {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFound("post")
	}
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return apierrors.Forbidden("only the author can delete a post")
	}
	return s.db.WithContext(ctx).Delete(&post).Error
}

// CreateReport records a moderation flag on a post or comment. A repeat
// report by the same user on the same target is a no-op, not an error.
func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	err := s.db.WithContext(ctx).Create(report).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

// isUniqueViolation reports whether err came from a unique-index conflict.
// gorm normalizes this across drivers as ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
