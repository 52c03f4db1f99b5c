package store

import (
	"context"

	"github.com/campuslink/backend/internal/models"
)

// FollowSet returns the viewer's own ID plus every ID they follow. The
// viewer is always included, so an account following nobody still sees its
// own posts on the chronological tab.
func (s *Store) FollowSet(ctx context.Context, viewerID string) ([]string, error) {
	var followeeIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("followee_id", &followeeIDs).Error
	if err != nil {
		return nil, err
	}
	return append([]string{viewerID}, followeeIDs...), nil
}

// Follow creates a follow edge. Following yourself or re-following is a no-op.
func (s *Store) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

// Unfollow removes a follow edge if present.
func (s *Store) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}
