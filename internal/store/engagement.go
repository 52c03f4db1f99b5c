package store

import (
	"context"

	"github.com/campuslink/backend/internal/models"
)

type countRow struct {
	PostID string
	N      int
}

func (s *Store) countByPost(ctx context.Context, model interface{}, postIDs []string) (map[string]int, error) {
	if len(postIDs) == 0 {
		return map[string]int{}, nil
	}
	var rows []countRow
	err := s.db.WithContext(ctx).
		Model(model).
		Select("post_id, count(*) as n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

// LikeCounts returns like counts for a batch of posts.
func (s *Store) LikeCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return s.countByPost(ctx, &models.PostLike{}, postIDs)
}

// RepostCounts returns repost counts for a batch of posts.
func (s *Store) RepostCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return s.countByPost(ctx, &models.PostRepost{}, postIDs)
}

// ReplyCounts counts replies per post. Replies live in the posts table
// (reply_to_id points at the parent); there is no separate signal table.
func (s *Store) ReplyCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	if len(postIDs) == 0 {
		return map[string]int{}, nil
	}
	var rows []struct {
		ReplyToID string
		N         int
	}
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("reply_to_id, count(*) as n").
		Where("reply_to_id IN ?", postIDs).
		Group("reply_to_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ReplyToID] = r.N
	}
	return counts, nil
}

// ReactionCounts returns per-emoji reaction counts for a batch of posts.
func (s *Store) ReactionCounts(ctx context.Context, postIDs []string) (map[string]map[string]int, error) {
	if len(postIDs) == 0 {
		return map[string]map[string]int{}, nil
	}
	var rows []struct {
		PostID string
		Emoji  string
		N      int
	}
	err := s.db.WithContext(ctx).
		Model(&models.PostReaction{}).
		Select("post_id, emoji, count(*) as n").
		Where("post_id IN ?", postIDs).
		Group("post_id, emoji").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]map[string]int, len(rows))
	for _, r := range rows {
		if counts[r.PostID] == nil {
			counts[r.PostID] = map[string]int{}
		}
		counts[r.PostID][r.Emoji] = r.N
	}
	return counts, nil
}

func (s *Store) viewerMembership(ctx context.Context, model interface{}, viewerID string, postIDs []string) (map[string]bool, error) {
	if viewerID == "" || len(postIDs) == 0 {
		return map[string]bool{}, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	membership := make(map[string]bool, len(ids))
	for _, id := range ids {
		membership[id] = true
	}
	return membership, nil
}

// ViewerLikes returns the set of batch posts the viewer has liked.
func (s *Store) ViewerLikes(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	return s.viewerMembership(ctx, &models.PostLike{}, viewerID, postIDs)
}

// ViewerReposts returns the set of batch posts the viewer has reposted.
func (s *Store) ViewerReposts(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	return s.viewerMembership(ctx, &models.PostRepost{}, viewerID, postIDs)
}

// ViewerBookmarks returns the set of batch posts the viewer has bookmarked.
func (s *Store) ViewerBookmarks(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	return s.viewerMembership(ctx, &models.PostBookmark{}, viewerID, postIDs)
}

// ViewerReactions returns, per post, the emoji the viewer has applied.
func (s *Store) ViewerReactions(ctx context.Context, viewerID string, postIDs []string) (map[string][]string, error) {
	if viewerID == "" || len(postIDs) == 0 {
		return map[string][]string{}, nil
	}
	var rows []struct {
		PostID string
		Emoji  string
	}
	err := s.db.WithContext(ctx).
		Model(&models.PostReaction{}).
		Select("post_id, emoji").
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	mine := make(map[string][]string, len(rows))
	for _, r := range rows {
		mine[r.PostID] = append(mine[r.PostID], r.Emoji)
	}
	return mine, nil
}

// ToggleLike flips the viewer's like on a post: delete-if-present else
// insert. Returns whether the like is now active.
func (s *Store) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	err := s.db.WithContext(ctx).Create(&models.PostLike{PostID: postID, UserID: userID}).Error
	if err != nil && isUniqueViolation(err) {
		// Lost a race with another toggle from the same user; the like exists.
		return true, nil
	}
	return err == nil, err
}

// ToggleRepost flips the viewer's repost on a post.
func (s *Store) ToggleRepost(ctx context.Context, userID, postID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostRepost{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	err := s.db.WithContext(ctx).Create(&models.PostRepost{PostID: postID, UserID: userID}).Error
	if err != nil && isUniqueViolation(err) {
		return true, nil
	}
	return err == nil, err
}

// ToggleBookmark flips the viewer's bookmark on a post.
func (s *Store) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostBookmark{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	err := s.db.WithContext(ctx).Create(&models.PostBookmark{PostID: postID, UserID: userID}).Error
	if err != nil && isUniqueViolation(err) {
		return true, nil
	}
	return err == nil, err
}

// ToggleReaction flips one emoji reaction. Distinct emoji from the same
// viewer coexist on a post; only the matching emoji row is toggled.
func (s *Store) ToggleReaction(ctx context.Context, userID, postID, emoji string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND emoji = ?", postID, userID, emoji).
		Delete(&models.PostReaction{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	err := s.db.WithContext(ctx).Create(&models.PostReaction{PostID: postID, UserID: userID, Emoji: emoji}).Error
	if err != nil && isUniqueViolation(err) {
		return true, nil
	}
	return err == nil, err
}
