package store

import (
	"context"
	"errors"
	"time"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistrationResult is the outcome of an atomic register/cancel call.
// Success=false with a message is the normal shape for seat exhaustion or
// duplicate registration; it is not an error.
type RegistrationResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	SeatsTaken *int   `json:"seats_taken"`
}

// Register atomically claims a seat on an event post. The seat claim is a
// conditional increment (seats_taken < seats), so under N+k concurrent
// registrants for N seats exactly N succeed.
func (s *Store) Register(ctx context.Context, userID, postID string) (RegistrationResult, error) {
	var out RegistrationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serializes registrants, including the same user
		// retrying concurrently; the duplicate check and the seat claim
		// below run against a settled row.
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("post")
			}
			return err
		}
		if !post.IsEvent {
			out = RegistrationResult{Message: "post is not an event"}
			return nil
		}

		var existing models.Registration
		err := tx.Where("post_id = ? AND user_id = ? AND status = ?",
			postID, userID, models.RegistrationStatusRegistered).
			First(&existing).Error
		if err == nil {
			taken := post.SeatsTaken
			out = RegistrationResult{Message: "already registered", SeatsTaken: &taken}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The seat claim. Late registrants see the updated seats_taken
		// once their lock is granted and fail the condition when seats
		// run out.
		res := tx.Model(&models.Post{}).
			Where("id = ? AND (seats IS NULL OR seats_taken < seats)", postID).
			UpdateColumn("seats_taken", gorm.Expr("seats_taken + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			taken := post.SeatsTaken
			out = RegistrationResult{Message: "no seats left", SeatsTaken: &taken}
			return nil
		}

		// A previously cancelled registration flips back to registered.
		reg := models.Registration{
			PostID: postID,
			UserID: userID,
			Status: models.RegistrationStatusRegistered,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     models.RegistrationStatusRegistered,
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&reg).Error
		if err != nil {
			return err
		}

		var taken int
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Pluck("seats_taken", &taken).Error; err != nil {
			return err
		}
		out = RegistrationResult{Success: true, Message: "registered", SeatsTaken: &taken}
		return nil
	})
	return out, err
}

// CancelRegistration atomically releases the viewer's seat.
func (s *Store) CancelRegistration(ctx context.Context, userID, postID string) (RegistrationResult, error) {
	var out RegistrationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Registration{}).
			Where("post_id = ? AND user_id = ? AND status = ?",
				postID, userID, models.RegistrationStatusRegistered).
			Updates(map[string]interface{}{
				"status":     models.RegistrationStatusCancelled,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out = RegistrationResult{Message: "not registered"}
			return nil
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ? AND seats_taken > 0", postID).
			UpdateColumn("seats_taken", gorm.Expr("seats_taken - 1")).Error; err != nil {
			return err
		}

		var taken int
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Pluck("seats_taken", &taken).Error; err != nil {
			return err
		}
		out = RegistrationResult{Success: true, Message: "cancelled", SeatsTaken: &taken}
		return nil
	})
	return out, err
}

// ViewerRegistrations returns the batch posts the viewer is registered for.
func (s *Store) ViewerRegistrations(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	if viewerID == "" || len(postIDs) == 0 {
		return map[string]bool{}, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Registration{}).
		Where("user_id = ? AND status = ? AND post_id IN ?",
			viewerID, models.RegistrationStatusRegistered, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	registered := make(map[string]bool, len(ids))
	for _, id := range ids {
		registered[id] = true
	}
	return registered, nil
}
