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

// PollView is a poll with its options, tallies, and the viewer's vote.
type PollView struct {
	Poll       models.Poll         `json:"poll"`
	Options    []models.PollOption `json:"options"`
	Votes      map[string]int      `json:"votes"` // option ID -> tally
	MyOptionID string              `json:"my_option_id,omitempty"`
}

// CreatePoll attaches a poll with options to a post.
func (s *Store) CreatePoll(ctx context.Context, postID, question string, options []string) (*models.Poll, error) {
	poll := models.Poll{PostID: postID, Question: question}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		for _, text := range options {
			if err := tx.Create(&models.PollOption{PollID: poll.ID, Text: text}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// PollForPost loads the poll attached to a post, or nil when there is none.
func (s *Store) PollForPost(ctx context.Context, postID, viewerID string) (*PollView, error) {
	var poll models.Poll
	err := s.db.WithContext(ctx).First(&poll, "post_id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	view := PollView{Poll: poll, Votes: map[string]int{}}
	if err := s.db.WithContext(ctx).
		Where("poll_id = ?", poll.ID).
		Order("created_at").
		Find(&view.Options).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		OptionID string
		N        int
	}
	err = s.db.WithContext(ctx).
		Model(&models.PollVote{}).
		Select("option_id, count(*) as n").
		Where("poll_id = ?", poll.ID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		view.Votes[r.OptionID] = r.N
	}

	if viewerID != "" {
		var vote models.PollVote
		err := s.db.WithContext(ctx).
			Where("poll_id = ? AND user_id = ?", poll.ID, viewerID).
			First(&vote).Error
		if err == nil {
			view.MyOptionID = vote.OptionID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return &view, nil
}

// CastVote records the viewer's vote. A prior vote for a different option
// is replaced in place, never duplicated. Returns the option the replaced
// vote pointed at ("" for a first vote) so callers can move tallies:
// decrement the old option, increment the new one.
func (s *Store) CastVote(ctx context.Context, userID, pollID, optionID string) (previousOptionID string, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var option models.PollOption
		if err := tx.First(&option, "id = ? AND poll_id = ?", optionID, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("poll option")
			}
			return err
		}

		var prior models.PollVote
		err := tx.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&prior).Error
		if err == nil {
			if prior.OptionID != optionID {
				previousOptionID = prior.OptionID
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		vote := models.PollVote{PollID: pollID, OptionID: optionID, UserID: userID}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"option_id":  optionID,
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&vote).Error
	})
	return previousOptionID, err
}
