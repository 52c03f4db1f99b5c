package store

import (
	"context"
	"errors"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetProfile loads one profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("profile")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates a profile or updates its mutable fields.
func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "campus", "city", "updated_at"}),
	}).Create(p).Error
}

// AddPoints adds a delta to a profile's point total. The column update is
// atomic, concurrent awards never lose increments.
func (s *Store) AddPoints(ctx context.Context, userID string, delta int64) error {
	return s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}

// TopProfiles returns profiles ordered by descending points.
func (s *Store) TopProfiles(ctx context.Context, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 10
	}
	var profiles []models.Profile
	err := s.db.WithContext(ctx).
		Order("points DESC, created_at ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}
