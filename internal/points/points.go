// Package points awards engagement points and serves the community
// leaderboard. The database column is the source of truth; a Redis sorted
// set mirrors it for cheap top-N reads.
package points

import (
	"context"
	"time"

	"github.com/campuslink/backend/internal/cache"
	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/models"
	"go.uber.org/zap"
)

// Point deltas per action.
const (
	DeltaPost     = 5
	DeltaRegister = 3
	DeltaComment  = 2
	DeltaRepost   = 2
	DeltaLike     = 1
)

const leaderboardKey = "points:leaderboard"

// Ledger persists point totals.
type Ledger interface {
	AddPoints(ctx context.Context, userID string, delta int64) error
	TopProfiles(ctx context.Context, limit int) ([]models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Service awards points and answers leaderboard queries.
type Service struct {
	ledger Ledger
	redis  *cache.RedisClient
}

// New creates a points service. redis may be nil; the leaderboard then
// falls back to the database on every read.
func New(ledger Ledger, redis *cache.RedisClient) *Service {
	return &Service{ledger: ledger, redis: redis}
}

// Award adds points to a user, asynchronously. Awards are best effort: a
// failed award is logged and never surfaces to the action that earned it.
func (s *Service) Award(userID string, delta int64, reason string) {
	if userID == "" || delta == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.ledger.AddPoints(ctx, userID, delta); err != nil {
			logger.Log.Warn("points award failed",
				zap.String("user_id", userID),
				zap.Int64("delta", delta),
				zap.String("reason", reason),
				zap.Error(err))
			return
		}
		if s.redis != nil {
			if _, err := s.redis.ZIncrBy(ctx, leaderboardKey, float64(delta), userID); err != nil {
				logger.Log.Warn("leaderboard increment failed",
					zap.String("user_id", userID),
					zap.Error(err))
			}
		}
	}()
}

// Entry is one leaderboard row.
type Entry struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Points   int64  `json:"points"`
	Rank     int    `json:"rank"`
}

// Top returns the highest-scoring users. It reads the Redis sorted set when
// available and resolves names from the database; on any cache miss or
// error it serves straight from the database.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.redis != nil {
		if entries, err := s.topFromRedis(ctx, limit); err == nil && len(entries) > 0 {
			return entries, nil
		} else if err != nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	profiles, err := s.ledger.TopProfiles(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(profiles))
	for i, p := range profiles {
		entries[i] = Entry{
			UserID:   p.ID,
			FullName: p.DisplayName(),
			Points:   p.Points,
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (s *Service) topFromRedis(ctx context.Context, limit int) ([]Entry, error) {
	zs, err := s.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		userID, _ := z.Member.(string)
		if userID == "" {
			continue
		}
		entry := Entry{
			UserID: userID,
			Points: int64(z.Score),
			Rank:   i + 1,
		}
		if p, err := s.ledger.GetProfile(ctx, userID); err == nil {
			entry.FullName = p.DisplayName()
			entry.Points = p.Points
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
