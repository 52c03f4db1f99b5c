// Package seed fills the database with realistic development data.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var campuses = []string{"North Campus", "South Campus", "City Campus", "Riverside", "Tech Park"}

var cities = []string{"Istanbul", "Ankara", "Izmir", "Bursa", "Eskisehir"}

var categories = []string{"music", "sports", "tech", "arts", "volunteering", "career", "gaming", "food"}

var fields = []string{"computer science", "medicine", "law", "architecture", "economics", "psychology"}

// Seeder handles database seeding operations.
type Seeder struct {
	db    *gorm.DB
	store *store.Store
}

// NewSeeder creates a seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, store: store.New(db)}
}

// SeedDev seeds the development database with realistic data.
func (s *Seeder) SeedDev() error {
	return s.seed(50, 300)
}

// SeedTest seeds a small deterministic dataset for integration tests.
func (s *Seeder) SeedTest() error {
	return s.seed(5, 20)
}

func (s *Seeder) seed(userCount, postCount int) error {
	log := logger.Log

	log.Info("creating profiles", zap.Int("count", userCount))
	profiles, err := s.seedProfiles(userCount)
	if err != nil {
		return fmt.Errorf("failed to seed profiles: %w", err)
	}

	log.Info("creating follow graph")
	if err := s.seedFollows(profiles); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log.Info("creating posts and events", zap.Int("count", postCount))
	posts, err := s.seedPosts(profiles, postCount)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log.Info("creating engagement")
	if err := s.seedEngagement(profiles, posts); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	log.Info("creating comments")
	if err := s.seedComments(profiles, posts); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	return nil
}

// Clean removes all seed data. Deletes in reverse dependency order.
func (s *Seeder) Clean() error {
	tables := []string{
		"poll_votes", "poll_options", "polls",
		"registrations", "post_reactions", "post_bookmarks",
		"post_reposts", "post_likes", "post_tags",
		"comments", "reports", "posts",
		"follows", "profiles",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedProfiles(count int) ([]models.Profile, error) {
	var existing int64
	s.db.Model(&models.Profile{}).Where("email LIKE '%@example.com'").Count(&existing)
	if existing >= int64(count) {
		var profiles []models.Profile
		if err := s.db.Find(&profiles).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("profiles already seeded", zap.Int("count", len(profiles)))
		return profiles, nil
	}

	profiles := make([]models.Profile, 0, count)
	for i := 0; i < count; i++ {
		p := models.Profile{
			Email:    fmt.Sprintf("%s%d@example.com", gofakeit.Username(), i),
			FullName: gofakeit.Name(),
			Campus:   campuses[rand.Intn(len(campuses))],
			City:     cities[rand.Intn(len(cities))],
		}
		if err := s.db.Create(&p).Error; err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *Seeder) seedFollows(profiles []models.Profile) error {
	ctx := context.Background()
	for _, p := range profiles {
		followCount := rand.Intn(8) + 2
		for i := 0; i < followCount; i++ {
			target := profiles[rand.Intn(len(profiles))]
			if err := s.store.Follow(ctx, p.ID, target.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(profiles []models.Profile, count int) ([]models.Post, error) {
	ctx := context.Background()
	posts := make([]models.Post, 0, count)

	for i := 0; i < count; i++ {
		author := profiles[rand.Intn(len(profiles))]
		post := models.Post{
			UserID:     author.ID,
			Content:    gofakeit.HipsterSentence(),
			Campus:     author.Campus,
			City:       author.City,
			Categories: models.StringArray{categories[rand.Intn(len(categories))]},
			Fields:     models.StringArray{fields[rand.Intn(len(fields))]},
			CreatedAt:  time.Now().Add(-time.Duration(rand.Intn(72)) * time.Hour),
		}

		// Roughly one in five posts is an event, half of those capacity-bounded.
		if rand.Intn(5) == 0 {
			post.IsEvent = true
			eventAt := time.Now().Add(time.Duration(rand.Intn(14*24)) * time.Hour)
			post.EventAt = &eventAt
			post.LocationName = gofakeit.Company() + " Hall"
			if rand.Intn(2) == 0 {
				seats := rand.Intn(40) + 10
				post.Seats = &seats
			}
		}

		if err := s.store.CreatePost(ctx, &post, nil); err != nil {
			return nil, err
		}

		// Some non-event posts carry a poll.
		if !post.IsEvent && rand.Intn(8) == 0 {
			options := []string{gofakeit.Word(), gofakeit.Word(), gofakeit.Word()}
			if _, err := s.store.CreatePoll(ctx, post.ID, gofakeit.Question(), options); err != nil {
				return nil, err
			}
		}

		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(profiles []models.Profile, posts []models.Post) error {
	ctx := context.Background()
	for _, post := range posts {
		likers := rand.Intn(10)
		for i := 0; i < likers; i++ {
			user := profiles[rand.Intn(len(profiles))]
			if _, err := s.store.ToggleLike(ctx, user.ID, post.ID); err != nil {
				return err
			}
		}
		if rand.Intn(3) == 0 {
			user := profiles[rand.Intn(len(profiles))]
			if _, err := s.store.ToggleRepost(ctx, user.ID, post.ID); err != nil {
				return err
			}
		}
		if post.IsEvent && post.Seats != nil {
			registrants := rand.Intn(*post.Seats)
			for i := 0; i < registrants; i++ {
				user := profiles[rand.Intn(len(profiles))]
				if _, err := s.store.Register(ctx, user.ID, post.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Seeder) seedComments(profiles []models.Profile, posts []models.Post) error {
	ctx := context.Background()
	for _, post := range posts {
		commentCount := rand.Intn(4)
		for i := 0; i < commentCount; i++ {
			user := profiles[rand.Intn(len(profiles))]
			comment := &models.Comment{
				PostID:  post.ID,
				UserID:  user.ID,
				Content: gofakeit.Sentence(8),
			}
			if err := s.store.CreateComment(ctx, comment); err != nil {
				return err
			}
		}
	}
	return nil
}
