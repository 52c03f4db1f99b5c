package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/campuslink/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection.
// DATABASE_DRIVER=sqlite selects an embedded database for local development;
// everything else goes through PostgreSQL.
func Initialize() error {
	var dialector gorm.Dialector

	if os.Getenv("DATABASE_DRIVER") == "sqlite" {
		path := os.Getenv("DATABASE_PATH")
		if path == "" {
			path = "campuslink.db"
		}
		dialector = sqlite.Open(path)
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			// Fallback to individual components
			host := getEnvOrDefault("DB_HOST", "localhost")
			port := getEnvOrDefault("DB_PORT", "5432")
			user := getEnvOrDefault("DB_USER", "postgres")
			password := getEnvOrDefault("DB_PASSWORD", "")
			dbname := getEnvOrDefault("DB_NAME", "campuslink")
			sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

			databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				host, port, user, password, dbname, sslmode)
		}
		dialector = postgres.Open(databaseURL)
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if DB.Dialector.Name() == "postgres" {
		if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
		}
	}

	err := DB.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.Post{},
		&models.PostLike{},
		&models.PostRepost{},
		&models.PostBookmark{},
		&models.PostReaction{},
		&models.PostTag{},
		&models.Registration{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.Comment{},
		&models.Report{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if DB.Dialector.Name() == "postgres" {
		createIndexes()
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes beyond what the struct tags declare
func createIndexes() {
	// Feed query paths: chronological scans and author-set constrained scans
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_reply_to ON posts (reply_to_id) WHERE reply_to_id IS NOT NULL")

	// Array-overlap filters on targeting attributes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_categories ON posts USING GIN (categories)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_promos ON posts USING GIN (promos)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_fields ON posts USING GIN (fields)")

	// Batched signal aggregation
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_post_reactions_post_emoji ON post_reactions (post_id, emoji)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_registrations_post_status ON registrations (post_id, status)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_poll_votes_option ON poll_votes (option_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)")
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
