package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Split by comma (simple case - doesn't handle quoted values with commas)
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Post is a feed item: a microblog post, a reply, or an event. Events are
// posts with IsEvent set and the event fields populated. Rows are immutable
// after creation except for seat accounting and moderation-driven removal.
type Post struct {
	ID      string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string  `gorm:"not null;index" json:"user_id"`
	Author  Profile `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Content string  `gorm:"type:text;not null" json:"content"`

	MediaURLs    StringArray `gorm:"type:text[]" json:"media_urls"`
	ReplyToID    *string     `gorm:"type:uuid;index" json:"reply_to_id"`
	QuotedPostID *string     `gorm:"type:uuid" json:"quoted_post_id"`

	// Targeting attributes used as feed filters
	Campus     string      `gorm:"index" json:"campus"`
	City       string      `gorm:"index" json:"city"`
	Categories StringArray `gorm:"type:text[]" json:"categories"`
	Promos     StringArray `gorm:"type:text[]" json:"promos"`
	Fields     StringArray `gorm:"type:text[]" json:"fields"`

	// Event attributes
	IsEvent      bool       `gorm:"default:false;index" json:"is_event"`
	EventAt      *time.Time `json:"event_at"`
	LocationName string     `json:"location_name"`
	LinkURL      string     `json:"link_url"`

	// Seat accounting for capacity-bounded events. SeatsTaken is only
	// ever moved by the atomic registration operation.
	Seats      *int `json:"seats"`
	SeatsTaken int  `gorm:"default:0" json:"seats_taken"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostLike records a like toggle. Uniqueness: one row per (user, post).
type PostLike struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"post_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostRepost records a repost toggle. Uniqueness: one row per (user, post).
type PostRepost struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_reposts_pair" json:"post_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_post_reposts_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostBookmark records a bookmark toggle. Uniqueness: one row per (user, post).
type PostBookmark struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_bookmarks_pair" json:"post_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_post_bookmarks_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostReaction records an emoji reaction. A user may hold several distinct
// emoji on the same post, so uniqueness includes the emoji.
type PostReaction struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_reactions_triple" json:"post_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_post_reactions_triple" json:"user_id"`
	Emoji     string    `gorm:"not null;uniqueIndex:idx_post_reactions_triple" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// PostTag stores a hashtag extracted from post content on creation.
type PostTag struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_tags_pair" json:"post_id"`
	Tag       string    `gorm:"not null;index;uniqueIndex:idx_post_tags_pair" json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// Registration statuses
const (
	RegistrationStatusRegistered = "registered"
	RegistrationStatusCancelled  = "cancelled"
)

// Registration ties a user to an event post. Seat capacity is enforced by
// the store's atomic registration operation, never by callers.
type Registration struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_registrations_pair" json:"post_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_registrations_pair" json:"user_id"`
	Status    string    `gorm:"not null;default:registered" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
