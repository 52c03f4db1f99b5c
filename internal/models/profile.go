package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile represents a student account. Authentication itself is handled
// upstream (JWT bearer tokens); this row carries the community-facing data.
type Profile struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`
	Campus   string `json:"campus"`
	City     string `json:"city"`

	// Gamification score, mirrored from the points store. The Redis
	// leaderboard is the fast path; this column is the durable copy.
	Points int64 `gorm:"default:0" json:"points"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName returns the best human-readable name for the profile.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// Follow is a directed edge: follower sees followee's posts on the
// chronological tab. At most one edge per (follower, followee) pair.
type Follow struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string    `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FolloweeID string    `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
