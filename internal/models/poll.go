package models

import "time"

// Poll belongs to exactly one post.
type Poll struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"not null;uniqueIndex" json:"post_id"`
	Question  string    `gorm:"not null" json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

// PollOption belongs to exactly one poll.
type PollOption struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PollID    string    `gorm:"not null;index" json:"poll_id"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PollVote holds at most one row per (poll, user). Casting a vote for a
// different option updates OptionID in place (upsert-replace), it never
// adds a second row.
type PollVote struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PollID    string    `gorm:"not null;index;uniqueIndex:idx_poll_votes_pair" json:"poll_id"`
	OptionID  string    `gorm:"not null;index" json:"option_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_poll_votes_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
