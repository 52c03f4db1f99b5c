package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a threaded comment on an event post. ParentID nests replies.
type Comment struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string         `gorm:"not null;index" json:"post_id"`
	UserID    string         `gorm:"not null;index" json:"user_id"`
	Author    Profile        `gorm:"foreignKey:UserID" json:"author,omitempty"`
	ParentID  *string        `gorm:"type:uuid;index" json:"parent_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Report target types
const (
	ReportTargetPost    = "post"
	ReportTargetComment = "comment"
)

// Report is a user flag on a post or comment, reviewed out of band.
type Report struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"not null;index;uniqueIndex:idx_reports_unique" json:"user_id"`
	TargetType string    `gorm:"not null;uniqueIndex:idx_reports_unique" json:"target_type"`
	TargetID   string    `gorm:"not null;uniqueIndex:idx_reports_unique" json:"target_id"`
	Reason     string    `gorm:"not null" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
