package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BeforeCreate hooks assign UUIDs client-side so the models work on both
// PostgreSQL and the embedded sqlite driver.

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func (p *Profile) BeforeCreate(*gorm.DB) error      { ensureID(&p.ID); return nil }
func (f *Follow) BeforeCreate(*gorm.DB) error       { ensureID(&f.ID); return nil }
func (p *Post) BeforeCreate(*gorm.DB) error         { ensureID(&p.ID); return nil }
func (l *PostLike) BeforeCreate(*gorm.DB) error     { ensureID(&l.ID); return nil }
func (r *PostRepost) BeforeCreate(*gorm.DB) error   { ensureID(&r.ID); return nil }
func (b *PostBookmark) BeforeCreate(*gorm.DB) error { ensureID(&b.ID); return nil }
func (r *PostReaction) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
func (t *PostTag) BeforeCreate(*gorm.DB) error      { ensureID(&t.ID); return nil }
func (r *Registration) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
func (p *Poll) BeforeCreate(*gorm.DB) error         { ensureID(&p.ID); return nil }
func (o *PollOption) BeforeCreate(*gorm.DB) error   { ensureID(&o.ID); return nil }
func (v *PollVote) BeforeCreate(*gorm.DB) error     { ensureID(&v.ID); return nil }
func (c *Comment) BeforeCreate(*gorm.DB) error      { ensureID(&c.ID); return nil }
func (r *Report) BeforeCreate(*gorm.DB) error       { ensureID(&r.ID); return nil }
