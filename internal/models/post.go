// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post represents a blog post owned by a single user.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	IsDraft     bool       `gorm:"not null;default:false;index:idx_posts_visibility,priority:1" json:"is_draft"`
	PublishedAt *time.Time `gorm:"index:idx_posts_visibility,priority:2" json:"published_at"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Visibility names the publication state of a post at a point in time.
type Visibility string

const (
	VisibilityActive    Visibility = "active"
	VisibilityDraft     Visibility = "draft"
	VisibilityScheduled Visibility = "scheduled"
	// VisibilityUnpublished is a non-draft post without a publish time.
	// Validated writes never produce it.
	VisibilityUnpublished Visibility = "unpublished"
)

// IsActive reports whether the post is published and visible at now.
func IsActive(p *Post, now time.Time) bool {
	return !p.IsDraft && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// IsDraft reports whether the post is explicitly unpublished.
func IsDraft(p *Post) bool {
	return p.IsDraft
}

// IsScheduled reports whether the post will become visible after now.
func IsScheduled(p *Post, now time.Time) bool {
	return !p.IsDraft && p.PublishedAt != nil && p.PublishedAt.After(now)
}

// VisibilityAt classifies the post at now.
func VisibilityAt(p *Post, now time.Time) Visibility {
	switch {
	case IsDraft(p):
		return VisibilityDraft
	case IsActive(p, now):
		return VisibilityActive
	case IsScheduled(p, now):
		return VisibilityScheduled
	default:
		return VisibilityUnpublished
	}
}
