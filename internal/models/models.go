package models

import (
	"time"

	"gorm.io/gorm"

	"lorewiki-backend/internal/authorization"
)

type User struct {
	ID        uint                   `json:"id" gorm:"primarykey"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	DeletedAt gorm.DeletedAt         `json:"-" gorm:"index"`
	Username  string                 `json:"username" gorm:"uniqueIndex;not null"`
	Email     string                 `json:"email" gorm:"uniqueIndex;not null"`
	Password  string                 `json:"-" gorm:"not null"`
	Role      authorization.UserRole `json:"role" gorm:"type:varchar(20);default:'editor'"`
}

// Page is one addressable wiki page. Title is stored in DB-key form
// (underscores), unique within its namespace. RandomKey is a uniform
// [0,1) sort key assigned at creation; random selection scans it with an
// index instead of ordering the whole namespace by random().
type Page struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	Namespace  int            `json:"namespace" gorm:"not null;default:0;uniqueIndex:idx_pages_ns_title,priority:1;index:idx_pages_ns_random,priority:1"`
	Title      string         `json:"title" gorm:"not null;uniqueIndex:idx_pages_ns_title,priority:2"`
	IsRedirect bool           `json:"is_redirect" gorm:"not null;default:false"`
	RandomKey  float64        `json:"-" gorm:"not null;default:0;index:idx_pages_ns_random,priority:2"`
	Revisions  []Revision     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Revision rows are immutable history; a page's current content is its
// newest revision.
type Revision struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	PageID    uint      `json:"page_id" gorm:"not null;index:idx_revisions_page_created,priority:1"`
	AuthorID  uint      `json:"author_id"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content" gorm:"type:text;not null"`
}

// FileAsset describes the stored upload backing a File-namespace page.
// MimeMajor holds the media type before the slash ("image", "video") so
// type-restricted queries stay index-friendly.
type FileAsset struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	PageID     uint           `json:"page_id" gorm:"uniqueIndex;not null"`
	StoredName string         `json:"stored_name" gorm:"not null"`
	MimeType   string         `json:"mime_type"`
	MimeMajor  string         `json:"mime_major" gorm:"index"`
	Size       int64          `json:"size"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	UploaderID uint           `json:"uploader_id"`
}

// Plugin is the persisted activation state for a compiled-in plugin.
type Plugin struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;not null"`
	Name            string         `json:"name"`
	Version         string         `json:"version"`
	Active          bool           `json:"active" gorm:"not null;default:false"`
	LastActivatedAt *time.Time     `json:"last_activated_at"`
}

type Setting struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Key       string    `json:"key" gorm:"uniqueIndex;not null"`
	Value     string    `json:"value" gorm:"type:text"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=12,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

type CreatePageRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
	Summary string `json:"summary" binding:"max=500"`
}

type UpdatePageRequest struct {
	Content string `json:"content" binding:"required"`
	Summary string `json:"summary" binding:"max=500"`
}

// PageDetail is the API shape for a page together with its current
// revision.
type PageDetail struct {
	Page     Page      `json:"page"`
	Revision *Revision `json:"revision,omitempty"`
	Prefixed string    `json:"prefixed_title"`
}
