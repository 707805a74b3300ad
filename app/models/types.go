package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Post represents one cloud sighting.
type Post struct {
	ID           string     `json:"id"`
	Title        string     `json:"title" validate:"required,max=200"`
	Content      string     `json:"content"`
	ImageURL     string     `json:"imageUrl" validate:"required,url"`
	CloudType    CloudType  `json:"cloudType" validate:"omitempty,cloudtype"`
	CreatedAt    time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	Upvotes      int        `json:"upvotes" validate:"gte=0"`
	Comments     []*Comment `json:"comments,omitempty" validate:"-"`
	CommentCount int        `json:"commentCount"`
}

// Comment represents a reply attached to exactly one Post.
type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id" validate:"required"`
	Author    string     `json:"author,omitempty" validate:"max=50"`
	Content   string     `json:"content" validate:"required,max=1000"`
	CreatedAt time.Time  `json:"created_at" validate:"required"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// PostPatch carries the mutable fields of a partial post update. Nil fields
// are left untouched by the store.
type PostPatch struct {
	Title     *string    `json:"title,omitempty"`
	Content   *string    `json:"content,omitempty"`
	ImageURL  *string    `json:"imageUrl,omitempty"`
	CloudType *CloudType `json:"cloudType,omitempty"`
	Upvotes   *int       `json:"upvotes,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
