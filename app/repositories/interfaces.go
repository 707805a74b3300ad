package repositories

import (
	"context"
	"time"

	"cloudcanvas/app/models"
)

// SortOrder selects the creation-time order of a comment listing.
type SortOrder int

const (
	// NewestFirst orders by created_at descending.
	NewestFirst SortOrder = iota
	// OldestFirst orders by created_at ascending.
	OldestFirst
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, order SortOrder) ([]*models.Comment, error)
	Update(ctx context.Context, id string, content string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByPost(ctx context.Context, postID string) error
}

// Store bundles the post and comment collections of one backend.
type Store interface {
	Posts() PostRepository
	Comments() CommentRepository
	Close() error
}
