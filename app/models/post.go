package models

import (
	"errors"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.Upvotes < 0 {
		return errors.New("upvotes cannot be negative")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation. Embedded
// comments are dropped; they are stored in their own collection.
func (p *Post) BeforeCreate(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Upvotes < 0 {
		p.Upvotes = 0
	}
	p.Comments = nil
	p.CommentCount = 0
}

// Clone returns a deep copy of the post, including embedded comments.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	if p.Comments != nil {
		c.Comments = make([]*Comment, len(p.Comments))
		for i, comment := range p.Comments {
			c.Comments[i] = comment.Clone()
		}
	}
	return &c
}

// Apply copies every non-nil field of the patch onto the post.
func (p *Post) Apply(patch PostPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.CloudType != nil {
		p.CloudType = *patch.CloudType
	}
	if patch.Upvotes != nil {
		p.Upvotes = *patch.Upvotes
	}
	if patch.UpdatedAt != nil {
		t := *patch.UpdatedAt
		p.UpdatedAt = &t
	}
}
