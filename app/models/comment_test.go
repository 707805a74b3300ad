package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommentValidation(t *testing.T) {
	tests := []struct {
		name    string
		comment *Comment
		wantErr bool
	}{
		{
			name: "valid comment",
			comment: &Comment{
				ID:        "1",
				PostID:    "1",
				Content:   "I see it! The trunk is so defined!",
				CreatedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "author too long",
			comment: &Comment{
				PostID:    "1",
				Author:    string(make([]byte, 51)),
				Content:   "This is a valid comment",
				CreatedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "blank content",
			comment: &Comment{
				PostID:    "1",
				Content:   "   ",
				CreatedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "missing post",
			comment: &Comment{
				Content:   "Valid content",
				CreatedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "zero creation time",
			comment: &Comment{
				PostID:  "1",
				Content: "Valid content",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.comment.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommentBeforeCreate(t *testing.T) {
	now := time.Now()
	comment := &Comment{
		PostID:  "1",
		Content: "Test Comment",
	}

	assert.True(t, comment.CreatedAt.IsZero())
	comment.BeforeCreate(now)
	assert.Equal(t, now, comment.CreatedAt)
	assert.Nil(t, comment.UpdatedAt)
}
