package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		post    *Post
		wantErr bool
	}{
		{
			name: "valid post",
			post: &Post{
				ID:        "1",
				Title:     "Elephant in the Sky",
				ImageURL:  "https://example.com/elephant.jpg",
				CloudType: Cumulus,
				CreatedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "untagged legacy post",
			post: &Post{
				Title:     "Old Post",
				ImageURL:  "https://example.com/old.jpg",
				CreatedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "missing title",
			post: &Post{
				ImageURL:  "https://example.com/x.jpg",
				CreatedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "image url not a url",
			post: &Post{
				Title:     "Valid Title",
				ImageURL:  "not a url",
				CreatedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "unknown cloud type",
			post: &Post{
				Title:     "Valid Title",
				ImageURL:  "https://example.com/x.jpg",
				CloudType: "altostratus",
				CreatedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "negative upvotes",
			post: &Post{
				Title:     "Valid Title",
				ImageURL:  "https://example.com/x.jpg",
				CreatedAt: time.Now(),
				Upvotes:   -1,
			},
			wantErr: true,
		},
		{
			name: "zero creation time",
			post: &Post{
				Title:    "Valid Title",
				ImageURL: "https://example.com/x.jpg",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostBeforeCreate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &Post{
		Title:        "Test Post",
		Upvotes:      -2,
		Comments:     []*Comment{{ID: "1"}},
		CommentCount: 1,
	}

	post.BeforeCreate(now)
	assert.Equal(t, now, post.CreatedAt)
	assert.Zero(t, post.Upvotes)
	assert.Empty(t, post.Comments)
	assert.Zero(t, post.CommentCount)

	earlier := now.Add(-time.Hour)
	seeded := &Post{Title: "Seeded", Upvotes: 24, CreatedAt: earlier}
	seeded.BeforeCreate(now)
	assert.Equal(t, earlier, seeded.CreatedAt)
	assert.Equal(t, 24, seeded.Upvotes)
}

func TestPostApply(t *testing.T) {
	now := time.Now()
	title := "New Title"
	upvotes := 3
	cloudType := Cirrus
	post := &Post{Title: "Old", Content: "keep me", CloudType: Cumulus}

	post.Apply(PostPatch{Title: &title, Upvotes: &upvotes, CloudType: &cloudType, UpdatedAt: &now})

	assert.Equal(t, "New Title", post.Title)
	assert.Equal(t, "keep me", post.Content)
	assert.Equal(t, 3, post.Upvotes)
	assert.Equal(t, Cirrus, post.CloudType)
	if assert.NotNil(t, post.UpdatedAt) {
		assert.True(t, now.Equal(*post.UpdatedAt))
	}
}

func TestPostClone(t *testing.T) {
	post := &Post{ID: "1", Comments: []*Comment{{ID: "c1", Content: "hi"}}}
	clone := post.Clone()

	clone.Comments[0].Content = "changed"
	clone.Title = "changed"
	assert.Equal(t, "hi", post.Comments[0].Content)
	assert.Empty(t, post.Title)
	assert.Nil(t, (*Post)(nil).Clone())
}

func TestCloudTypeLabel(t *testing.T) {
	tests := []struct {
		in   CloudType
		want string
	}{
		{Cumulus, "Cumulus - Fluffy cotton-like clouds"},
		{Cumulonimbus, "Cumulonimbus - Thunderstorm clouds"},
		{"", "Other cloud formation"},
		{"mystery", "Other cloud formation"},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Label())
		})
	}
	assert.Equal(t, Other, CloudType("").OrOther())
	assert.Equal(t, Nimbus, Nimbus.OrOther())
	assert.False(t, CloudType("mystery").Valid())
}
