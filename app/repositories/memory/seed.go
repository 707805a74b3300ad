package memory

import (
	"context"
	"fmt"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"
)

type seedComment struct {
	author string
	text   string
}

type seedPost struct {
	title    string
	content  string
	imageURL string
	age      time.Duration
	upvotes  int
	comments []seedComment
}

var seedPosts = []seedPost{
	{
		title:    "Elephant in the Sky",
		content:  "I spotted this cloud that looks exactly like an elephant with its trunk raised!",
		imageURL: "https://images.unsplash.com/photo-1517685352821-92cf88aee5a5?ixlib=rb-1.2.1&auto=format&fit=crop&w=1350&q=80",
		age:      2 * time.Hour,
		upvotes:  24,
		comments: []seedComment{
			{"cloudlover", "I see it! The trunk is so defined!"},
			{"skygazer", "Amazing find! I love elephant clouds."},
		},
	},
	{
		title:    "Dragon Breathing Fire",
		content:  "This sunset cloud formation looks like a dragon breathing fire across the sky!",
		imageURL: "https://images.unsplash.com/photo-1534088568595-a066f410bcda?ixlib=rb-1.2.1&auto=format&fit=crop&w=1351&q=80",
		age:      30 * time.Minute,
		upvotes:  42,
		comments: []seedComment{
			{"dragonspotter", "That's definitely a dragon! Great capture!"},
		},
	},
	{
		title:    "Fluffy Sheep Herd",
		content:  "A whole field of fluffy sheep clouds floating by this afternoon.",
		imageURL: "https://images.unsplash.com/photo-1505533321630-975218a5f66f?ixlib=rb-1.2.1&auto=format&fit=crop&w=1350&q=80",
		age:      24 * time.Hour,
		upvotes:  18,
	},
	{
		title:    "Heart-Shaped Cloud",
		content:  "Spotted this perfect heart in the sky today! Love is in the air!",
		imageURL: "https://images.unsplash.com/photo-1451187580459-43490279c0fa?ixlib=rb-1.2.1&auto=format&fit=crop&w=1352&q=80",
		age:      5 * time.Hour,
		upvotes:  56,
		comments: []seedComment{
			{"loveclouds", "So romantic!"},
			{"skyheart", "Perfect shape!"},
			{"cloudromantic", "The universe is sending love!"},
		},
	},
	{
		title:    "Face in the Cumulus",
		content:  "Can you see the face? It was staring down at me for almost an hour!",
		imageURL: "https://images.unsplash.com/photo-1536514498073-50e69d39c6cf?ixlib=rb-1.2.1&auto=format&fit=crop&w=1350&q=80",
		age:      12 * time.Hour,
		upvotes:  31,
		comments: []seedComment{
			{"faceseeker", "I can totally see it! Looks like an old man."},
		},
	},
	{
		title:    "Whale Swimming in the Blue",
		content:  "This massive cloud reminded me of a blue whale gracefully swimming through the ocean.",
		imageURL: "https://images.unsplash.com/photo-1504608524841-42fe6f032b4b?ixlib=rb-1.2.1&auto=format&fit=crop&w=1350&q=80",
		age:      48 * time.Hour,
		upvotes:  29,
	},
}

// SeedPosts returns the demo posts with timestamps relative to now. Comments
// are embedded and stamped with now.
func SeedPosts(now time.Time) []*models.Post {
	posts := make([]*models.Post, 0, len(seedPosts))
	for _, sp := range seedPosts {
		post := &models.Post{
			Title:     sp.title,
			Content:   sp.content,
			ImageURL:  sp.imageURL,
			CreatedAt: now.Add(-sp.age),
			Upvotes:   sp.upvotes,
		}
		for _, sc := range sp.comments {
			post.Comments = append(post.Comments, &models.Comment{
				Author:    sc.author,
				Content:   sc.text,
				CreatedAt: now,
			})
		}
		post.CommentCount = len(post.Comments)
		posts = append(posts, post)
	}
	return posts
}

// Seed writes posts and their embedded comments into store and returns the
// created posts. Comments are inserted last-to-first so newest-first listings
// show them in their given order.
func Seed(ctx context.Context, store repositories.Store, posts []*models.Post) ([]*models.Post, error) {
	created := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		p, err := store.Posts().Create(ctx, post)
		if err != nil {
			return created, fmt.Errorf("failed to seed post %q: %w", post.Title, err)
		}
		for i := len(post.Comments) - 1; i >= 0; i-- {
			comment := post.Comments[i].Clone()
			comment.ID = ""
			comment.PostID = p.ID
			if _, err := store.Comments().Create(ctx, comment); err != nil {
				return created, fmt.Errorf("failed to seed comment on %q: %w", post.Title, err)
			}
		}
		created = append(created, p)
	}
	return created, nil
}

// NewSeededStore returns a memory store holding the demo posts.
func NewSeededStore(ctx context.Context, now time.Time) (*Store, error) {
	s := NewStore()
	if _, err := Seed(ctx, s, SeedPosts(now)); err != nil {
		return nil, err
	}
	return s, nil
}
