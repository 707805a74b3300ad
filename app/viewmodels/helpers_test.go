package viewmodels

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/repositories/memory"

	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	errBroken = fmt.Errorf("%w: connection reset", repositories.ErrStoreFailure)
)

func fixedClock() time.Time { return testNow }

// faultyStore wraps a memory store and fails the operations named in fail.
type faultyStore struct {
	*memory.Store
	fail map[string]bool
}

func newFaultyStore(t *testing.T) *faultyStore {
	s, err := memory.NewSeededStore(context.Background(), testNow)
	require.NoError(t, err)
	return &faultyStore{Store: s, fail: map[string]bool{}}
}

func (f *faultyStore) Posts() repositories.PostRepository {
	return faultyPosts{PostRepository: f.Store.Posts(), fail: f.fail}
}

func (f *faultyStore) Comments() repositories.CommentRepository {
	return faultyComments{CommentRepository: f.Store.Comments(), fail: f.fail}
}

type faultyPosts struct {
	repositories.PostRepository
	fail map[string]bool
}

func (p faultyPosts) List(ctx context.Context) ([]*models.Post, error) {
	if p.fail["posts.list"] {
		return nil, errBroken
	}
	posts, err := p.PostRepository.List(ctx)
	if p.fail["posts.unembed"] {
		for _, post := range posts {
			post.Comments = nil
		}
	}
	return posts, err
}

func (p faultyPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if p.fail["posts.get"] {
		return nil, errBroken
	}
	return p.PostRepository.GetByID(ctx, id)
}

func (p faultyPosts) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if p.fail["posts.create"] {
		return nil, errBroken
	}
	return p.PostRepository.Create(ctx, post)
}

func (p faultyPosts) Update(ctx context.Context, id string, patch models.PostPatch) error {
	if p.fail["posts.update"] {
		return errBroken
	}
	return p.PostRepository.Update(ctx, id, patch)
}

func (p faultyPosts) Delete(ctx context.Context, id string) error {
	if p.fail["posts.delete"] {
		return errBroken
	}
	return p.PostRepository.Delete(ctx, id)
}

type faultyComments struct {
	repositories.CommentRepository
	fail map[string]bool
}

func (c faultyComments) ListByPost(ctx context.Context, postID string, order repositories.SortOrder) ([]*models.Comment, error) {
	if c.fail["comments.list"] {
		return nil, errBroken
	}
	return c.CommentRepository.ListByPost(ctx, postID, order)
}

func (c faultyComments) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if c.fail["comments.create"] {
		return nil, errBroken
	}
	return c.CommentRepository.Create(ctx, comment)
}

func (c faultyComments) Update(ctx context.Context, id, content string, at time.Time) error {
	if c.fail["comments.update"] {
		return errBroken
	}
	return c.CommentRepository.Update(ctx, id, content, at)
}

func (c faultyComments) Delete(ctx context.Context, id string) error {
	if c.fail["comments.delete"] {
		return errBroken
	}
	return c.CommentRepository.Delete(ctx, id)
}

func (c faultyComments) DeleteByPost(ctx context.Context, postID string) error {
	if c.fail["comments.deleteByPost"] {
		return errBroken
	}
	return c.CommentRepository.DeleteByPost(ctx, postID)
}

// countingConfirmer records the prompts it was shown.
type countingConfirmer struct {
	answer  bool
	prompts []string
}

func (c *countingConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

func isNotFound(err error) bool { return errors.Is(err, repositories.ErrNotFound) }
