// Package memory holds the in-process store used for demos and tests. Nothing
// is persisted; every record lives in maps guarded by one mutex.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"github.com/google/uuid"
)

// Store implements repositories.Store in memory. Posts are listed in
// insertion order and carry their comments embedded.
type Store struct {
	mutex        sync.RWMutex
	posts        map[string]*models.Post
	postOrder    []string
	comments     map[string]*models.Comment
	commentOrder []string
	nextID       int
	now          func() time.Time
	newID        func() string

	postRepo    *PostRepository
	commentRepo *CommentRepository
}

// PostRepository is the post collection of a memory Store.
type PostRepository struct{ s *Store }

// CommentRepository is the comment collection of a memory Store.
type CommentRepository struct{ s *Store }

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{
		now:      time.Now,
		newID:    uuid.NewString,
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
		nextID:   1,
	}
	s.postRepo = &PostRepository{s: s}
	s.commentRepo = &CommentRepository{s: s}
	return s
}

func (s *Store) Posts() repositories.PostRepository       { return s.postRepo }
func (s *Store) Comments() repositories.CommentRepository { return s.commentRepo }
func (s *Store) Close() error                             { return nil }

// commentsOf returns copies of a post's comments. Callers hold the lock.
func (s *Store) commentsOf(postID string, order repositories.SortOrder) []*models.Comment {
	comments := []*models.Comment{}
	for _, id := range s.commentOrder {
		if c := s.comments[id]; c.PostID == postID {
			comments = append(comments, c.Clone())
		}
	}
	repositories.OrderComments(comments, order)
	return comments
}

func (s *Store) withComments(post *models.Post) *models.Post {
	cp := post.Clone()
	cp.Comments = s.commentsOf(post.ID, repositories.NewestFirst)
	cp.CommentCount = len(cp.Comments)
	return cp
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// PostRepository implementation
func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	created := post.Clone()
	created.BeforeCreate(r.s.now())
	created.ID = strconv.Itoa(r.s.nextID)
	r.s.nextID++

	r.s.posts[created.ID] = created
	r.s.postOrder = append(r.s.postOrder, created.ID)
	return r.s.withComments(created), nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	post, exists := r.s.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return r.s.withComments(post), nil
}

func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(r.s.postOrder))
	for _, id := range r.s.postOrder {
		posts = append(posts, r.s.withComments(r.s.posts[id]))
	}
	return posts, nil
}

func (r *PostRepository) Update(ctx context.Context, id string, patch models.PostPatch) error {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	post, exists := r.s.posts[id]
	if !exists {
		return repositories.ErrNotFound
	}
	post.Apply(patch)
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	if _, exists := r.s.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(r.s.posts, id)
	r.s.postOrder = removeID(r.s.postOrder, id)
	return nil
}

// CommentRepository implementation
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	created := comment.Clone()
	created.BeforeCreate(r.s.now())
	created.ID = r.s.newID()

	r.s.comments[created.ID] = created
	r.s.commentOrder = append(r.s.commentOrder, created.ID)
	return created.Clone(), nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	comment, exists := r.s.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return comment.Clone(), nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string, order repositories.SortOrder) ([]*models.Comment, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	return r.s.commentsOf(postID, order), nil
}

func (r *CommentRepository) Update(ctx context.Context, id string, content string, at time.Time) error {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	comment, exists := r.s.comments[id]
	if !exists {
		return repositories.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = &at
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	if _, exists := r.s.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(r.s.comments, id)
	r.s.commentOrder = removeID(r.s.commentOrder, id)
	return nil
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) error {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	kept := r.s.commentOrder[:0]
	for _, id := range r.s.commentOrder {
		if r.s.comments[id].PostID == postID {
			delete(r.s.comments, id)
			continue
		}
		kept = append(kept, id)
	}
	r.s.commentOrder = kept
	return nil
}
