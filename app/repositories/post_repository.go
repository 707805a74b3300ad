package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloudcanvas/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db, now: time.Now}
}

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

// nextPostID returns a time-based token "post-<unixms>", moving forward one
// millisecond at a time until the key is free.
func nextPostID(txn *badger.Txn, now time.Time) (string, error) {
	ms := now.UnixMilli()
	for {
		id := fmt.Sprintf("post-%d", ms)
		_, err := txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		ms++
	}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	created := post.Clone()
	created.BeforeCreate(r.now())

	err := r.db.Update(func(txn *badger.Txn) error {
		id, err := nextPostID(txn, created.CreatedAt)
		if err != nil {
			return err
		}
		created.ID = id

		data, err := marshalEntity(created)
		if err != nil {
			return err
		}
		return txn.Set(postKey(created.ID), data)
	})
	if err != nil {
		return nil, storeErr("create post", err)
	}
	return created, nil
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		})
	})
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return &post, nil
}

// List retrieves every post in key order
func (r *BadgerPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

// Update applies a partial update to an existing post
func (r *BadgerPostRepository) Update(ctx context.Context, id string, patch models.PostPatch) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var post models.Post
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		}); err != nil {
			return err
		}
		post.Apply(patch)

		data, err := marshalEntity(&post)
		if err != nil {
			return err
		}
		return txn.Set(postKey(id), data)
	})
	return storeErr("update post", err)
}

// Delete deletes a post by ID. Comments are not touched.
func (r *BadgerPostRepository) Delete(ctx context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return txn.Delete(postKey(id))
	})
	return storeErr("delete post", err)
}

// storeErr passes nil and ErrNotFound through and marks anything else as a
// store failure.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreFailure, err)
}
