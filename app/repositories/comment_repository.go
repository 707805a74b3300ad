package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloudcanvas/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under comment:<postID>:<seq> so a post's comments can be
// listed with a prefix scan; commentidx:<id> points back at that key.
type BadgerCommentRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db, now: time.Now}
}

func commentKey(postID string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", CommentKeyPrefix, postID, seq))
}

func commentPrefix(postID string) []byte {
	return []byte(CommentKeyPrefix + postID + ":")
}

func commentIndexKey(id string) []byte {
	return []byte(CommentIndexKeyPrefix + id)
}

// lookupKey resolves a comment id to its data key.
func lookupKey(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(commentIndexKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	created := comment.Clone()
	created.BeforeCreate(r.now())

	err := r.db.Update(func(txn *badger.Txn) error {
		seq, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		created.ID = strconv.Itoa(seq)

		data, err := marshalEntity(created)
		if err != nil {
			return err
		}

		key := commentKey(created.PostID, seq)
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(commentIndexKey(created.ID), key)
	})
	if err != nil {
		return nil, storeErr("create comment", err)
	}
	return created, nil
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment

	err := r.db.View(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		})
	})
	if err != nil {
		return nil, storeErr("get comment", err)
	}
	return &comment, nil
}

// ListByPost retrieves all comments for a post
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID string, order SortOrder) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := commentPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	OrderComments(comments, order)
	return comments, nil
}

// Update replaces the content of an existing comment
func (r *BadgerCommentRepository) Update(ctx context.Context, id string, content string, at time.Time) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		var comment models.Comment
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		}); err != nil {
			return err
		}
		comment.Content = content
		comment.UpdatedAt = &at

		data, err := marshalEntity(&comment)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	return storeErr("update comment", err)
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(ctx context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(commentIndexKey(id))
	})
	return storeErr("delete comment", err)
}

// DeleteByPost deletes every comment owned by a post. Deleting from a post
// without comments is not an error.
func (r *BadgerCommentRepository) DeleteByPost(ctx context.Context, postID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		var ids []string

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := commentPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var comment models.Comment
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			}); err != nil {
				it.Close()
				return err
			}
			keys = append(keys, item.KeyCopy(nil))
			ids = append(ids, comment.ID)
		}
		it.Close()

		for i, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete(commentIndexKey(ids[i])); err != nil {
				return err
			}
		}
		return nil
	})
	return storeErr("delete comments", err)
}
