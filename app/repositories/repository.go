package repositories

import (
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Repository is the durable local store: both collections in one Badger
// database on disk.
type Repository struct {
	db       *badger.DB
	mutex    sync.Mutex
	posts    *BadgerPostRepository
	comments *BadgerCommentRepository
}

// NewRepository opens (or creates) the Badger database at path. An empty path
// opens an in-memory database, which is what the tests use.
func NewRepository(path string) (*Repository, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %q: %w", path, err)
	}
	return NewRepositoryWithDB(db), nil
}

// NewRepositoryWithDB wraps an already opened Badger database.
func NewRepositoryWithDB(db *badger.DB) *Repository {
	return &Repository{
		db:       db,
		posts:    NewBadgerPostRepository(db),
		comments: NewBadgerCommentRepository(db),
	}
}

func (r *Repository) Posts() PostRepository       { return r.posts }
func (r *Repository) Comments() CommentRepository { return r.comments }

func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.Close()
}

// Backup writes a full backup of the database to w.
func (r *Repository) Backup(w io.Writer) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, err := r.db.Backup(w, 0); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}
	return nil
}

// Load restores a backup produced by Backup.
func (r *Repository) Load(rd io.Reader) (err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic occurred during restore: %v", rec)
		}
	}()
	if err := r.db.Load(rd, 4); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}
