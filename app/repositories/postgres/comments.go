package postgres

import (
	"context"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"github.com/jackc/pgx/v5"
)

// CommentRepository is the comments table.
type CommentRepository struct{ s *Store }

const commentColumns = `id, post_id, COALESCE(author, ''), content, created_at, updated_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var (
		comment    models.Comment
		id, postID int64
	)
	err := row.Scan(&id, &postID, &comment.Author, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	comment.ID = formatID(id)
	comment.PostID = formatID(postID)
	return &comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	postID, ok := parseID(comment.PostID)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	created := comment.Clone()
	created.BeforeCreate(r.s.now())

	query := `
		INSERT INTO comments (post_id, author, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + commentColumns

	got, err := scanComment(r.s.pool.QueryRow(ctx, query,
		postID, nullable(created.Author), created.Content, created.CreatedAt))
	if err != nil {
		return nil, storeErr("insert comment", err)
	}
	return got, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	comment, err := scanComment(r.s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, key))
	if err != nil {
		return nil, storeErr("get comment", err)
	}
	return comment, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string, order repositories.SortOrder) ([]*models.Comment, error) {
	key, ok := parseID(postID)
	if !ok {
		return []*models.Comment{}, nil
	}
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at DESC, id DESC`
	if order == repositories.OldestFirst {
		query = `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`
	}

	rows, err := r.s.pool.Query(ctx, query, key)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, storeErr("scan comment", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}

func (r *CommentRepository) Update(ctx context.Context, id string, content string, at time.Time) error {
	key, ok := parseID(id)
	if !ok {
		return repositories.ErrNotFound
	}
	tag, err := r.s.pool.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`, key, content, at)
	if err != nil {
		return storeErr("update comment", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return repositories.ErrNotFound
	}
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, key)
	if err != nil {
		return storeErr("delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) error {
	key, ok := parseID(postID)
	if !ok {
		return nil
	}
	_, err := r.s.pool.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, key)
	return storeErr("delete comments", err)
}
