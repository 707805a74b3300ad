package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"
)

// CommentRepository is the comments table.
type CommentRepository struct{ s *Store }

func commentRow(c *models.Comment) map[string]any {
	row := map[string]any{
		"post_id":    c.PostID,
		"content":    c.Content,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if c.Author != "" {
		row["author"] = c.Author
	}
	return row
}

func (r *CommentRepository) decode(rows []map[string]any) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0, len(rows))
	for _, row := range rows {
		comment, unknown, err := repositories.NormalizeComment(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", repositories.ErrStoreFailure, err)
		}
		r.s.reportUnknown(commentsTable, unknown)
		comments = append(comments, comment)
	}
	return comments, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	created := comment.Clone()
	created.BeforeCreate(r.s.now())

	rows, err := r.s.do(ctx, request{
		op:     "create comment",
		method: http.MethodPost,
		table:  commentsTable,
		body:   commentRow(created),
		prefer: preferRepresentation,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create comment: %w: empty representation", repositories.ErrStoreFailure)
	}
	comments, err := r.decode(rows[:1])
	if err != nil {
		return nil, err
	}
	return comments[0], nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	rows, err := r.s.do(ctx, request{
		op:     "get comment",
		method: http.MethodGet,
		table:  commentsTable,
		query:  selectAll(eq("id", id)),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	comments, err := r.decode(rows[:1])
	if err != nil {
		return nil, err
	}
	return comments[0], nil
}

// ListByPost lets the service order by created_at. Ties fall back to the
// id, which the service assigns in insertion order.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string, order repositories.SortOrder) ([]*models.Comment, error) {
	q := selectAll(eq("post_id", postID))
	if order == repositories.NewestFirst {
		q.Set("order", "created_at.desc,id.desc")
	} else {
		q.Set("order", "created_at.asc,id.asc")
	}
	rows, err := r.s.do(ctx, request{
		op:     "list comments",
		method: http.MethodGet,
		table:  commentsTable,
		query:  q,
	})
	if err != nil {
		return nil, err
	}
	return r.decode(rows)
}

func (r *CommentRepository) Update(ctx context.Context, id string, content string, at time.Time) error {
	rows, err := r.s.do(ctx, request{
		op:     "update comment",
		method: http.MethodPatch,
		table:  commentsTable,
		query:  eq("id", id),
		body: map[string]any{
			"content":    content,
			"updated_at": at.UTC().Format(time.RFC3339Nano),
		},
		prefer: preferRepresentation,
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	rows, err := r.s.do(ctx, request{
		op:     "delete comment",
		method: http.MethodDelete,
		table:  commentsTable,
		query:  eq("id", id),
		prefer: preferRepresentation,
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) error {
	_, err := r.s.do(ctx, request{
		op:     "delete comments",
		method: http.MethodDelete,
		table:  commentsTable,
		query:  eq("post_id", postID),
		prefer: preferMinimal,
	})
	return err
}
