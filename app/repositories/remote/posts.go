package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"
)

// PostRepository is the posts table.
type PostRepository struct{ s *Store }

func postRow(p *models.Post) map[string]any {
	row := map[string]any{
		"title":      p.Title,
		"content":    p.Content,
		"image_url":  p.ImageURL,
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"upvotes":    p.Upvotes,
	}
	if p.CloudType != "" {
		row["cloud_type"] = string(p.CloudType)
	}
	return row
}

func patchRow(patch models.PostPatch) map[string]any {
	row := map[string]any{}
	if patch.Title != nil {
		row["title"] = *patch.Title
	}
	if patch.Content != nil {
		row["content"] = *patch.Content
	}
	if patch.ImageURL != nil {
		row["image_url"] = *patch.ImageURL
	}
	if patch.CloudType != nil {
		row["cloud_type"] = string(*patch.CloudType)
	}
	if patch.Upvotes != nil {
		row["upvotes"] = *patch.Upvotes
	}
	if patch.UpdatedAt != nil {
		row["updated_at"] = patch.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return row
}

func (r *PostRepository) decode(rows []map[string]any) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(rows))
	for _, row := range rows {
		post, unknown, err := repositories.NormalizePost(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", repositories.ErrStoreFailure, err)
		}
		r.s.reportUnknown(postsTable, unknown)
		posts = append(posts, post)
	}
	return posts, nil
}

// first decodes a single-row response, ErrNotFound when empty.
func (r *PostRepository) first(rows []map[string]any) (*models.Post, error) {
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	posts, err := r.decode(rows[:1])
	if err != nil {
		return nil, err
	}
	return posts[0], nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	created := post.Clone()
	created.BeforeCreate(r.s.now())

	rows, err := r.s.do(ctx, request{
		op:     "create post",
		method: http.MethodPost,
		table:  postsTable,
		body:   postRow(created),
		prefer: preferRepresentation,
	})
	if err != nil {
		return nil, err
	}
	got, err := r.first(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w: empty representation", repositories.ErrStoreFailure)
	}
	return got, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	rows, err := r.s.do(ctx, request{
		op:     "get post",
		method: http.MethodGet,
		table:  postsTable,
		query:  selectAll(eq("id", id)),
	})
	if err != nil {
		return nil, err
	}
	return r.first(rows)
}

func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	rows, err := r.s.do(ctx, request{
		op:     "list posts",
		method: http.MethodGet,
		table:  postsTable,
		query:  selectAll(nil),
	})
	if err != nil {
		return nil, err
	}
	return r.decode(rows)
}

// Update patches the row. An empty patch only checks that the row exists.
func (r *PostRepository) Update(ctx context.Context, id string, patch models.PostPatch) error {
	row := patchRow(patch)
	if len(row) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	rows, err := r.s.do(ctx, request{
		op:     "update post",
		method: http.MethodPatch,
		table:  postsTable,
		query:  eq("id", id),
		body:   row,
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

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	rows, err := r.s.do(ctx, request{
		op:     "delete post",
		method: http.MethodDelete,
		table:  postsTable,
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
