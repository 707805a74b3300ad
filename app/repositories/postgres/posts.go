package postgres

import (
	"context"
	"fmt"
	"strings"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"github.com/jackc/pgx/v5"
)

// PostRepository is the posts table.
type PostRepository struct{ s *Store }

const postColumns = `id, title, content, image_url, COALESCE(cloud_type, ''), created_at, updated_at, upvotes`

func scanPost(row pgx.Row) (*models.Post, error) {
	var (
		post      models.Post
		id        int64
		cloudType string
	)
	err := row.Scan(&id, &post.Title, &post.Content, &post.ImageURL, &cloudType,
		&post.CreatedAt, &post.UpdatedAt, &post.Upvotes)
	if err != nil {
		return nil, err
	}
	post.ID = formatID(id)
	post.CloudType = models.CloudType(cloudType)
	return &post, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	created := post.Clone()
	created.BeforeCreate(r.s.now())

	query := `
		INSERT INTO posts (title, content, image_url, cloud_type, created_at, upvotes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + postColumns

	got, err := scanPost(r.s.pool.QueryRow(ctx, query,
		created.Title, created.Content, created.ImageURL,
		nullable(string(created.CloudType)), created.CreatedAt, created.Upvotes,
	))
	if err != nil {
		return nil, storeErr("insert post", err)
	}
	return got, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	post, err := scanPost(r.s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, key))
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	rows, err := r.s.pool.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, storeErr("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

// buildPostUpdate renders the SET clause for the non-nil patch fields. The
// post id is always $1.
func buildPostUpdate(patch models.PostPatch) (string, []any) {
	var sets []string
	args := []any{nil}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.CloudType != nil {
		add("cloud_type", nullable(string(*patch.CloudType)))
	}
	if patch.Upvotes != nil {
		add("upvotes", *patch.Upvotes)
	}
	if patch.UpdatedAt != nil {
		add("updated_at", *patch.UpdatedAt)
	}
	if len(sets) == 0 {
		return "", nil
	}
	return "UPDATE posts SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

func (r *PostRepository) Update(ctx context.Context, id string, patch models.PostPatch) error {
	key, ok := parseID(id)
	if !ok {
		return repositories.ErrNotFound
	}
	query, args := buildPostUpdate(patch)
	if query == "" {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args[0] = key

	tag, err := r.s.pool.Exec(ctx, query, args...)
	if err != nil {
		return storeErr("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return repositories.ErrNotFound
	}
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, key)
	if err != nil {
		return storeErr("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
