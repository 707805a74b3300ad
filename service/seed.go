package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloudcanvas/app/log"
	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/repositories/memory"

	"go.uber.org/zap"
)

// storageKey is the browser storage key the posts were exported under.
const storageKey = "cloudPosts"

// SeedStore inserts the demo posts into store.
func SeedStore(ctx context.Context, store repositories.Store, now time.Time) (int, error) {
	created, err := memory.Seed(ctx, store, memory.SeedPosts(now))
	return len(created), err
}

// ReadExport parses an export of the browser storage. The file may hold the
// post array itself, or an object whose cloudPosts entry is the array or a
// string containing it.
func ReadExport(data []byte) ([]*models.Post, []string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("failed to decode export: %w", err)
		}
		raw, ok := doc[storageKey]
		if !ok {
			return nil, nil, fmt.Errorf("export has no %s entry", storageKey)
		}
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err == nil {
			raw = json.RawMessage(encoded)
		}
		data = raw
	}
	return repositories.DecodePosts(data)
}

// ImportFile loads the posts of an export file into store. Ids are reassigned
// by the store; unknown fields are logged and dropped. Posts that fail
// validation and blank comments are skipped with a warning.
func ImportFile(ctx context.Context, store repositories.Store, path string, logger *zap.Logger) (int, error) {
	logger = log.OrNop(logger)
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read import file: %w", err)
	}
	posts, unknown, err := ReadExport(data)
	if err != nil {
		return 0, err
	}
	if len(unknown) > 0 {
		logger.Warn("dropping unknown fields", zap.Strings("fields", unknown))
	}

	now := time.Now()
	valid := make([]*models.Post, 0, len(posts))
	for i, post := range posts {
		post.ID = ""
		if post.CreatedAt.IsZero() {
			post.CreatedAt = now
		}
		if err := post.Validate(); err != nil {
			logger.Warn("skipping invalid post",
				zap.Int("index", i),
				zap.String("title", post.Title),
				zap.Error(err))
			continue
		}
		comments := post.Comments[:0]
		for _, c := range post.Comments {
			if strings.TrimSpace(c.Content) == "" {
				logger.Warn("skipping blank comment", zap.String("post", post.Title))
				continue
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			comments = append(comments, c)
		}
		post.Comments = comments
		post.CommentCount = len(comments)
		valid = append(valid, post)
	}
	created, err := memory.Seed(ctx, store, valid)
	return len(created), err
}
