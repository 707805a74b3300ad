package repositories

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloudcanvas/app/models"
)

// Field aliases seen across the mock, browser-storage and hosted-table
// variants of the data. Each canonical field accepts the listed names, first
// match wins.
var (
	postAliases = map[string][]string{
		"id":        {"id"},
		"title":     {"title"},
		"content":   {"content", "description"},
		"imageUrl":  {"imageUrl", "image_url"},
		"cloudType": {"cloudType", "cloud_type"},
		"createdAt": {"createdAt", "created_at", "timestamp"},
		"updatedAt": {"updatedAt", "updated_at"},
		"upvotes":   {"upvotes"},
		"comments":  {"comments"},
		"count":     {"commentCount", "comment_count"},
	}
	commentAliases = map[string][]string{
		"id":        {"id"},
		"postId":    {"post_id", "postId"},
		"author":    {"author"},
		"content":   {"content", "text"},
		"createdAt": {"created_at", "createdAt", "timestamp"},
		"updatedAt": {"updated_at", "updatedAt"},
	}
)

// NormalizePost converts a loosely-typed record into the canonical Post.
// It returns the names of fields it did not recognize so callers can report
// them; those fields are dropped.
func NormalizePost(row map[string]any) (*models.Post, []string, error) {
	known := make(map[string]bool)
	get := func(canonical string) (any, bool) {
		for _, name := range postAliases[canonical] {
			known[name] = true
		}
		for _, name := range postAliases[canonical] {
			if v, ok := row[name]; ok && v != nil {
				return v, true
			}
		}
		return nil, false
	}

	post := &models.Post{}
	var err error
	if v, ok := get("id"); ok {
		if post.ID, err = asID(v); err != nil {
			return nil, nil, fmt.Errorf("post id: %w", err)
		}
	}
	if v, ok := get("title"); ok {
		post.Title = asString(v)
	}
	if v, ok := get("content"); ok {
		post.Content = asString(v)
	}
	if v, ok := get("imageUrl"); ok {
		post.ImageURL = asString(v)
	}
	if v, ok := get("cloudType"); ok {
		post.CloudType = models.CloudType(strings.ToLower(asString(v)))
	}
	if v, ok := get("createdAt"); ok {
		if post.CreatedAt, err = asTime(v); err != nil {
			return nil, nil, fmt.Errorf("post created_at: %w", err)
		}
	}
	if v, ok := get("updatedAt"); ok {
		t, err := asTime(v)
		if err != nil {
			return nil, nil, fmt.Errorf("post updated_at: %w", err)
		}
		post.UpdatedAt = &t
	}
	if v, ok := get("upvotes"); ok {
		n, err := asInt(v)
		if err != nil {
			return nil, nil, fmt.Errorf("post upvotes: %w", err)
		}
		if n < 0 {
			n = 0
		}
		post.Upvotes = n
	}
	if v, ok := get("comments"); ok {
		items, isList := v.([]any)
		if !isList {
			return nil, nil, fmt.Errorf("post comments: expected a list, got %T", v)
		}
		post.Comments = make([]*models.Comment, 0, len(items))
		for i, item := range items {
			m, isMap := item.(map[string]any)
			if !isMap {
				return nil, nil, fmt.Errorf("post comment %d: expected an object, got %T", i, item)
			}
			comment, _, err := NormalizeComment(m)
			if err != nil {
				return nil, nil, fmt.Errorf("post comment %d: %w", i, err)
			}
			comment.PostID = post.ID
			if comment.ID == "" {
				comment.ID = strconv.Itoa(i + 1)
			}
			post.Comments = append(post.Comments, comment)
		}
		post.CommentCount = len(post.Comments)
	}
	if v, ok := get("count"); ok && post.Comments == nil {
		if post.CommentCount, err = asInt(v); err != nil {
			return nil, nil, fmt.Errorf("post comment count: %w", err)
		}
	}

	return post, unknownFields(row, known), nil
}

// NormalizeComment converts a loosely-typed record into the canonical Comment.
func NormalizeComment(row map[string]any) (*models.Comment, []string, error) {
	known := make(map[string]bool)
	get := func(canonical string) (any, bool) {
		for _, name := range commentAliases[canonical] {
			known[name] = true
		}
		for _, name := range commentAliases[canonical] {
			if v, ok := row[name]; ok && v != nil {
				return v, true
			}
		}
		return nil, false
	}

	comment := &models.Comment{}
	var err error
	if v, ok := get("id"); ok {
		if comment.ID, err = asID(v); err != nil {
			return nil, nil, fmt.Errorf("comment id: %w", err)
		}
	}
	if v, ok := get("postId"); ok {
		if comment.PostID, err = asID(v); err != nil {
			return nil, nil, fmt.Errorf("comment post_id: %w", err)
		}
	}
	if v, ok := get("author"); ok {
		comment.Author = asString(v)
	}
	if v, ok := get("content"); ok {
		comment.Content = asString(v)
	}
	if v, ok := get("createdAt"); ok {
		if comment.CreatedAt, err = asTime(v); err != nil {
			return nil, nil, fmt.Errorf("comment created_at: %w", err)
		}
	}
	if v, ok := get("updatedAt"); ok {
		t, err := asTime(v)
		if err != nil {
			return nil, nil, fmt.Errorf("comment updated_at: %w", err)
		}
		comment.UpdatedAt = &t
	}
	return comment, unknownFields(row, known), nil
}

// DecodePosts normalizes a JSON array of post records.
func DecodePosts(data []byte) ([]*models.Post, []string, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	posts := make([]*models.Post, 0, len(rows))
	unknown := make(map[string]bool)
	for i, row := range rows {
		post, extra, err := NormalizePost(row)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		for _, name := range extra {
			unknown[name] = true
		}
		posts = append(posts, post)
	}
	return posts, sortedKeys(unknown), nil
}

func unknownFields(row map[string]any, known map[string]bool) []string {
	var extra []string
	for name := range row {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func asID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case float64:
		if id != float64(int64(id)) {
			return "", fmt.Errorf("non-integer id %v", id)
		}
		return strconv.FormatInt(int64(id), 10), nil
	case json.Number:
		return id.String(), nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("non-integer number %v", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported number type %T", v)
	}
}

// timestamp layouts produced by the hosted table service and by browsers.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", t)
	case float64:
		// epoch milliseconds, as written by Date.now()
		return time.UnixMilli(int64(t)).UTC(), nil
	case time.Time:
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}
