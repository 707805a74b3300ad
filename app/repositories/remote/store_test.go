package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeService is a minimal PostgREST stand-in: eq. filters, created_at/id
// ordering and the Prefer header.
type fakeService struct {
	mu         sync.Mutex
	tables     map[string][]map[string]any
	nextID     int
	lastHeader http.Header
	failStatus int
}

func newFakeService() *fakeService {
	return &fakeService{tables: map[string][]map[string]any{}, nextID: 1}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastHeader = r.Header.Clone()

	w.Header().Set("Content-Type", "application/json")
	if f.failStatus != 0 {
		w.WriteHeader(f.failStatus)
		fmt.Fprint(w, `{"code":"PGRST000","message":"boom","details":null,"hint":null}`)
		return
	}

	table, ok := strings.CutPrefix(r.URL.Path, "/rest/v1/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	matches := func(row map[string]any) bool {
		for key, vals := range q {
			if key == "select" || key == "order" {
				continue
			}
			want := strings.TrimPrefix(vals[0], "eq.")
			if fmt.Sprint(row[key]) != want {
				return false
			}
		}
		return true
	}
	representation := r.Header.Get("Prefer") == "return=representation"

	var out []map[string]any
	switch r.Method {
	case http.MethodGet:
		for _, row := range f.tables[table] {
			if matches(row) {
				out = append(out, row)
			}
		}
		sortRows(out, q.Get("order"))
	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		row["id"] = float64(f.nextID)
		f.nextID++
		f.tables[table] = append(f.tables[table], row)
		out = []map[string]any{row}
		w.WriteHeader(http.StatusCreated)
	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, row := range f.tables[table] {
			if matches(row) {
				for k, v := range patch {
					row[k] = v
				}
				out = append(out, row)
			}
		}
	case http.MethodDelete:
		var kept []map[string]any
		for _, row := range f.tables[table] {
			if matches(row) {
				out = append(out, row)
			} else {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
	}

	if !representation && r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if out == nil {
		out = []map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(out)
}

func sortRows(rows []map[string]any, order string) {
	if order == "" {
		return
	}
	desc := strings.HasPrefix(order, "created_at.desc")
	sort.SliceStable(rows, func(i, j int) bool {
		ti, _ := time.Parse(time.RFC3339Nano, fmt.Sprint(rows[i]["created_at"]))
		tj, _ := time.Parse(time.RFC3339Nano, fmt.Sprint(rows[j]["created_at"]))
		if !ti.Equal(tj) {
			return ti.Before(tj) != desc
		}
		return (rows[i]["id"].(float64) < rows[j]["id"].(float64)) != desc
	})
}

func newTestStore(t *testing.T) (*Store, *fakeService) {
	fake := newFakeService()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{URL: srv.URL, APIKey: "anon-key", Timeout: 5 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, fake
}

func TestNewStore(t *testing.T) {
	_, err := NewStore(Config{}, nil)
	assert.Error(t, err)

	_, err = NewStore(Config{URL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestPostRepository(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	posts := s.Posts()

	post, err := posts.Create(ctx, &models.Post{
		Title:     "Dragon Breathing Fire",
		ImageURL:  "https://example.com/dragon.jpg",
		CloudType: models.Cumulonimbus,
	})
	require.NoError(t, err)

	t.Run("create returns the stored row", func(t *testing.T) {
		assert.Equal(t, "1", post.ID)
		assert.Equal(t, "https://example.com/dragon.jpg", post.ImageURL)
		assert.Equal(t, models.Cumulonimbus, post.CloudType)
		assert.True(t, created.Equal(post.CreatedAt))
		assert.Equal(t, "anon-key", fake.lastHeader.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", fake.lastHeader.Get("Authorization"))
	})

	t.Run("get and list", func(t *testing.T) {
		got, err := posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dragon Breathing Fire", got.Title)

		list, err := posts.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = posts.GetByID(ctx, "404")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		upvotes := 43
		at := created.Add(time.Hour)
		require.NoError(t, posts.Update(ctx, post.ID, models.PostPatch{Upvotes: &upvotes, UpdatedAt: &at}))

		got, err := posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 43, got.Upvotes)
		require.NotNil(t, got.UpdatedAt)
		assert.True(t, at.Equal(*got.UpdatedAt))

		assert.ErrorIs(t, posts.Update(ctx, "404", models.PostPatch{Upvotes: &upvotes}), repositories.ErrNotFound)
		assert.ErrorIs(t, posts.Update(ctx, "404", models.PostPatch{}), repositories.ErrNotFound)
		assert.NoError(t, posts.Update(ctx, post.ID, models.PostPatch{}))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, posts.Delete(ctx, post.ID))
		assert.ErrorIs(t, posts.Delete(ctx, post.ID), repositories.ErrNotFound)
	})
}

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	comments := s.Comments()

	c1, err := comments.Create(ctx, &models.Comment{PostID: "7", Content: "first"})
	require.NoError(t, err)
	c2, err := comments.Create(ctx, &models.Comment{PostID: "7", Content: "second", Author: "skygazer"})
	require.NoError(t, err)
	_, err = comments.Create(ctx, &models.Comment{PostID: "8", Content: "elsewhere"})
	require.NoError(t, err)

	t.Run("create normalizes the row", func(t *testing.T) {
		assert.Equal(t, "7", c1.PostID)
		assert.Equal(t, "skygazer", c2.Author)
		assert.NotEqual(t, c1.ID, c2.ID)
	})

	t.Run("newest first breaks ties by insertion", func(t *testing.T) {
		list, err := comments.ListByPost(ctx, "7", repositories.NewestFirst)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, c2.ID, list[0].ID)
		assert.Equal(t, c1.ID, list[1].ID)

		list, err = comments.ListByPost(ctx, "7", repositories.OldestFirst)
		require.NoError(t, err)
		assert.Equal(t, c1.ID, list[0].ID)
	})

	t.Run("update and get", func(t *testing.T) {
		at := now.Add(time.Minute)
		require.NoError(t, comments.Update(ctx, c1.ID, "edited", at))
		got, err := comments.GetByID(ctx, c1.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Content)
		require.NotNil(t, got.UpdatedAt)

		assert.ErrorIs(t, comments.Update(ctx, "404", "x", at), repositories.ErrNotFound)
		_, err = comments.GetByID(ctx, "404")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("delete one and delete by post", func(t *testing.T) {
		require.NoError(t, comments.Delete(ctx, c1.ID))
		assert.ErrorIs(t, comments.Delete(ctx, c1.ID), repositories.ErrNotFound)

		require.NoError(t, comments.DeleteByPost(ctx, "7"))
		list, err := comments.ListByPost(ctx, "7", repositories.NewestFirst)
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = comments.ListByPost(ctx, "8", repositories.NewestFirst)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		assert.NoError(t, comments.DeleteByPost(ctx, "nothing-here"))
	})
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("service error", func(t *testing.T) {
		s, fake := newTestStore(t)
		fake.failStatus = http.StatusInternalServerError

		_, err := s.Posts().List(ctx)
		assert.ErrorIs(t, err, repositories.ErrStoreFailure)
		assert.Contains(t, err.Error(), "boom")

		_, err = s.Posts().GetByID(ctx, "1")
		assert.ErrorIs(t, err, repositories.ErrStoreFailure)
		assert.NotErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("unreachable service", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		s, err := NewStore(Config{URL: url, Timeout: time.Second}, nil)
		require.NoError(t, err)
		_, err = s.Comments().ListByPost(ctx, "1", repositories.NewestFirst)
		assert.ErrorIs(t, err, repositories.ErrStoreFailure)
	})

	t.Run("malformed rows", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"id":1,"title":"x","created_at":"last tuesday"}]`)
		}))
		t.Cleanup(srv.Close)

		s, err := NewStore(Config{URL: srv.URL}, nil)
		require.NoError(t, err)
		_, err = s.Posts().List(ctx)
		assert.ErrorIs(t, err, repositories.ErrStoreFailure)
	})
}
