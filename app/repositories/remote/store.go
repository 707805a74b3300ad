// Package remote talks to a hosted table service that speaks the PostgREST
// wire protocol (a Supabase project, for instance). Tables are reached under
// /rest/v1/{table} and filtered with eq. operators.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloudcanvas/app/log"
	"cloudcanvas/app/repositories"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	postsTable    = "posts"
	commentsTable = "comments"

	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
)

// Config locates the table service.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Store implements repositories.Store against the table service.
type Store struct {
	client   *resty.Client
	log      *zap.Logger
	now      func() time.Time
	posts    *PostRepository
	comments *CommentRepository
}

// NewStore builds a client for cfg. No request is made until first use.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("remote store url is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid remote store url: %w", err)
	}
	logger = log.OrNop(logger)

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+"/rest/v1").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.APIKey != "" {
		client.SetHeader("apikey", cfg.APIKey).SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := &Store{client: client, log: logger.Named("remote"), now: time.Now}
	s.posts = &PostRepository{s: s}
	s.comments = &CommentRepository{s: s}
	return s, nil
}

func (s *Store) Posts() repositories.PostRepository       { return s.posts }
func (s *Store) Comments() repositories.CommentRepository { return s.comments }
func (s *Store) Close() error                             { return nil }

// apiError is the error body PostgREST returns.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *apiError) describe(status int) string {
	msg := fmt.Sprintf("status %d", status)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// request describes one call against a table.
type request struct {
	op     string
	method string
	table  string
	query  url.Values
	body   any
	prefer string
}

// do issues the call and decodes the returned rows. Transport failures and
// non-2xx responses are store failures.
func (s *Store) do(ctx context.Context, r request) ([]map[string]any, error) {
	apiErr := &apiError{}
	req := s.client.R().SetContext(ctx).SetError(apiErr)
	if r.query != nil {
		req.SetQueryParamsFromValues(r.query)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}
	if r.prefer != "" {
		req.SetHeader("Prefer", r.prefer)
	}

	resp, err := req.Execute(r.method, "/"+r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w: %w", r.op, repositories.ErrStoreFailure, err)
	}
	if resp.IsError() {
		s.log.Warn("table service rejected request",
			zap.String("op", r.op),
			zap.Int("status", resp.StatusCode()),
			zap.String("code", apiErr.Code),
			zap.String("hint", apiErr.Hint))
		return nil, fmt.Errorf("failed to %s: %w: %s", r.op, repositories.ErrStoreFailure, apiErr.describe(resp.StatusCode()))
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to %s: %w: decode response: %w", r.op, repositories.ErrStoreFailure, err)
	}
	return rows, nil
}

// reportUnknown logs fields the normalizer dropped.
func (s *Store) reportUnknown(table string, fields []string) {
	if len(fields) > 0 {
		s.log.Debug("dropped unknown fields", zap.String("table", table), zap.Strings("fields", fields))
	}
}

func eq(field, value string) url.Values {
	q := url.Values{}
	q.Set(field, "eq."+value)
	return q
}

func selectAll(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("select", "*")
	return q
}
