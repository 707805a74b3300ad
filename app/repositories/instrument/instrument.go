// Package instrument wraps a repositories.Store so every call is counted and
// timed in Prometheus.
package instrument

import (
	"context"
	"errors"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cloudcanvas"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the store collectors.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "store", "operations_total"),
			Help: "Store operations by collection, operation and outcome.",
		}, []string{"collection", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(namespace, "store", "operation_duration_seconds"),
			Help:    "Store operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"collection", "operation"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, repositories.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

func (m *Metrics) observe(collection, op string, start time.Time, err error) {
	m.operations.WithLabelValues(collection, op, outcome(err)).Inc()
	m.duration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// Store decorates another store.
type Store struct {
	next     repositories.Store
	posts    *postRepository
	comments *commentRepository
}

// Wrap returns store with every operation recorded in m.
func Wrap(store repositories.Store, m *Metrics) *Store {
	return &Store{
		next:     store,
		posts:    &postRepository{next: store.Posts(), m: m},
		comments: &commentRepository{next: store.Comments(), m: m},
	}
}

func (s *Store) Posts() repositories.PostRepository       { return s.posts }
func (s *Store) Comments() repositories.CommentRepository { return s.comments }
func (s *Store) Close() error                             { return s.next.Close() }

// Unwrap returns the decorated store.
func (s *Store) Unwrap() repositories.Store { return s.next }

type postRepository struct {
	next repositories.PostRepository
	m    *Metrics
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (created *models.Post, err error) {
	defer func(start time.Time) { r.m.observe("posts", "create", start, err) }(time.Now())
	return r.next.Create(ctx, post)
}

func (r *postRepository) GetByID(ctx context.Context, id string) (post *models.Post, err error) {
	defer func(start time.Time) { r.m.observe("posts", "get", start, err) }(time.Now())
	return r.next.GetByID(ctx, id)
}

func (r *postRepository) List(ctx context.Context) (posts []*models.Post, err error) {
	defer func(start time.Time) { r.m.observe("posts", "list", start, err) }(time.Now())
	return r.next.List(ctx)
}

func (r *postRepository) Update(ctx context.Context, id string, patch models.PostPatch) (err error) {
	defer func(start time.Time) { r.m.observe("posts", "update", start, err) }(time.Now())
	return r.next.Update(ctx, id, patch)
}

func (r *postRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { r.m.observe("posts", "delete", start, err) }(time.Now())
	return r.next.Delete(ctx, id)
}

type commentRepository struct {
	next repositories.CommentRepository
	m    *Metrics
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (created *models.Comment, err error) {
	defer func(start time.Time) { r.m.observe("comments", "create", start, err) }(time.Now())
	return r.next.Create(ctx, comment)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (comment *models.Comment, err error) {
	defer func(start time.Time) { r.m.observe("comments", "get", start, err) }(time.Now())
	return r.next.GetByID(ctx, id)
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string, order repositories.SortOrder) (comments []*models.Comment, err error) {
	defer func(start time.Time) { r.m.observe("comments", "list", start, err) }(time.Now())
	return r.next.ListByPost(ctx, postID, order)
}

func (r *commentRepository) Update(ctx context.Context, id string, content string, at time.Time) (err error) {
	defer func(start time.Time) { r.m.observe("comments", "update", start, err) }(time.Now())
	return r.next.Update(ctx, id, content, at)
}

func (r *commentRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { r.m.observe("comments", "delete", start, err) }(time.Now())
	return r.next.Delete(ctx, id)
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID string) (err error) {
	defer func(start time.Time) { r.m.observe("comments", "delete_by_post", start, err) }(time.Now())
	return r.next.DeleteByPost(ctx, postID)
}
