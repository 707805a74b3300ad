package viewmodels

import (
	"context"
	"sort"
	"strings"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"go.uber.org/zap"
)

// SortOption orders the visible post list.
type SortOption string

const (
	SortNewest  SortOption = "newest"
	SortOldest  SortOption = "oldest"
	SortPopular SortOption = "popular"
)

// SortOptions lists the choices in display order.
var SortOptions = []struct {
	Value SortOption
	Label string
}{
	{SortNewest, "Newest First"},
	{SortOldest, "Oldest First"},
	{SortPopular, "Most Upvoted"},
}

// ParseSortOption accepts the option names above. An empty string selects
// SortNewest.
func ParseSortOption(s string) (SortOption, error) {
	switch SortOption(s) {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortPopular:
		return SortOption(s), nil
	}
	return "", invalid("sort", "Unknown sort option "+s)
}

// ListState is the lifecycle of a ListViewModel.
type ListState string

const (
	ListLoading ListState = "loading"
	ListReady   ListState = "ready"
)

// ListViewModel backs the home page: every post, filtered by a search term
// and ordered by a sort option.
type ListViewModel struct {
	store repositories.Store
	log   *zap.Logger

	state   ListState
	all     []*models.Post
	visible []*models.Post
	term    string
	sort    SortOption
	notice  error
}

// NewListViewModel returns a model in the loading state, sorted newest first.
func NewListViewModel(store repositories.Store, logger *zap.Logger, opts ...Option) *ListViewModel {
	s := newSettings(logger, opts)
	return &ListViewModel{
		store: store,
		log:   s.log.Named("list"),
		state: ListLoading,
		all:   []*models.Post{},
		sort:  SortNewest,
	}
}

// Load fetches every post and resolves its comment count. A store failure
// leaves an empty list with the error kept as Notice; Load itself never fails.
func (vm *ListViewModel) Load(ctx context.Context) {
	vm.state = ListLoading
	vm.notice = nil

	posts, err := vm.store.Posts().List(ctx)
	if err != nil {
		vm.log.Error("failed to fetch posts", zap.Error(err))
		vm.notice = err
		posts = []*models.Post{}
	}

	for _, post := range posts {
		vm.resolveCommentCount(ctx, post)
	}

	vm.all = posts
	vm.state = ListReady
	vm.refresh()
}

func (vm *ListViewModel) resolveCommentCount(ctx context.Context, post *models.Post) {
	if post.Comments != nil {
		post.CommentCount = len(post.Comments)
		return
	}
	comments, err := vm.store.Comments().ListByPost(ctx, post.ID, repositories.NewestFirst)
	if err != nil {
		vm.log.Warn("failed to count comments", zap.String("post", post.ID), zap.Error(err))
		post.CommentCount = 0
		return
	}
	post.CommentCount = len(comments)
}

// SetSearchTerm filters titles by a case-insensitive substring.
func (vm *ListViewModel) SetSearchTerm(term string) {
	vm.term = term
	vm.refresh()
}

// SetSort changes the order. Unknown options are rejected and leave the
// current order in place.
func (vm *ListViewModel) SetSort(option string) error {
	opt, err := ParseSortOption(option)
	if err != nil {
		return err
	}
	vm.sort = opt
	vm.refresh()
	return nil
}

func (vm *ListViewModel) refresh() {
	vm.visible = SortPosts(FilterPosts(vm.all, vm.term), vm.sort)
}

func (vm *ListViewModel) State() ListState      { return vm.state }
func (vm *ListViewModel) Posts() []*models.Post { return vm.visible }
func (vm *ListViewModel) All() []*models.Post   { return vm.all }
func (vm *ListViewModel) SearchTerm() string    { return vm.term }
func (vm *ListViewModel) Sort() SortOption      { return vm.sort }

// Notice is the last load failure, nil after a clean load.
func (vm *ListViewModel) Notice() error { return vm.notice }

// FilterPosts returns the posts whose title contains term, ignoring case.
// The input slice is not modified.
func FilterPosts(posts []*models.Post, term string) []*models.Post {
	out := make([]*models.Post, 0, len(posts))
	needle := strings.ToLower(term)
	for _, p := range posts {
		if needle == "" || strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	return out
}

// SortPosts returns a stably sorted copy of posts.
func SortPosts(posts []*models.Post, option SortOption) []*models.Post {
	out := make([]*models.Post, len(posts))
	copy(out, posts)

	var less func(a, b *models.Post) bool
	switch option {
	case SortOldest:
		less = func(a, b *models.Post) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPopular:
		less = func(a, b *models.Post) bool { return a.Upvotes > b.Upvotes }
	default:
		less = func(a, b *models.Post) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
