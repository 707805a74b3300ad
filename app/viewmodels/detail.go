package viewmodels

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"go.uber.org/zap"
)

// DetailState is the lifecycle of a DetailViewModel.
type DetailState string

const (
	DetailLoading  DetailState = "loading"
	DetailReady    DetailState = "ready"
	DetailNotFound DetailState = "not_found"
	DetailDeleted  DetailState = "deleted"
)

const maxCommentLength = 1000

// DetailViewModel backs the post page: one post, its comments newest first,
// and the actions on them.
type DetailViewModel struct {
	store repositories.Store
	log   *zap.Logger
	now   func() time.Time

	state    DetailState
	post     *models.Post
	comments []*models.Comment
	redirect string
}

func NewDetailViewModel(store repositories.Store, logger *zap.Logger, opts ...Option) *DetailViewModel {
	s := newSettings(logger, opts)
	return &DetailViewModel{
		store:    store,
		log:      s.log.Named("detail"),
		now:      s.now,
		state:    DetailLoading,
		comments: []*models.Comment{},
	}
}

// Load fetches the post and its comments. A missing post or a failed fetch
// ends in DetailNotFound and the cause is returned. A failed comment fetch
// only leaves the comment list empty.
func (vm *DetailViewModel) Load(ctx context.Context, id string) error {
	vm.state = DetailLoading
	vm.post = nil
	vm.comments = []*models.Comment{}

	post, err := vm.store.Posts().GetByID(ctx, id)
	if err != nil {
		vm.log.Info("post not available", zap.String("post", id), zap.Error(err))
		vm.state = DetailNotFound
		return err
	}
	post.Comments = nil

	comments, err := vm.store.Comments().ListByPost(ctx, id, repositories.NewestFirst)
	if err != nil {
		vm.log.Error("failed to fetch comments", zap.String("post", id), zap.Error(err))
		comments = []*models.Comment{}
	}

	vm.post = post
	vm.comments = comments
	vm.state = DetailReady
	return nil
}

func (vm *DetailViewModel) ready() error {
	if vm.state != DetailReady {
		return ErrNotReady
	}
	return nil
}

// Upvote re-reads the stored count and writes it back plus one. Concurrent
// upvotes may overwrite each other.
func (vm *DetailViewModel) Upvote(ctx context.Context) error {
	if err := vm.ready(); err != nil {
		return err
	}

	current, err := vm.store.Posts().GetByID(ctx, vm.post.ID)
	if err != nil {
		vm.log.Error("failed to read upvotes", zap.String("post", vm.post.ID), zap.Error(err))
		return fmt.Errorf("failed to upvote post: %w", err)
	}

	upvotes := current.Upvotes + 1
	if err := vm.store.Posts().Update(ctx, vm.post.ID, models.PostPatch{Upvotes: &upvotes}); err != nil {
		vm.log.Error("failed to write upvotes", zap.String("post", vm.post.ID), zap.Error(err))
		return fmt.Errorf("failed to upvote post: %w", err)
	}

	vm.post.Upvotes = upvotes
	return nil
}

// DeletePost asks c, removes the post's comments and then the post. A failed
// comment cleanup is logged and the post is deleted anyway.
func (vm *DetailViewModel) DeletePost(ctx context.Context, c Confirmer) error {
	if err := vm.ready(); err != nil {
		return err
	}
	if !confirmed(c, DeletePostPrompt) {
		return ErrCancelled
	}

	id := vm.post.ID
	if err := vm.store.Comments().DeleteByPost(ctx, id); err != nil {
		vm.log.Warn("failed to delete comments of post", zap.String("post", id), zap.Error(err))
	}
	if err := vm.store.Posts().Delete(ctx, id); err != nil {
		vm.log.Error("failed to delete post", zap.String("post", id), zap.Error(err))
		return fmt.Errorf("failed to delete post: %w", err)
	}

	vm.state = DetailDeleted
	vm.redirect = "/"
	return nil
}

func checkCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("content", "Comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return invalid("content", fmt.Sprintf("Comment must be at most %d characters", maxCommentLength))
	}
	return nil
}

// AddComment stores a new comment and puts it at the top of the list.
func (vm *DetailViewModel) AddComment(ctx context.Context, text string) (*models.Comment, error) {
	if err := vm.ready(); err != nil {
		return nil, err
	}
	if err := checkCommentText(text); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:    vm.post.ID,
		Content:   text,
		CreatedAt: vm.now(),
	}
	if err := comment.Validate(); err != nil {
		return nil, invalid("content", err.Error())
	}

	created, err := vm.store.Comments().Create(ctx, comment)
	if err != nil {
		vm.log.Error("failed to add comment", zap.String("post", vm.post.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	vm.comments = append([]*models.Comment{created}, vm.comments...)
	return created, nil
}

// EditComment replaces the text of one comment, keeping its position.
func (vm *DetailViewModel) EditComment(ctx context.Context, id, text string) error {
	if err := vm.ready(); err != nil {
		return err
	}
	i := vm.commentIndex(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	if err := checkCommentText(text); err != nil {
		return err
	}

	at := vm.now()
	if err := vm.store.Comments().Update(ctx, id, text, at); err != nil {
		vm.log.Error("failed to update comment", zap.String("comment", id), zap.Error(err))
		return fmt.Errorf("failed to update comment: %w", err)
	}

	vm.comments[i].Content = text
	vm.comments[i].UpdatedAt = &at
	return nil
}

// DeleteComment asks c and removes one comment.
func (vm *DetailViewModel) DeleteComment(ctx context.Context, id string, c Confirmer) error {
	if err := vm.ready(); err != nil {
		return err
	}
	if vm.commentIndex(id) < 0 {
		return repositories.ErrNotFound
	}
	if !confirmed(c, DeleteCommentPrompt) {
		return ErrCancelled
	}

	if err := vm.store.Comments().Delete(ctx, id); err != nil {
		vm.log.Error("failed to delete comment", zap.String("comment", id), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if i := vm.commentIndex(id); i >= 0 {
		vm.comments = append(vm.comments[:i], vm.comments[i+1:]...)
	}
	return nil
}

// commentIndex finds a comment of the loaded post, -1 when it is not one.
func (vm *DetailViewModel) commentIndex(id string) int {
	for i, c := range vm.comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (vm *DetailViewModel) State() DetailState          { return vm.state }
func (vm *DetailViewModel) Post() *models.Post          { return vm.post }
func (vm *DetailViewModel) Comments() []*models.Comment { return vm.comments }
func (vm *DetailViewModel) CommentCount() int           { return len(vm.comments) }

// RedirectTo is where the page goes after a delete, "" otherwise.
func (vm *DetailViewModel) RedirectTo() string { return vm.redirect }

// CloudTypeLabel is the display label of the post's cloud type. Untagged
// posts show the "other" label.
func (vm *DetailViewModel) CloudTypeLabel() string {
	if vm.post == nil {
		return models.Other.Label()
	}
	return vm.post.CloudType.OrOther().Label()
}
