package viewmodels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloudcanvas/app/models"
	"cloudcanvas/app/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// EditMode tells whether the form creates a post or edits one.
type EditMode string

const (
	ModeCreate EditMode = "create"
	ModeEdit   EditMode = "edit"
)

// EditState is the lifecycle of an EditViewModel.
type EditState string

const (
	EditLoading  EditState = "loading"
	EditReady    EditState = "ready"
	EditNotFound EditState = "not_found"
)

// Form field names, as used by SetField and ValidationError.Field.
const (
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldImageURL  = "imageUrl"
	FieldCloudType = "cloudType"
)

const (
	msgTitleRequired    = "Please enter a title for your cloud spotting"
	msgImageRequired    = "Please enter an image URL for your cloud spotting"
	msgImageInvalid     = "Please enter a valid image URL"
	msgTitleTooLong     = "Please keep the title under 200 characters"
	msgCloudTypeUnknown = "Please choose one of the listed cloud types"

	placeholderTitle   = "Your Cloud Title"
	placeholderContent = "Your description will appear here..."
)

// PostForm is the editable part of a post.
type PostForm struct {
	Title     string
	Content   string
	ImageURL  string
	CloudType models.CloudType
}

// PreviewCard is the live preview shown beside the form.
type PreviewCard struct {
	Title          string
	CloudTypeLabel string
	Content        string
	ImageURL       string
	ImageFailed    bool
}

// EditViewModel backs both the create and the edit form.
type EditViewModel struct {
	store  repositories.Store
	prober ImageProber
	log    *zap.Logger
	now    func() time.Time

	mode         EditMode
	state        EditState
	id           string
	form         PostForm
	previewError error
}

func NewEditViewModel(store repositories.Store, prober ImageProber, logger *zap.Logger, opts ...Option) *EditViewModel {
	s := newSettings(logger, opts)
	return &EditViewModel{
		store:  store,
		prober: prober,
		log:    s.log.Named("edit"),
		now:    s.now,
		state:  EditLoading,
	}
}

// Load prepares the form. An empty id starts create mode with the cumulus
// type selected; otherwise the post is fetched and a missing post ends in
// EditNotFound.
func (vm *EditViewModel) Load(ctx context.Context, id string) error {
	vm.previewError = nil
	if id == "" {
		vm.mode = ModeCreate
		vm.id = ""
		vm.form = PostForm{CloudType: models.Cumulus}
		vm.state = EditReady
		return nil
	}

	vm.mode = ModeEdit
	vm.id = id
	vm.state = EditLoading
	post, err := vm.store.Posts().GetByID(ctx, id)
	if err != nil {
		vm.log.Info("post not available for editing", zap.String("post", id), zap.Error(err))
		vm.state = EditNotFound
		return err
	}

	vm.form = PostForm{
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		CloudType: post.CloudType.OrOther(),
	}
	vm.state = EditReady
	return nil
}

// SetField updates one form field. Changing the image URL clears a previous
// preview failure.
func (vm *EditViewModel) SetField(name, value string) error {
	switch name {
	case FieldTitle:
		vm.form.Title = value
	case FieldContent:
		vm.form.Content = value
	case FieldImageURL:
		vm.form.ImageURL = value
		vm.previewError = nil
	case FieldCloudType:
		vm.form.CloudType = models.CloudType(value)
	default:
		return invalid(name, "Unknown field")
	}
	return nil
}

// SetForm replaces every field at once, as a submitted HTML form does.
func (vm *EditViewModel) SetForm(form PostForm) {
	if form.ImageURL != vm.form.ImageURL {
		vm.previewError = nil
	}
	vm.form = form
}

// Validate checks the form in order: title, image URL presence, then the
// field rules of the post model.
func (vm *EditViewModel) Validate() error {
	if strings.TrimSpace(vm.form.Title) == "" {
		return invalid(FieldTitle, msgTitleRequired)
	}
	if strings.TrimSpace(vm.form.ImageURL) == "" {
		return invalid(FieldImageURL, msgImageRequired)
	}

	candidate := &models.Post{
		Title:     vm.form.Title,
		Content:   vm.form.Content,
		ImageURL:  strings.TrimSpace(vm.form.ImageURL),
		CloudType: vm.form.CloudType,
		CreatedAt: vm.now(),
	}
	if err := candidate.Validate(); err != nil {
		return formError(err)
	}
	return nil
}

// formError maps a model validation failure onto a form field.
func formError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalid("form", err.Error())
	}
	switch fe := fieldErrs[0]; fe.Field() {
	case "Title":
		return invalid(FieldTitle, msgTitleTooLong)
	case "ImageURL":
		return invalid(FieldImageURL, msgImageInvalid)
	case "CloudType":
		return invalid(FieldCloudType, msgCloudTypeUnknown)
	default:
		return invalid(strings.ToLower(fe.Field()), fe.Error())
	}
}

// Submit validates and saves the form, returning the page to show next.
func (vm *EditViewModel) Submit(ctx context.Context) (string, error) {
	if vm.state != EditReady {
		return "", ErrNotReady
	}
	if err := vm.Validate(); err != nil {
		return "", err
	}

	imageURL := strings.TrimSpace(vm.form.ImageURL)
	if vm.mode == ModeCreate {
		cloudType := vm.form.CloudType
		if cloudType == "" {
			cloudType = models.Cumulus
		}
		created, err := vm.store.Posts().Create(ctx, &models.Post{
			Title:     vm.form.Title,
			Content:   vm.form.Content,
			ImageURL:  imageURL,
			CloudType: cloudType,
			CreatedAt: vm.now(),
			Upvotes:   0,
		})
		if err != nil {
			vm.log.Error("failed to create post", zap.Error(err))
			return "", fmt.Errorf("failed to create post: %w", err)
		}
		vm.log.Info("post created", zap.String("post", created.ID))
		return "/post/" + created.ID, nil
	}

	now := vm.now()
	cloudType := vm.form.CloudType
	patch := models.PostPatch{
		Title:     &vm.form.Title,
		Content:   &vm.form.Content,
		ImageURL:  &imageURL,
		CloudType: &cloudType,
		UpdatedAt: &now,
	}
	if err := vm.store.Posts().Update(ctx, vm.id, patch); err != nil {
		vm.log.Error("failed to update post", zap.String("post", vm.id), zap.Error(err))
		return "", fmt.Errorf("failed to update post: %w", err)
	}
	return "/post/" + vm.id, nil
}

// RefreshPreview probes the image URL. A failure is kept until the URL
// changes and is also returned. An empty URL has nothing to probe.
func (vm *EditViewModel) RefreshPreview(ctx context.Context) error {
	url := strings.TrimSpace(vm.form.ImageURL)
	if url == "" || vm.prober == nil {
		vm.previewError = nil
		return nil
	}
	if err := vm.prober.Probe(ctx, url); err != nil {
		vm.log.Debug("image preview failed", zap.String("url", url), zap.Error(err))
		if !errors.Is(err, ErrPreviewFailed) {
			err = fmt.Errorf("%w: %w", ErrPreviewFailed, err)
		}
		vm.previewError = err
		return err
	}
	vm.previewError = nil
	return nil
}

// PreviewCard renders the form with placeholders for empty fields.
func (vm *EditViewModel) PreviewCard() PreviewCard {
	card := PreviewCard{
		Title:          vm.form.Title,
		CloudTypeLabel: vm.form.CloudType.OrOther().Label(),
		Content:        vm.form.Content,
		ImageURL:       strings.TrimSpace(vm.form.ImageURL),
		ImageFailed:    vm.previewError != nil,
	}
	if strings.TrimSpace(card.Title) == "" {
		card.Title = placeholderTitle
	}
	if strings.TrimSpace(card.Content) == "" {
		card.Content = placeholderContent
	}
	return card
}

// CancelTarget is where the cancel button leads.
func (vm *EditViewModel) CancelTarget() string {
	if vm.mode == ModeEdit {
		return "/post/" + vm.id
	}
	return "/"
}

func (vm *EditViewModel) Mode() EditMode      { return vm.mode }
func (vm *EditViewModel) State() EditState    { return vm.state }
func (vm *EditViewModel) ID() string          { return vm.id }
func (vm *EditViewModel) Form() PostForm      { return vm.form }
func (vm *EditViewModel) PreviewError() error { return vm.previewError }
