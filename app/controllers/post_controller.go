package controllers

import (
	"errors"
	"net/http"
	"strings"

	"cloudcanvas/app/models"
	"cloudcanvas/app/viewmodels"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PostController handles post pages and the post API.
type PostController struct {
	controller
}

func NewPostController(deps Dependencies) *PostController {
	return &PostController{controller: newController(deps, "posts")}
}

type listPage struct {
	Posts       []*models.Post
	SearchTerm  string
	Sort        viewmodels.SortOption
	SortOptions interface{}
	Notice      bool
}

type listResponse struct {
	Posts []*models.Post        `json:"posts"`
	Query string                `json:"q"`
	Sort  viewmodels.SortOption `json:"sort"`
}

type detailPage struct {
	Post           *models.Post
	CloudTypeLabel string
	Comments       []*models.Comment
	CommentCount   int
	Editing        string
	Error          string
	CommentText    string
}

type detailResponse struct {
	Post           *models.Post      `json:"post"`
	CloudTypeLabel string            `json:"cloudTypeLabel"`
	Comments       []*models.Comment `json:"comments"`
	CommentCount   int               `json:"commentCount"`
}

type formPage struct {
	Heading      string
	SubmitLabel  string
	Action       string
	CancelTarget string
	Form         viewmodels.PostForm
	CloudTypes   []models.CloudTypeOption
	Preview      viewmodels.PreviewCard
	Error        *viewmodels.ValidationError
}

// postRequest is the JSON body of create and edit calls. Omitted fields keep
// their current value when editing.
type postRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	ImageURL  *string `json:"imageUrl"`
	CloudType *string `json:"cloudType"`
}

func (p postRequest) applyTo(form viewmodels.PostForm) viewmodels.PostForm {
	if p.Title != nil {
		form.Title = *p.Title
	}
	if p.Content != nil {
		form.Content = *p.Content
	}
	if p.ImageURL != nil {
		form.ImageURL = *p.ImageURL
	}
	if p.CloudType != nil {
		form.CloudType = models.CloudType(*p.CloudType)
	}
	return form
}

// Index lists posts, filtered by the q parameter and ordered by sort.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	vm := viewmodels.NewListViewModel(pc.store, pc.log, pc.options()...)
	query := r.URL.Query()
	if err := vm.SetSort(query.Get("sort")); err != nil {
		pc.fail(w, r, err)
		return
	}
	vm.Load(r.Context())
	vm.SetSearchTerm(query.Get("q"))

	if wantsJSON(r) {
		if err := vm.Notice(); err != nil {
			pc.fail(w, r, err)
			return
		}
		pc.sendJSON(w, http.StatusOK, listResponse{Posts: vm.Posts(), Query: vm.SearchTerm(), Sort: vm.Sort()})
		return
	}
	pc.render(w, r, http.StatusOK, "list", listPage{
		Posts:       vm.Posts(),
		SearchTerm:  vm.SearchTerm(),
		Sort:        vm.Sort(),
		SortOptions: viewmodels.SortOptions,
		Notice:      vm.Notice() != nil,
	})
}

// loadDetail loads the post named by the id route variable. On failure the
// response has been written and nil is returned.
func (c *controller) loadDetail(w http.ResponseWriter, r *http.Request, id string) *viewmodels.DetailViewModel {
	vm := c.detailViewModel()
	if err := vm.Load(r.Context(), id); err != nil {
		c.fail(w, r, err)
		return nil
	}
	return vm
}

func (c *controller) renderDetail(w http.ResponseWriter, r *http.Request, status int, vm *viewmodels.DetailViewModel, page detailPage) {
	page.Post = vm.Post()
	page.CloudTypeLabel = vm.CloudTypeLabel()
	page.Comments = vm.Comments()
	page.CommentCount = vm.CommentCount()
	c.render(w, r, status, "detail", page)
}

func newDetailResponse(vm *viewmodels.DetailViewModel) detailResponse {
	return detailResponse{
		Post:           vm.Post(),
		CloudTypeLabel: vm.CloudTypeLabel(),
		Comments:       vm.Comments(),
		CommentCount:   vm.CommentCount(),
	}
}

// Show displays one post with its comments.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	vm := pc.loadDetail(w, r, mux.Vars(r)["id"])
	if vm == nil {
		return
	}
	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, newDetailResponse(vm))
		return
	}
	pc.renderDetail(w, r, http.StatusOK, vm, detailPage{Editing: r.URL.Query().Get("edit")})
}

// Upvote adds one upvote to a post.
func (pc *PostController) Upvote(w http.ResponseWriter, r *http.Request) {
	vm := pc.loadDetail(w, r, mux.Vars(r)["id"])
	if vm == nil {
		return
	}
	if err := vm.Upvote(r.Context()); err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]int{"upvotes": vm.Post().Upvotes})
		return
	}
	redirect(w, r, "/post/"+vm.Post().ID)
}

// Delete removes a post and its comments once confirm=yes is given. Without
// it the browser gets a confirmation page.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	vm := pc.loadDetail(w, r, id)
	if vm == nil {
		return
	}

	err := vm.DeletePost(r.Context(), formConfirmer(r))
	switch {
	case errors.Is(err, viewmodels.ErrCancelled) && !wantsJSON(r):
		pc.render(w, r, http.StatusOK, "confirm", confirmPage{
			Prompt: viewmodels.DeletePostPrompt,
			Action: r.URL.Path,
			Cancel: "/post/" + id,
		})
	case err != nil:
		pc.fail(w, r, err)
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	default:
		pc.log.Info("post deleted", zap.String("post", id))
		redirect(w, r, vm.RedirectTo())
	}
}

func (pc *PostController) editViewModel() *viewmodels.EditViewModel {
	return viewmodels.NewEditViewModel(pc.store, pc.prober, pc.log, pc.options()...)
}

func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, status int, vm *viewmodels.EditViewModel, verr *viewmodels.ValidationError) {
	page := formPage{
		Heading:      "Share Your Cloud Spotting",
		SubmitLabel:  "Share Cloud",
		Action:       "/create",
		CancelTarget: vm.CancelTarget(),
		Form:         vm.Form(),
		CloudTypes:   models.CloudTypeOptions,
		Preview:      vm.PreviewCard(),
		Error:        verr,
	}
	if vm.Mode() == viewmodels.ModeEdit {
		page.Heading = "Edit Your Cloud Spotting"
		page.SubmitLabel = "Update Cloud"
		page.Action = "/edit/" + vm.ID()
	}
	pc.render(w, r, status, "form", page)
}

// Form shows the create form, or the edit form when an id is routed.
func (pc *PostController) Form(w http.ResponseWriter, r *http.Request) {
	vm := pc.editViewModel()
	if err := vm.Load(r.Context(), mux.Vars(r)["id"]); err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.renderForm(w, r, http.StatusOK, vm, nil)
}

// Submit handles a posted create or edit form. The preview action re-renders
// the form with a fresh image check instead of saving.
func (pc *PostController) Submit(w http.ResponseWriter, r *http.Request) {
	vm := pc.editViewModel()
	if err := vm.Load(r.Context(), mux.Vars(r)["id"]); err != nil {
		pc.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		pc.sendError(w, r, "Invalid form submission", http.StatusBadRequest)
		return
	}
	vm.SetForm(viewmodels.PostForm{
		Title:     r.PostForm.Get("title"),
		Content:   r.PostForm.Get("content"),
		ImageURL:  r.PostForm.Get("imageUrl"),
		CloudType: models.CloudType(r.PostForm.Get("cloudType")),
	})

	if r.PostForm.Get("action") == "preview" {
		_ = vm.RefreshPreview(r.Context())
		pc.renderForm(w, r, http.StatusOK, vm, nil)
		return
	}

	target, err := vm.Submit(r.Context())
	if ve, ok := viewmodels.AsValidation(err); ok {
		pc.renderForm(w, r, http.StatusUnprocessableEntity, vm, ve)
		return
	}
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	redirect(w, r, target)
}

// Create handles POST /api/posts.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		pc.sendError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	vm := pc.editViewModel()
	if err := vm.Load(r.Context(), ""); err != nil {
		pc.fail(w, r, err)
		return
	}
	vm.SetForm(req.applyTo(vm.Form()))
	target, err := vm.Submit(r.Context())
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.sendPost(w, r, http.StatusCreated, strings.TrimPrefix(target, "/post/"))
}

// Update handles PUT /api/posts/{id}.
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		pc.sendError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	vm := pc.editViewModel()
	if err := vm.Load(r.Context(), mux.Vars(r)["id"]); err != nil {
		pc.fail(w, r, err)
		return
	}
	vm.SetForm(req.applyTo(vm.Form()))
	if _, err := vm.Submit(r.Context()); err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.sendPost(w, r, http.StatusOK, vm.ID())
}

func (pc *PostController) sendPost(w http.ResponseWriter, r *http.Request, status int, id string) {
	post, err := pc.store.Posts().GetByID(r.Context(), id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	post.Comments = nil
	pc.sendJSON(w, status, post)
}

// Preview checks whether the url parameter points at a displayable image.
func (pc *PostController) Preview(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "error": "Enter an image URL to see a preview"})
		return
	}

	vm := pc.editViewModel()
	_ = vm.Load(r.Context(), "")
	_ = vm.SetField(viewmodels.FieldImageURL, url)
	if err := vm.RefreshPreview(r.Context()); err != nil {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "error": "Invalid image URL"})
		return
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
