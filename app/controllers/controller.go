package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cloudcanvas/app/log"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/viewmodels"
	"cloudcanvas/app/views"

	"go.uber.org/zap"
)

// Dependencies are the collaborators shared by every controller.
type Dependencies struct {
	Store  repositories.Store
	Prober viewmodels.ImageProber
	Views  *views.Renderer
	Logger *zap.Logger
	// Now replaces time.Now in the view models when set.
	Now func() time.Time
}

type controller struct {
	store  repositories.Store
	prober viewmodels.ImageProber
	views  *views.Renderer
	log    *zap.Logger
	now    func() time.Time
}

func newController(deps Dependencies, name string) controller {
	logger := log.OrNop(deps.Logger)
	return controller{
		store:  deps.Store,
		prober: deps.Prober,
		views:  deps.Views,
		log:    logger.Named(name),
		now:    deps.Now,
	}
}

func (c *controller) options() []viewmodels.Option {
	if c.now == nil {
		return nil
	}
	return []viewmodels.Option{viewmodels.WithClock(c.now)}
}

func (c *controller) detailViewModel() *viewmodels.DetailViewModel {
	return viewmodels.NewDetailViewModel(c.store, c.log, c.options()...)
}

// wantsJSON reports whether the caller should get JSON instead of a page.
func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || strings.HasPrefix(r.URL.Path, "/api")
}

// formConfirmer answers a confirmation prompt from the confirm form or query
// field of r.
func formConfirmer(r *http.Request) viewmodels.Confirmer {
	return viewmodels.ConfirmFunc(func(string) bool {
		return r.FormValue("confirm") == "yes"
	})
}

// statusFor maps an error onto the HTTP status reported to the caller.
func statusFor(err error) int {
	if _, ok := viewmodels.AsValidation(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, viewmodels.ErrCancelled):
		return http.StatusBadRequest
	case errors.Is(err, viewmodels.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrStoreFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text shown to the user for err.
func messageFor(err error) string {
	if ve, ok := viewmodels.AsValidation(err); ok {
		return ve.Message
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return "Error loading post: Post not found"
	case errors.Is(err, viewmodels.ErrCancelled):
		return "Confirmation required"
	case errors.Is(err, repositories.ErrStoreFailure):
		return "The cloud data service is not responding. Please try again later."
	default:
		return "Something went wrong"
	}
}

func (c *controller) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (c *controller) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if wantsJSON(r) {
		body := map[string]string{"error": message}
		c.sendJSON(w, status, body)
		return
	}
	c.render(w, r, status, "message", messagePage{Message: message})
}

// fail reports err to the caller with the matching status.
func (c *controller) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		c.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	if ve, ok := viewmodels.AsValidation(err); ok && wantsJSON(r) {
		c.sendJSON(w, status, map[string]string{"error": ve.Message, "field": ve.Field})
		return
	}
	c.sendError(w, r, messageFor(err), status)
}

func (c *controller) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if c.views == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.views.Render(w, page, data); err != nil {
		c.log.Error("failed to render page", zap.String("page", page), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// redirect sends the browser to target after a form post.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type messagePage struct {
	Message string
}

type confirmPage struct {
	Prompt string
	Action string
	Cancel string
}
