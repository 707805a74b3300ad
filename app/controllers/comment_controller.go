package controllers

import (
	"errors"
	"net/http"
	"strings"

	"cloudcanvas/app/models"
	"cloudcanvas/app/viewmodels"

	"github.com/gorilla/mux"
)

// CommentController handles comment actions on the post page and the
// comment API.
type CommentController struct {
	controller
}

func NewCommentController(deps Dependencies) *CommentController {
	return &CommentController{controller: newController(deps, "comments")}
}

type commentRequest struct {
	Content string `json:"content"`
}

// commentText reads the comment body from a JSON request or a posted form.
func commentText(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") || strings.HasPrefix(r.URL.Path, "/api") {
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			return "", err
		}
		return req.Content, nil
	}
	return r.FormValue("content"), nil
}

func findComment(vm *viewmodels.DetailViewModel, id string) *models.Comment {
	for _, c := range vm.Comments() {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Index lists the comments of a post, newest first.
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	vm := cc.loadDetail(w, r, mux.Vars(r)["id"])
	if vm == nil {
		return
	}
	cc.sendJSON(w, http.StatusOK, vm.Comments())
}

// Create adds a comment to a post.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	vm := cc.loadDetail(w, r, mux.Vars(r)["id"])
	if vm == nil {
		return
	}
	text, err := commentText(r)
	if err != nil {
		cc.sendError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := vm.AddComment(r.Context(), text)
	if err != nil {
		cc.commentFailed(w, r, vm, err, detailPage{CommentText: text})
		return
	}
	if wantsJSON(r) {
		cc.sendJSON(w, http.StatusCreated, comment)
		return
	}
	redirect(w, r, "/post/"+vm.Post().ID)
}

// Edit replaces the text of a comment. The page route names the post; the
// API route resolves it from the comment.
func (cc *CommentController) Edit(w http.ResponseWriter, r *http.Request) {
	vm, id := cc.loadForComment(w, r)
	if vm == nil {
		return
	}
	text, err := commentText(r)
	if err != nil {
		cc.sendError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := vm.EditComment(r.Context(), id, text); err != nil {
		cc.commentFailed(w, r, vm, err, detailPage{Editing: id})
		return
	}
	if wantsJSON(r) {
		cc.sendJSON(w, http.StatusOK, findComment(vm, id))
		return
	}
	redirect(w, r, "/post/"+vm.Post().ID)
}

// Delete removes a comment once confirm=yes is given.
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	vm, id := cc.loadForComment(w, r)
	if vm == nil {
		return
	}

	err := vm.DeleteComment(r.Context(), id, formConfirmer(r))
	switch {
	case errors.Is(err, viewmodels.ErrCancelled) && !wantsJSON(r):
		cc.render(w, r, http.StatusOK, "confirm", confirmPage{
			Prompt: viewmodels.DeleteCommentPrompt,
			Action: r.URL.Path,
			Cancel: "/post/" + vm.Post().ID,
		})
	case err != nil:
		cc.fail(w, r, err)
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	default:
		redirect(w, r, "/post/"+vm.Post().ID)
	}
}

// loadForComment loads the post owning the routed comment and returns the
// comment id. The view model rejects a comment of another post as not found.
func (cc *CommentController) loadForComment(w http.ResponseWriter, r *http.Request) (*viewmodels.DetailViewModel, string) {
	vars := mux.Vars(r)
	postID, commentID := vars["id"], vars["commentId"]
	if postID == "" {
		comment, err := cc.store.Comments().GetByID(r.Context(), commentID)
		if err != nil {
			cc.fail(w, r, err)
			return nil, ""
		}
		postID = comment.PostID
	}

	vm := cc.loadDetail(w, r, postID)
	if vm == nil {
		return nil, ""
	}
	return vm, commentID
}

// commentFailed shows a rejected comment inline on the post page, and maps
// every other failure through fail.
func (cc *CommentController) commentFailed(w http.ResponseWriter, r *http.Request, vm *viewmodels.DetailViewModel, err error, page detailPage) {
	ve, ok := viewmodels.AsValidation(err)
	if !ok || wantsJSON(r) {
		cc.fail(w, r, err)
		return
	}
	page.Error = ve.Message
	cc.renderDetail(w, r, http.StatusUnprocessableEntity, vm, page)
}
