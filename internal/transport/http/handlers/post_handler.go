package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreatePostInput
	if !decodeJSON(w, r, &input) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, "create post", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		writeServiceError(w, "list posts", err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	posts, err := h.postService.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "list user posts", err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		writeServiceError(w, "delete post", err)
		return
	}

	writeMessage(w, "Post removed")
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	likes, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, "toggle like", err)
		return
	}

	writeJSON(w, http.StatusOK, likes)
}
