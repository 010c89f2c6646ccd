package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, ok := pathID(w, r, "postId", "post")
	if !ok {
		return
	}

	var input service.CreateCommentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, postID, input)
	if err != nil {
		writeServiceError(w, "create comment", err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId", "post")
	if !ok {
		return
	}

	comments, err := h.commentService.ListByPost(r.Context(), postID)
	if err != nil {
		writeServiceError(w, "list comments", err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, ok := pathID(w, r, "postId", "post")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.commentService.Delete(r.Context(), userID, postID, commentID); err != nil {
		writeServiceError(w, "delete comment", err)
		return
	}

	writeMessage(w, "Comment removed")
}
