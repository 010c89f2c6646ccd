package handlers

import (
	"errors"
	"net/http"

	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Message: "User registered successfully",
		User:    user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		// clients expect a 400 for bad credentials
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid credentials")
			return
		}
		writeServiceError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
