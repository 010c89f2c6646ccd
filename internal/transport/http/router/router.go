package router

import (
	"net/http"

	"github.com/vedran77/circle/internal/auth"
	"github.com/vedran77/circle/internal/metrics"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/handlers"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type Deps struct {
	AuthService    *service.AuthService
	UserService    *service.UserService
	PostService    *service.PostService
	CommentService *service.CommentService
	Tokens         auth.TokenVerifier
	Ping           handlers.PingFunc
	Recorder       *metrics.LatencyRecorder
	CORSOrigin     string
}

func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.AuthService)
	userHandler := handlers.NewUserHandler(d.UserService)
	postHandler := handlers.NewPostHandler(d.PostService)
	commentHandler := handlers.NewCommentHandler(d.CommentService)
	systemHandler := handlers.NewSystemHandler(d.Ping, d.Recorder)

	authed := middleware.Auth(d.Tokens)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", systemHandler.Health)
	mux.HandleFunc("GET /debug/latency", systemHandler.Latency)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Posts
	mux.HandleFunc("GET /api/posts", postHandler.List)
	mux.Handle("POST /api/posts", protect(postHandler.Create))
	mux.HandleFunc("GET /api/posts/user/{userId}", postHandler.ListByUser)
	mux.Handle("PUT /api/posts/like/{id}", protect(postHandler.ToggleLike))
	mux.Handle("DELETE /api/posts/{id}", protect(postHandler.Delete))

	// Comments. "GET /api/posts/{postId}/comments" would overlap with
	// "/api/posts/user/{userId}" without either being more specific, so the
	// second segment is matched here instead.
	mux.HandleFunc("GET /api/posts/{postId}/{resource}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("resource") != "comments" {
			handlers.NotFound(w, r)
			return
		}
		commentHandler.ListByPost(w, r)
	})
	mux.Handle("POST /api/posts/{postId}/comments", protect(commentHandler.Create))
	mux.Handle("DELETE /api/posts/{postId}/comments/{commentId}", protect(commentHandler.Delete))

	// Users
	mux.Handle("PUT /api/users/profile", protect(userHandler.UpdateProfile))
	mux.Handle("PUT /api/users/follow/{id}", protect(userHandler.ToggleFollow))
	mux.HandleFunc("GET /api/users/{id}", userHandler.Get)

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.Logger(d.Recorder),
		middleware.CORS(d.CORSOrigin),
		middleware.SecureHeaders,
	)
}
