package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/circle/internal/auth"
	"github.com/vedran77/circle/internal/config"
	"github.com/vedran77/circle/internal/database"
	"github.com/vedran77/circle/internal/metrics"
	"github.com/vedran77/circle/internal/repository"
	"github.com/vedran77/circle/internal/repository/memory"
	"github.com/vedran77/circle/internal/repository/mongodb"
	postgresrepo "github.com/vedran77/circle/internal/repository/postgres"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/handlers"
	"github.com/vedran77/circle/internal/transport/http/router"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type repos struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	ping     handlers.PingFunc
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Store
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.close()

	// Credentials
	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		log.Fatal(err)
	}
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	// Services
	authService := service.NewAuthService(store.users, hasher, tokens)
	userService := service.NewUserService(store.users, store.follows)
	postService := service.NewPostService(store.posts, store.users)
	commentService := service.NewCommentService(store.comments, store.posts, store.users)

	handler := router.New(router.Deps{
		AuthService:    authService,
		UserService:    userService,
		PostService:    postService,
		CommentService: commentService,
		Tokens:         tokens,
		Ping:           store.ping,
		Recorder:       metrics.NewLatencyRecorder(),
		CORSOrigin:     cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s (store: %s)", srv.Addr, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*repos, error) {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Println("Connected to postgres")
		return &repos{
			users:    postgresrepo.NewUserRepo(pool),
			posts:    postgresrepo.NewPostRepo(pool),
			comments: postgresrepo.NewCommentRepo(pool),
			follows:  postgresrepo.NewFollowRepo(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := mongodb.NewStore(client, cfg.MongoDatabase)
		if err := store.EnsureIndexes(ctx); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		log.Println("Connected to mongo")
		return &repos{
			users:    store.Users(),
			posts:    store.Posts(),
			comments: store.Comments(),
			follows:  store.Follows(),
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: func() { client.Disconnect(context.Background()) },
		}, nil

	case "memory":
		store := memory.NewStore()
		log.Println("Using in-memory store; data is lost on exit")
		return &repos{
			users:    store.Users(),
			posts:    store.Posts(),
			comments: store.Comments(),
			follows:  store.Follows(),
			close:    func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
