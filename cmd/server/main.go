package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kalyonekenobe/funders-sub000/internal/config"
	"github.com/kalyonekenobe/funders-sub000/internal/database"
	"github.com/kalyonekenobe/funders-sub000/internal/db"
	"github.com/kalyonekenobe/funders-sub000/internal/handlers"
	"github.com/kalyonekenobe/funders-sub000/internal/health"
	h "github.com/kalyonekenobe/funders-sub000/internal/http"
	"github.com/kalyonekenobe/funders-sub000/internal/middleware"
	"github.com/kalyonekenobe/funders-sub000/internal/repositories"
	"github.com/kalyonekenobe/funders-sub000/internal/services"
	"github.com/kalyonekenobe/funders-sub000/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Connect to database and apply pending migrations
	pool := db.Connect(cfg)
	defer pool.Close()

	migrator := database.NewMigrator(pool, migrations.FS)
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	// Select the media store backend
	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}
	log.Printf("Using %s media storage", cfg.Media.Driver)

	// Media pipeline: allocator plans keys, executor pushes and reclaims
	// bytes after the relational commits
	allocator := services.NewMediaAllocator(cfg.Media.Folders)
	executor := services.NewMediaExecutor(store)

	// Initialize repositories
	postRepo := repositories.NewPostRepository(pool)
	commentRepo := repositories.NewPostCommentRepository(pool)

	// Initialize services
	postService := services.NewPostService(postRepo, allocator, executor, store)
	commentService := services.NewPostCommentService(commentRepo, allocator, executor, store)

	// Initialize handlers and router
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewPostCommentHandler(commentService)
	healthHandler := handlers.NewHealthHandler(health.NewChecker(pool))
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
	corsMiddleware := middleware.NewCORS(cfg)

	router := h.NewRouter(postHandler, commentHandler, healthHandler, authMiddleware)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: corsMiddleware(router),
	}

	go func() {
		log.Printf("Server running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Drain in-flight media uploads/deletes before releasing the process
	executor.Wait()
	log.Println("Shutdown complete")
}

func newMediaStore(ctx context.Context, cfg *config.Config) (services.MediaStore, error) {
	switch cfg.Media.Driver {
	case config.MediaDriverS3:
		return services.NewS3Store(ctx, cfg.Media.S3, cfg.Media.BaseURL)
	case config.MediaDriverCloudinary:
		return services.NewCloudinaryStore(cfg.Media.Cloudinary.URL, cfg.Media.BaseURL)
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Media.Driver)
	}
}
