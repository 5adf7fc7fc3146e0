//	@title			Stillframe API
//	@version		1.0
//	@description	Backend for Stillframe, a publishing platform for mindful creators.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/stillframe/service/internal/blobstore"
	"github.com/stillframe/service/internal/config"
	"github.com/stillframe/service/internal/db"
	appMiddleware "github.com/stillframe/service/internal/middleware"
	"github.com/stillframe/service/internal/post"
	"github.com/stillframe/service/internal/response"
	"github.com/stillframe/service/internal/upload"

	_ "github.com/stillframe/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	// Blob storage: local managed directory by default, any S3-compatible
	// store when configured.
	var blobs blobstore.Store
	var localBlobs *blobstore.Local
	switch cfg.StorageBackend {
	case "s3":
		blobs, err = blobstore.NewMinio(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatalf("object storage init failed: %v", err)
		}
	default:
		localBlobs = blobstore.NewLocal(cfg.UploadDir, cfg.StoragePublicBase)
		blobs = localBlobs
	}

	// Wire dependencies: repository → service → handler
	validator := upload.NewValidator(upload.DefaultPolicy(cfg.MaxUploadBytes))
	postRepo := post.NewRepository(pool)
	postSvc := post.NewService(postRepo, blobs, validator)
	postHandler := post.NewHandler(postSvc, blobs, cfg.MaxUploadBytes)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Stored covers are served directly only with the local backend; the S3
	// backend hands out its own public URLs.
	if localBlobs != nil {
		r.Get("/uploads/covers/{name}", serveCover(localBlobs))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/posts", func(r chi.Router) {
			// Public feed and single-post reads; reads resolve the actor
			// when a token is present so owners can see their drafts.
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.OptionalAuth(cfg.JWTSecret))
				r.Get("/", postHandler.ListPublished)
				r.Get("/{id}", postHandler.Get)
			})

			// Authoring endpoints
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
				r.Post("/", postHandler.Create)
				r.Get("/mine", postHandler.ListMine)
				r.Put("/{id}", postHandler.Update)
				r.Delete("/{id}", postHandler.Delete)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}

// serveCover serves a stored cover file. The blob store resolves the name and
// rejects anything that would escape the managed directory.
func serveCover(blobs *blobstore.Local) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := blobs.PathFor(chi.URLParam(r, "name"))
		if err != nil {
			response.NotFound(w, "not found")
			return
		}
		http.ServeFile(w, r, path)
	}
}
