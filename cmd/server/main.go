package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famnote/internal/config"
	"famnote/internal/database"
	"famnote/internal/handlers"
	"famnote/internal/invite"
	"famnote/internal/repository"
	"famnote/internal/security"
	"famnote/internal/service"
	"famnote/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.IdentityJWTSecret == "" {
		log.Fatal("IDENTITY_JWT_SECRET must be set")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	ctx := context.Background()

	imageStore, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	// Initialize services
	codeGenerator := invite.NewGenerator(familyRepo)
	familyService := service.NewFamilyService(userRepo, familyRepo, noteRepo, codeGenerator)
	noteService := service.NewNoteService(noteRepo, userRepo, imageStore)
	profileService := service.NewProfileService(userRepo)

	// Initialize handlers
	middleware := handlers.NewMiddleware(cfg.IdentityJWTSecret)
	familyHandler := handlers.NewFamilyHandler(familyService, profileService, emailService)
	noteHandler := handlers.NewNoteHandler(noteService, familyService)
	profileHandler := handlers.NewProfileHandler(profileService)

	limiter := security.NewRateLimiter(10, time.Minute)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/family", middleware.RequireIdentity(handlers.RateLimit(limiter, familyHandler.CreateFamily)))
	mux.HandleFunc("POST /api/family/join", middleware.RequireIdentity(handlers.RateLimit(limiter, familyHandler.JoinFamily)))
	mux.HandleFunc("GET /api/family", middleware.RequireIdentity(familyHandler.GetFamily))
	mux.HandleFunc("GET /api/family/members", middleware.RequireIdentity(familyHandler.GetMembers))
	mux.HandleFunc("GET /api/family/stats", middleware.RequireIdentity(familyHandler.GetStats))
	mux.HandleFunc("POST /api/family/invite", middleware.RequireIdentity(handlers.RateLimit(limiter, familyHandler.SendInvite)))

	mux.HandleFunc("GET /api/notes", middleware.RequireIdentity(noteHandler.ListNotes))
	mux.HandleFunc("POST /api/notes", middleware.RequireIdentity(noteHandler.CreateNote))
	mux.HandleFunc("GET /api/notes/{id}", middleware.RequireIdentity(noteHandler.GetNote))
	mux.HandleFunc("PUT /api/notes/{id}", middleware.RequireIdentity(noteHandler.UpdateNote))
	mux.HandleFunc("DELETE /api/notes/{id}", middleware.RequireIdentity(noteHandler.DeleteNote))

	mux.HandleFunc("GET /api/me", middleware.RequireIdentity(profileHandler.GetProfile))
	mux.HandleFunc("PUT /api/me", middleware.RequireIdentity(profileHandler.UpdateProfile))

	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
