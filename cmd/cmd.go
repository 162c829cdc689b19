package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"readalong-backend/internal/cache"
	"readalong-backend/internal/config"
	"readalong-backend/internal/handlers"
	"readalong-backend/internal/middleware"
	"readalong-backend/internal/repository"
	"readalong-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	idempotencyTTL = 24 * time.Hour
	draftTTL       = 30 * 24 * time.Hour
)

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log)

	ctx := context.Background()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Connect to redis
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connection established")

	// Initialize repositories
	groupRepo := repository.NewGroupRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	shareRepo := repository.NewShareRepository(db)
	foodRepo := repository.NewFoodLogRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	contentRepo := repository.NewContentRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	// Optional integrations
	var storage services.ImageStorage
	if cfg.AWS.S3Bucket != "" {
		s3Storage, err := services.NewS3Storage(ctx, cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 storage")
		}
		storage = s3Storage
	} else {
		log.Warn().Msg("aws.s3_bucket not set, image upload URLs are disabled")
	}

	var notifier services.Notifier
	if cfg.APNs.Enabled {
		apns, err := services.NewAPNsNotifier(cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		notifier = apns
	}

	gemini := services.NewGeminiClient(cfg.AI)
	if !gemini.Configured() {
		log.Warn().Msg("ai.api_key not set, food analysis is disabled")
	}

	// Initialize services
	wsHub := services.NewWSHub()
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret)
	programService := services.NewProgramService(groupRepo, cfg.Program.LengthDays)
	shareService := services.NewShareService(shareRepo, groupRepo, programService, cfg.Program.ShareMaxChars)
	feedService := services.NewFeedService(groupRepo, shareRepo, foodRepo, commentRepo, reactionRepo, cfg.Program.FeedLimit)
	commentService := services.NewCommentService(commentRepo, shareRepo, foodRepo, groupRepo)
	reactionService := services.NewReactionService(reactionRepo, shareRepo, foodRepo, groupRepo,
		cache.NewIdempotencyStore(rdb, "idem:reaction", idempotencyTTL))
	chatService := services.NewChatService(chatRepo, groupRepo, profileRepo, wsHub, notifier, cfg.Program.ChatHistoryLimit)
	foodService := services.NewFoodService(foodRepo, groupRepo, gemini, storage)
	profileService := services.NewProfileService(profileRepo)
	groupService := services.NewGroupService(groupRepo, wsHub)
	quizService := services.NewQuizService(quizRepo, programService)
	contentService := services.NewContentService(contentRepo, programService)
	progressService := services.NewProgressService(progressRepo, cfg.Program.LengthDays)

	analyzeLimiter := cache.NewRateLimiter(rdb, cache.RateLimitConfig{
		Window:    time.Hour,
		Limit:     cfg.Program.AnalyzePerHour,
		KeyPrefix: "rate_limit:food_analyze",
	})

	// Initialize handlers
	programHandler := handlers.NewProgramHandler(programService, quizService, contentService, progressService)
	shareHandler := handlers.NewShareHandler(shareService)
	buddyHandler := handlers.NewBuddyShareHandler(feedService, commentService, reactionService)
	chatHandler := handlers.NewChatHandler(chatService)
	foodHandler := handlers.NewFoodHandler(foodService)
	profileHandler := handlers.NewProfileHandler(profileService)
	groupHandler := handlers.NewGroupHandler(groupService)
	draftHandler := handlers.NewDraftHandler(cache.NewDraftStore(rdb, draftTTL))
	wsHandler := handlers.NewWebSocketHandler(wsHub, tokenService, chatService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokenService))

		r.Get("/program/today", programHandler.Today)
		r.Get("/quiz", programHandler.GetQuiz)
		r.Post("/quiz/submit", programHandler.SubmitQuiz)
		r.Get("/content", programHandler.GetContent)
		r.Get("/progress", programHandler.GetProgress)

		r.Post("/shares", shareHandler.Submit)
		r.Get("/shares", shareHandler.List)

		r.Get("/buddyshare", buddyHandler.Feed)
		r.Post("/buddyshare/comments", buddyHandler.AddComment)
		r.Get("/buddyshare/comments", buddyHandler.ListComments)
		r.Post("/buddyshare/reactions", buddyHandler.ToggleReaction)

		r.Post("/chat/send", chatHandler.Send)
		r.Get("/chat/messages", chatHandler.Messages)
		r.Get("/chat/unread", chatHandler.Unread)
		r.Post("/chat/read", chatHandler.MarkRead)

		r.Post("/food/save", foodHandler.Save)
		r.With(middleware.RateLimit(analyzeLimiter)).Post("/food/analyze", foodHandler.Analyze)
		r.Post("/food/upload-url", foodHandler.UploadURL)

		r.Get("/user/profile", profileHandler.Get)
		r.Put("/user/profile", profileHandler.Update)
		r.Put("/user/push-token", profileHandler.SetPushToken)

		r.Post("/groups", groupHandler.Create)
		r.Post("/groups/join", groupHandler.Join)
		r.Get("/groups/me", groupHandler.MyGroup)

		r.Get("/drafts/{key}", draftHandler.Get)
		r.Put("/drafts/{key}", draftHandler.Put)
		r.Delete("/drafts/{key}", draftHandler.Delete)
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(cfg.Format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// corsMiddleware allows the configured browser origins
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
