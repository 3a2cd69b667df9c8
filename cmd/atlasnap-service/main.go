// @title Atlasnap Media API
// @version 1.0
// @description Presigned upload, confirmation and metadata management for user media.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/princekumarofficial/atlasnap-service/docs"
	"github.com/princekumarofficial/atlasnap-service/internal/cache"
	"github.com/princekumarofficial/atlasnap-service/internal/config"
	"github.com/princekumarofficial/atlasnap-service/internal/events"
	"github.com/princekumarofficial/atlasnap-service/internal/http/handlers/health"
	mediaHandlers "github.com/princekumarofficial/atlasnap-service/internal/http/handlers/media"
	"github.com/princekumarofficial/atlasnap-service/internal/http/handlers/users"
	wsHandler "github.com/princekumarofficial/atlasnap-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/atlasnap-service/internal/http/middleware"
	mediaService "github.com/princekumarofficial/atlasnap-service/internal/services/media"
	"github.com/princekumarofficial/atlasnap-service/internal/storage"
	"github.com/princekumarofficial/atlasnap-service/internal/storage/minio"
	"github.com/princekumarofficial/atlasnap-service/internal/storage/postgres"
	"github.com/princekumarofficial/atlasnap-service/internal/websocket"
)

func main() {
	cfg := config.MustLoad()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// database setup
	if err := postgres.Migrate(cfg.PGSQL.DSN()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	db, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()
	slog.Info("Connected to Postgres database")

	// object storage setup
	blobs, err := minio.New(cfg.MinIO)
	if err != nil {
		log.Fatal("Failed to initialize MinIO client:", err)
	}
	if cfg.MinIO.CreateBucket {
		if err := blobs.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure bucket:", err)
		}
	}
	slog.Info("MinIO client ready", slog.String("bucket", blobs.Bucket()))

	// redis backs the user cache and the upload rate limiter; both are
	// skipped when no address is configured
	var (
		redisClient *redis.Client
		userStore   storage.UserStore = db
		rateLimits  *middleware.RateLimitConfig
	)
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis is unreachable at startup", slog.String("error", err.Error()))
		}
		userStore = cache.NewUserCache(db, redisClient)

		if cfg.RateLimit.Enabled {
			rateLimits = middleware.NewRateLimitConfig(redisClient, cfg.RateLimit)
		}
	}

	// real-time events
	hub := websocket.NewHub()
	go hub.Run(ctx)
	publisher := events.NewEventPublisher(hub)

	svc := mediaService.NewService(db, blobs, cfg.Media, blobs.Bucket(), mediaService.WithNotifier(publisher))
	idp := middleware.NewJWTIdentityProvider(userStore, cfg.JWTSecret)
	requireUser := middleware.VerifiedAuthMiddleware(idp)

	// setup router
	router := http.NewServeMux()

	health.RegisterRoutes(router, health.NewHealthHandlers(db, redisClient, hub))
	users.RegisterRoutes(router, users.NewUserHandlers(userStore, cfg.JWTSecret, cfg.JWTLifetime), middleware.AuthMiddleware(idp))
	mediaHandlers.RegisterRoutes(router, mediaHandlers.NewMediaHandlers(svc), func(action string, next http.Handler) http.Handler {
		if action != "" {
			next = rateLimits.RateLimitedHandler(action, next)
		}
		return requireUser(next)
	})
	router.HandleFunc("GET /ws", wsHandler.WebSocketHandler(hub, idp))
	router.Handle("GET /metrics", promhttp.Handler())
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      middleware.Chain(router, middleware.RequestLogger(logger), middleware.MetricsMiddleware()),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	slog.Info("Server started", slog.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Env == "local" || cfg.Env == "dev" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
