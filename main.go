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
	"time"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/avatars"
	"github.com/OdenEater/wedding-sns/internal/config"
	"github.com/OdenEater/wedding-sns/internal/handler"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/OdenEater/wedding-sns/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	if !cfg.IsProduction() {
		observability.SetLevel(slog.LevelDebug)
	}
	logger := observability.GlobalLogger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================
	// Database
	// ============================================

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("failed to ping database: ", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatal("failed to migrate: ", err)
	}

	// ============================================
	// Realtime
	// ============================================

	hub := realtime.NewHub()
	defer hub.Shutdown()

	// REDIS_URL 未設定ならインスタンス内配信のみ
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL: ", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}
	notifier := realtime.NewNotifier(rdb, hub)
	if err := notifier.Start(ctx); err != nil {
		log.Fatal("failed to subscribe realtime channel: ", err)
	}

	// ============================================
	// Services
	// ============================================

	tokens := auth.NewTokens(cfg.JWTSecret)
	authSvc := service.NewAuthService(repository.NewAuthRepository(pool), tokens, cfg.IsAdmin)
	postSvc := service.NewPostService(
		repository.NewPostRepository(pool),
		repository.NewFeedRepository(pool),
		repository.NewLikeRepository(pool),
		notifier,
	)
	profileSvc := service.NewProfileService(repository.NewProfileRepository(pool), avatars.Default())
	setlistSvc := service.NewSetlistService(repository.NewSetlistRepository(pool), notifier)

	deps := handler.Deps{
		Auth:     authSvc,
		Posts:    postSvc,
		Profiles: profileSvc,
		Setlist:  setlistSvc,
		Tokens:   tokens,
		Hub:      hub,
	}
	if cfg.OAuthEnabled() {
		deps.OAuth = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	}

	origins := cfg.Origins()
	afterLogin := "/"
	if len(origins) > 0 {
		afterLogin = origins[0] + "/"
	}

	h := handler.New(deps, handler.Options{
		AllowAnonymous: cfg.AllowAnonymousTimeline,
		AllowedOrigins: origins,
		SecureCookies:  cfg.IsProduction(),
		GroomName:      cfg.GroomName,
		BrideName:      cfg.BrideName,
		AfterLoginURL:  afterLogin,
	})

	// ============================================
	// Server
	// ============================================

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.Bool("redis", rdb != nil),
			slog.Bool("oauth", cfg.OAuthEnabled()),
			slog.Bool("anonymous_timeline", cfg.AllowAnonymousTimeline),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
