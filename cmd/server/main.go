package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/api"
	"github.com/souqly/marketplace-system/internal/core/service"
	mongodb "github.com/souqly/marketplace-system/internal/infrastructure/db/mongo"
	redisdb "github.com/souqly/marketplace-system/internal/infrastructure/db/redis"
	"github.com/souqly/marketplace-system/internal/infrastructure/platform"
	"github.com/souqly/marketplace-system/internal/infrastructure/storage"
	"github.com/souqly/marketplace-system/internal/pkg/config"
	"github.com/souqly/marketplace-system/pkg/logger"
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx := context.Background()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Infrastructure ---
	feed := redisdb.NewChangeFeed(rdb, cfg.FeedPrefix, log)
	kv := redisdb.NewKVStore(rdb)
	bridge := platform.New(cfg.Platform, log)
	media := storage.NewGridFSStore(db, cfg.PublicBaseURL)

	// --- Repositories (mutations publish to the realtime feed) ---
	listingRepo := mongodb.NewListingRepository(db, feed, log)
	categoryRepo := mongodb.NewCategoryRepository(db, feed, log)
	favoriteRepo := mongodb.NewFavoriteRepository(db, feed, log)
	roleRepo := mongodb.NewRoleRepository(db, feed, log)
	notificationRepo := mongodb.NewNotificationRepository(db, feed, log)
	userRepo := mongodb.NewUserRepository(db)

	ensureIndexes(ctx, log,
		listingRepo.EnsureIndexes,
		categoryRepo.EnsureIndexes,
		favoriteRepo.EnsureIndexes,
		roleRepo.EnsureIndexes,
		notificationRepo.EnsureIndexes,
		userRepo.EnsureIndexes,
	)

	// --- Services ---
	sessions := service.NewSessionProvider(userRepo, cfg.JWTSecret, 24*time.Hour, log)
	resolver := service.NewRoleResolver(roleRepo, log)
	roleAdmin := service.NewRoleAdminService(roleRepo, notificationRepo, log)
	prefs := service.NewPreferencesService(kv, log)
	listings := service.NewListingService(listingRepo, categoryRepo, kv, prefs, log)
	categories := service.NewCategoryService(categoryRepo, log)

	runtimes := service.NewRuntimeManager(favoriteRepo, notificationRepo, resolver, userRepo, kv, feed, bridge, cfg.RoleDebounce, log)
	unbind := runtimes.BindSession(sessions)
	defer unbind()

	e := api.NewRouter(api.Dependencies{
		JWTSecret:   cfg.JWTSecret,
		Log:         log,
		Sessions:    sessions,
		Runtimes:    runtimes,
		Listings:    listings,
		Categories:  categories,
		Preferences: prefs,
		Resolver:    resolver,
		RoleAdmin:   roleAdmin,
		Users:       userRepo,
		Media:       media,
		DB:          db,
		RDB:         rdb,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	runtimes.CloseAll()
}

// ensureIndexes applies each repository's index definitions. A failure is
// logged and skipped: the service still works without indexes, minus the
// uniqueness guarantees, and startup should not flap on a slow primary.
func ensureIndexes(ctx context.Context, log zerolog.Logger, fns ...func(context.Context) error) {
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Msg("index creation failed")
		}
	}
}
