// Command server runs the product review HTTP API.
//
// Storage is chosen from DATABASE_URL: mongodb:// and mongodb+srv:// use the
// document store, postgres:// uses PostgreSQL, anything else is a SQLite path.
// When REDIS_URL is set, image lookups are cached in Redis instead of the
// primary store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-review-backend/docs"
	"github.com/tbourn/go-review-backend/internal/cache"
	"github.com/tbourn/go-review-backend/internal/config"
	httpapi "github.com/tbourn/go-review-backend/internal/http"
	"github.com/tbourn/go-review-backend/internal/mongostore"
	"github.com/tbourn/go-review-backend/internal/observability"
	"github.com/tbourn/go-review-backend/internal/providers"
	"github.com/tbourn/go-review-backend/internal/repo"
	"github.com/tbourn/go-review-backend/internal/services"
	"github.com/tbourn/go-review-backend/internal/sysutil"
)

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.Build{
		Version: sysutil.Version(),
		Store:   st.storeKind,
		Cache:   st.cacheKind,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel init failed")
	}

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = sysutil.Version()

	r := gin.New()
	httpapi.RegisterRoutes(r, buildDeps(cfg, st), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", st.storeKind).
			Str("image_cache", st.cacheKind).
			Str("version", sysutil.Version()).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	st.close(shutdownCtx)
	log.Info().Msg("server exited")
}

// storage bundles the catalog and image cache chosen at startup together with
// the handles that need closing on exit.
type storage struct {
	catalog   services.Catalog
	cache     services.ImageCache
	storeKind string
	cacheKind string

	mongo *mongo.Client
	redis *cache.RedisImageCache
}

func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	st := &storage{}

	if mongostore.IsMongoURI(cfg.DatabaseURL) {
		client, err := mongostore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.DBName)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		st.mongo = client
		st.catalog = mongostore.NewStore(db)
		st.cache = mongostore.NewImageCache(db, cfg.ImageCacheTTL)
		st.storeKind, st.cacheKind = "mongo", "store"
	} else {
		db, err := repo.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, err
		}
		imgCache := repo.NewImageCache(db, cfg.ImageCacheTTL)
		go purgeLoop(ctx, imgCache)

		st.catalog = repo.NewStore(db)
		st.cache = imgCache
		st.storeKind, st.cacheKind = "sqlite", "store"
		if repo.IsPostgresDSN(cfg.DatabaseURL) {
			st.storeKind = "postgres"
		}
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.ImageCacheTTL)
		if err != nil {
			// Redis is optional; keep the store-backed cache.
			log.Warn().Err(err).Msg("redis unavailable, using store image cache")
		} else {
			st.redis = rc
			st.cache = rc
			st.cacheKind = "redis"
		}
	}
	return st, nil
}

func (s *storage) close(ctx context.Context) {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}

// purgeLoop deletes expired image cache rows until ctx is cancelled. SQL
// stores have no TTL index to do it for us.
func purgeLoop(ctx context.Context, c *repo.ImageCache) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.Purge(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("image cache purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("image cache purged")
			}
		}
	}
}

func buildDeps(cfg config.Config, st *storage) httpapi.Deps {
	p := cfg.Providers
	policy := providers.Policy{Attempts: p.RetryAttempts, BaseDelay: p.RetryBaseDelay}

	gemini := providers.NewGemini(providers.GeminiConfig{
		APIKey:       p.GoogleAPIKey,
		Model:        p.GeminiModel,
		EmbedModel:   p.GeminiEmbedModel,
		TextTimeout:  p.TextTimeout,
		EmbedTimeout: p.EmbedTimeout,
	}, providers.Options{Policy: policy, Timeout: p.TextTimeout})

	search := providers.NewCustomSearch(providers.CustomSearchConfig{
		APIKey:   p.GoogleAPIKey,
		EngineID: p.SearchEngineID,
		Timeout:  p.ImageTimeout,
	}, providers.Options{Policy: policy, Timeout: p.ImageTimeout})

	unsplash := providers.NewUnsplash(providers.UnsplashConfig{
		AccessKey: p.UnsplashAccessKey,
		Timeout:   p.ImageTimeout,
	}, providers.Options{Policy: policy, Timeout: p.ImageTimeout})

	return httpapi.Deps{
		Catalog:   st.catalog,
		Cache:     st.cache,
		Text:      gemini,
		Embedder:  gemini,
		Primary:   search,
		Secondary: unsplash,
		Generator: providers.NewPollinations(p.ImageGenBaseURL),
		Prober:    providers.NewHTTPProber(nil, p.ImageTimeout),
	}
}
