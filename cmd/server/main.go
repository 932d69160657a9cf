package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/upstream"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		zap.NewExample().Fatal("failed to create logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	log.Info("connected to replica database",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName))

	store, err := newCacheStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	coordinator := cache.NewCoordinator(store, cfg.Cache.ItemTTL, cfg.Cache.ListTTL, log)

	publisher := newEventPublisher(cfg, log)
	if closer, ok := publisher.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	items := persistence.NewGormItemRepository(db.DB)
	meta := persistence.NewGormMetaRepository(db.DB)
	taxonomies := persistence.NewGormTaxonomyRepository(db.DB)
	attachments := persistence.NewGormAttachmentRepository(db.DB)
	lookups := persistence.NewGormLookupRepository(db.DB)

	replicator := appcatalog.NewReplicator(items, meta, taxonomies, attachments, lookups,
		coordinator, publisher, log)
	reads := appcatalog.NewReadService(items, meta, taxonomies, attachments, lookups, coordinator, log)
	lists := appcatalog.NewListService(reads, items, coordinator, log)

	upstreamClient := upstream.NewClient(upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		ConsumerKey:    cfg.Upstream.ConsumerKey,
		ConsumerSecret: cfg.Upstream.ConsumerSecret,
		Timeout:        cfg.Upstream.Timeout,
	}, log)
	writes := appcatalog.NewWriteService(upstreamClient, replicator, log)

	engine := router.New(cfg, log, router.Handlers{
		Product: handler.NewProductHandler(reads, lists, writes),
		Sync:    handler.NewSyncHandler(replicator, writes),
		System:  handler.NewSystemHandler(db, version),
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newCacheStore selects the cache backend: Redis when configured, the
// in-process store otherwise.
func newCacheStore(cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	if cfg.Redis.Enabled() {
		store, err := cache.NewRedisStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		log.Info("using redis cache", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	}
	log.Info("redis not configured, using in-memory cache")
	return cache.NewMemoryStore(), nil
}

// newEventPublisher selects the catalog event publisher.
func newEventPublisher(cfg *config.Config, log *zap.Logger) event.Publisher {
	if cfg.Events.Enabled {
		log.Info("publishing catalog events",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic))
		return event.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
	}
	return event.NoopPublisher{}
}
