package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-directory/internal/cache"
	"github.com/weiawesome/wes-directory/internal/card"
	"github.com/weiawesome/wes-directory/internal/carousel"
	"github.com/weiawesome/wes-directory/internal/category"
	"github.com/weiawesome/wes-directory/internal/config"
	"github.com/weiawesome/wes-directory/internal/delivery"
	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/handler"
	"github.com/weiawesome/wes-directory/internal/lookup"
	"github.com/weiawesome/wes-directory/internal/repository"
	"github.com/weiawesome/wes-directory/internal/seed"
	"github.com/weiawesome/wes-directory/internal/service"
	"github.com/weiawesome/wes-directory/pkg/database"
	"github.com/weiawesome/wes-directory/pkg/jwt"
	pkglog "github.com/weiawesome/wes-directory/pkg/log"
	"github.com/weiawesome/wes-directory/pkg/middleware"
	"github.com/weiawesome/wes-directory/pkg/pubsub"
	"github.com/weiawesome/wes-directory/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "directory-service",
		Fields:      cfg.Log.Fields,
	})
	logger := pkglog.L()
	ctx := context.Background()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate
	if err := database.AutoMigrate(db, &domain.EntryModel{}, &domain.CategoryModel{}, &domain.TenantModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Initialize repositories
	categoryRepo := repository.NewGormCategoryRepository(db)
	tenantRepo := repository.NewGormTenantRepository(db)
	entryRepo := newEntryRepository(ctx, cfg, db, logger)

	// Import fixtures
	if cfg.Seed.File != "" {
		loader := seed.NewLoader(tenantRepo, categoryRepo, entryRepo)
		if _, err := loader.LoadFile(ctx, cfg.Seed.File); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Seed.File).Msg("failed to import seed file")
		}
	}

	// Initialize search
	resolver := category.NewResolver(categoryRepo)
	directoryService := service.NewDirectoryService(entryRepo, resolver, cfg.Search)

	// Initialize card rendering
	photos, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to initialize photo storage")
	}
	renderer := card.NewRenderer(photos, cfg.CardConfig())

	packer, err := carousel.NewPacker(renderer, cfg.CarouselConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid carousel limits")
	}

	// Initialize event dedupe
	var deduper cache.EventDeduper
	var sharedRedis *redis.Client
	redisDeduper, err := cache.NewRedisEventDeduper(cache.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Redis.DedupePrefix)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, webhook redeliveries will not be deduplicated")
	} else {
		deduper = redisDeduper
		sharedRedis = redisDeduper.Client()
		defer redisDeduper.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	// Initialize reply delivery
	deliverer, closeDeliverer := newDeliverer(cfg, sharedRedis, logger)
	defer closeDeliverer()

	flow := lookup.NewFlow(directoryService, resolver, packer, tenantRepo, delivery.NewReplier(deliverer))

	// Initialize auth middleware
	jwtManager, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTDuration)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jwt manager")
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Initialize HTTP handlers
	httpHandler := handler.NewHandler(directoryService, flow, authMiddleware, packer.Config().PageSize())
	webhookHandler := handler.NewWebhookHandler(flow, deduper, cfg.Webhook)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger, cfg.Log.QuietPaths...))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)
	webhookHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("directory-service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info().Msg("shutting down directory-service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	webhookHandler.Wait()

	logger.Info().Msg("directory-service stopped")
}

func newEntryRepository(ctx context.Context, cfg *config.Config, db *gorm.DB, logger zerolog.Logger) repository.EntryRepository {
	switch cfg.Store.Driver {
	case "elasticsearch":
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
		}

		// Verify ES connection
		res, err := esClient.Info()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to elasticsearch")
		}
		res.Body.Close()
		logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("elasticsearch connected")

		repo := repository.NewESEntryRepository(esClient, cfg.Elasticsearch.Index)
		if err := repo.EnsureIndex(ctx); err != nil {
			logger.Fatal().Err(err).Str("index", cfg.Elasticsearch.Index).Msg("failed to ensure index")
		}
		return repo
	case "sql", "":
		return repository.NewGormEntryRepository(db)
	default:
		logger.Fatal().Str("driver", cfg.Store.Driver).Msg("unsupported store driver")
		return nil
	}
}

// newDeliverer picks the reply driver. A redis queue reuses the dedupe
// client when there is one.
func newDeliverer(cfg *config.Config, sharedRedis *redis.Client, logger zerolog.Logger) (delivery.Deliverer, func()) {
	switch cfg.Delivery.Driver {
	case "queue":
		publisher, err := pubsub.NewPublisherWithClient(cfg.PubSubConfig(), sharedRedis)
		if err != nil {
			logger.Fatal().Err(err).Str("driver", cfg.Delivery.QueueDriver).Msg("failed to create publisher")
		}
		logger.Info().Str("driver", cfg.Delivery.QueueDriver).Str("topic", cfg.Delivery.Topic).Msg("replies go to queue")
		return delivery.NewQueueDeliverer(publisher, cfg.Delivery.Topic), func() { publisher.Close() }
	case "push", "":
		return delivery.NewPushClient(cfg.Channel), func() {}
	default:
		logger.Fatal().Str("driver", cfg.Delivery.Driver).Msg("unsupported delivery driver")
		return nil, nil
	}
}
