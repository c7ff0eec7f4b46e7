package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/auth"
	"storyframe-server/internal/config"
	"storyframe-server/internal/database"
	"storyframe-server/internal/handler"
	"storyframe-server/internal/logger"
	"storyframe-server/internal/messaging"
	"storyframe-server/internal/repository"
	"storyframe-server/internal/service"
	"storyframe-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	connectMaxRetries = 30
	connectRetryDelay = 3 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	os.Exit(serve())
}

// serve возвращает код выхода; отложенные вызовы выполняются до os.Exit.
func serve() int {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return 1
	}
	log.Info("Server exiting")
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	pool, err := database.Connect(ctx, database.PoolConfig{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
		MaxRetries:  connectMaxRetries,
		RetryDelay:  connectRetryDelay,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := database.NewMigrator(pool, log).Up(ctx); err != nil {
		return err
	}

	redisClient, err := setupRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, closeMQ, err := setupPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeMQ()

	textClient, err := ai.NewTextGenerator(cfg, log.Named("TextClient"))
	if err != nil {
		return err
	}
	mediaClient, err := ai.NewGenAIMediaClient(ctx, cfg.GeminiAPIKey, cfg.ImageModel, cfg.VideoModel, log)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(cfg.MediaStoragePath, cfg.MediaPublicURL, log)
	if err != nil {
		return err
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, log)
	if err != nil {
		return err
	}

	repos := service.StoryRepositories{
		Narratives: repository.NewPgNarrativeRepository(log),
		Chapters:   repository.NewPgChapterRepository(log),
		Frames:     repository.NewPgFrameRepository(log),
		Logs:       repository.NewPgGenerationLogRepository(log),
	}
	txManager := database.NewTxManager(pool)
	lock := repository.NewRedisGenerationLock(redisClient, cfg.GenerationLockTTL, log)

	services := handler.Services{
		Stories: service.NewStoryGenerator(pool, txManager, repos, lock, textClient, publisher, service.GenerationOptions{
			TextModel:          cfg.AIModel,
			DailyStoryQuota:    cfg.DailyStoryQuota,
			MinRequestInterval: cfg.AIRateLimit,
		}, log),
		Regen: service.NewBeatRegenerator(pool, txManager, repos, textClient, publisher, cfg.AIModel, log),
		Media: service.NewMediaService(mediaClient, mediaClient, store, service.VideoOptions{
			DefaultModel: cfg.VideoModel,
			PollInterval: cfg.VideoPollInterval,
			MaxAttempts:  cfg.VideoPollAttempts,
		}, log),
		Covers: service.NewCoverService(pool, repos.Narratives, textClient, mediaClient, store, publisher, log),
		Assist: service.NewAssistService(textClient, log),
		Editor: service.NewStoryEditor(pool, txManager, repos, log),
	}

	router := newRouter(cfg, log)
	handler.NewFunctionsHandler(services, verifier, log).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server listen error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server forced to shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newRouter(cfg *config.Config, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(handler.ZapLoggingMiddleware(log.Named("HTTP")))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	origins := cfg.GetAllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.Static("/media", cfg.MediaStoragePath)

	return router
}

func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	log.Info("Attempting to connect to Redis", zap.String("address", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))

	err := withRetries(ctx, log, "Redis", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// setupPublisher подключается к RabbitMQ. Пустой RABBITMQ_URL отключает события.
func setupPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) (messaging.EventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		log.Warn("RABBITMQ_URL is empty, story events are disabled")
		return nil, func() {}, nil
	}
	log.Info("Attempting to connect to RabbitMQ", zap.String("url", maskURL(cfg.RabbitMQURL)))

	var conn *amqp.Connection
	err := withRetries(ctx, log, "RabbitMQ", func() error {
		var dialErr error
		conn, dialErr = amqp.Dial(cfg.RabbitMQURL)
		return dialErr
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	publisher, err := messaging.NewRabbitMQStoryPublisher(ch, cfg.StoryEventsQueue, log)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}

	go func() {
		if amqpErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); amqpErr != nil {
			log.Error("RabbitMQ connection closed unexpectedly", zap.Error(amqpErr))
		}
	}()

	closeFn := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return publisher, closeFn, nil
}

func withRetries(ctx context.Context, log *zap.Logger, name string, attempt func() error) error {
	var lastErr error
	for i := 1; i <= connectMaxRetries; i++ {
		if lastErr = attempt(); lastErr == nil {
			log.Info("Connected", zap.String("target", name), zap.Int("attempt", i))
			return nil
		}
		log.Warn("Connection failed, retrying...",
			zap.String("target", name),
			zap.Int("attempt", i),
			zap.Int("max_retries", connectMaxRetries),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}
	return fmt.Errorf("failed to connect to %s after %d attempts: %w", name, connectMaxRetries, lastErr)
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	return u.Redacted()
}
