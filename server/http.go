package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"videohub/config"
	"videohub/constant"
	"videohub/handler"
	"videohub/pkg/mediastore"
	"videohub/pkg/rabbitmq"
	"videohub/repository"
	"videohub/service"
)

func RunHttp(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	logger.Info().
		Str("env", cfg.App.Environment).
		Str("baseUrl", cfg.App.BaseURL()).
		Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).
		Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := repository.NewRepo(cfg.DB)
	store := mediastore.New(cfg.Storage, mediastore.Options{
		Bucket:          cfg.MinIOBucket,
		PublicURL:       cfg.Media.PublicURL,
		SecurePublicURL: cfg.Media.SecurePublicURL,
		Probe:           mediastore.FFProbe(cfg.Media.FFProbePath),
	})
	if err := mediastore.EnsureBucket(ctx, cfg.Storage, cfg.MinIOBucket); err != nil {
		logger.Error().Err(err).Str("bucket", cfg.MinIOBucket).Msg("EnsureBucket")
	}

	g, ctx := errgroup.WithContext(ctx)

	var queue service.CleanupQueue
	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	switch {
	case errors.Is(err, config.ErrQueueDisabled):
		logger.Warn().Msg("asset cleanup queue disabled, failed compensations are only logged")
	case err != nil:
		logger.Error().Err(err).Msg("NewRabbitMQConn")
	default:
		topology := rabbitmq.AssetCleanupTopology(cfg.Queue.ExchangeName)
		publisher, err := rabbitmq.NewPublisher(conn, cfg.Queue, topology)
		if err != nil {
			logger.Error().Err(err).Msg("NewPublisher")
		} else {
			queue = publisher
		}

		serviceDeps := handler.ServiceDependencies{
			CleanupService: service.NewCleanupService(store),
		}
		cleanupConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, topology, cfg.Server.Workers, handler.AssetCleanupHandler)
		g.Go(func() error {
			err := cleanupConsumer.Consume(ctx, serviceDeps)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("Asset cleanup consumer error")
			}
			return nil
		})
	}

	videoService := service.NewVideoService(repo, store, queue)

	r := gin.Default()
	r.MaxMultipartMemory = cfg.Upload.MaxMemory
	r.Use(handler.RequestLogger(*logger), cors.New(corsConfig(cfg)))
	addHealth(r)
	api := r.Group("/api/v1")
	handler.NewVideoHandler(videoService, cfg.Upload.TempDir).Register(api)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("env", cfg.App.Environment).Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil {
		logger.Error().Str("env", cfg.App.Environment).Err(err).Msg("server stopped with error")
	}
	if closeErr := cfg.DB.Close(); closeErr != nil {
		logger.Error().Err(closeErr).Msg("failed to close database")
	}

	logger.Info().Str("env", cfg.App.Environment).Msg("server shutdown")
	return err
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = cfg.Server.AllowedOrigins
	if len(c.AllowOrigins) == 0 || (len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*") {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	c.AddAllowHeaders(handler.UserIdHeader)
	c.MaxAge = 12 * time.Hour
	return c
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
