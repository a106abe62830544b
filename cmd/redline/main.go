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

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/redline/internal/ai"
	"github.com/xxxsen/redline/internal/config"
	"github.com/xxxsen/redline/internal/filestore"
	"github.com/xxxsen/redline/internal/handler"
	"github.com/xxxsen/redline/internal/job"
	"github.com/xxxsen/redline/internal/middleware"
	"github.com/xxxsen/redline/internal/repo"
	"github.com/xxxsen/redline/internal/schedule"
	"github.com/xxxsen/redline/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "redline",
		Short: "redline document revision server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run redline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cmd.Context(), cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(runCmd, newDiffCommand())

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.AI.Cache.Type),
	)

	store, memStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	gateway, err := buildGateway(ctx, cfg.AI)
	if err != nil {
		return err
	}
	analyzer := ai.NewAnalyzer(gateway, ai.WithSynthesisProvider(cfg.AI.SynthesisProvider))
	documentService := service.NewDocumentService(store)
	aiService := service.NewAIService(gateway, analyzer, documentService, cfg.AI.MaxInputChars)

	deps := handler.RouterDeps{
		Documents:   handler.NewDocumentHandler(documentService),
		Revisions:   handler.NewRevisionHandler(documentService),
		AI:          handler.NewAIHandler(aiService),
		AIRateLimit: time.Duration(cfg.AI.RateLimit) * time.Second,
	}

	if cfg.Snapshot.Enabled && memStore != nil {
		files, err := filestore.New(cfg.FileStore)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
		snapshotJob := job.NewSnapshotJob(memStore, files, cfg.Snapshot.Key)
		if _, err := snapshotJob.Restore(ctx); err != nil {
			return err
		}
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(snapshotJob, cfg.Snapshot.Cron); err != nil {
			return fmt.Errorf("schedule snapshot: %w", err)
		}
		scheduler.Start(ctx)
		defer func() {
			scheduler.Stop()
			if err := snapshotJob.Run(context.Background()); err != nil {
				logutil.GetLogger(context.Background()).Error("final snapshot failed", zap.Error(err))
			}
		}()
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// openStore returns the configured store; the memory store is also returned
// so it can be snapshotted.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repo.Store, *repo.MemoryStore, error) {
	if cfg.Driver == config.DriverMemory {
		mem := repo.NewMemoryStore()
		return mem, mem, nil
	}
	db, err := repo.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return repo.NewSQLStore(db), nil, nil
}

func buildGateway(ctx context.Context, cfg config.AIConfig) (*ai.Gateway, error) {
	providers := make([]ai.IProvider, 0, len(cfg.Providers))
	for _, item := range cfg.Providers {
		p, err := ai.NewProvider(item.Name, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", item.Name, err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		logutil.GetLogger(ctx).Warn("no ai provider configured, ai routes will fail")
	}
	opts := []ai.GatewayOption{
		ai.WithDefaultProvider(cfg.DefaultProvider),
		ai.WithFallback(cfg.FallbackProvider),
		ai.WithTimeout(time.Duration(cfg.Timeout) * time.Second),
		ai.WithMaxTokens(cfg.MaxTokens),
	}
	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	switch cfg.Cache.Type {
	case "lru":
		opts = append(opts, ai.WithCache(ai.NewLRUCache(cfg.Cache.Size, ttl)))
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		opts = append(opts, ai.WithCache(ai.NewRedisCache(client, cfg.Cache.Redis.Prefix, ttl)))
	}
	return ai.NewGateway(providers, opts...), nil
}
