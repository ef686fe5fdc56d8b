package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/atlas/internal/compiler"
	"github.com/MrSnakeDoc/atlas/internal/config"
	"github.com/MrSnakeDoc/atlas/internal/httpserver"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/mw"
	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/redis"
	"github.com/MrSnakeDoc/atlas/internal/scheduler"
	"github.com/MrSnakeDoc/atlas/internal/sources/catalog"
	"github.com/MrSnakeDoc/atlas/internal/storage"
	leveldbstore "github.com/MrSnakeDoc/atlas/internal/store/leveldb"
	redisstore "github.com/MrSnakeDoc/atlas/internal/store/redis"
	"github.com/MrSnakeDoc/atlas/internal/utils"
	"github.com/MrSnakeDoc/atlas/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	levelDB     *leveldbstore.Store
	index       *index.CatalogIndex
	reloader    *scheduler.CatalogReloader
	pruner      *scheduler.SnapshotPruner
}

// New wires the long-running service from the environment.
func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debug("configuration loaded", logger.String("config", fmt.Sprintf("%+v", cfg.Redacted())))
	a := &App{cfg: cfg, logger: loggerClient}

	var stores []scheduler.NamedStore

	// Redis is optional, but once configured it must be reachable
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		stores = append(stores, scheduler.NamedStore{Name: "redis", Store: redisstore.NewStore(client, cfg.RedisCatalogTTL)})
		loggerClient.Info("Redis initialized successfully")
	} else {
		loggerClient.Info("redis not configured, snapshots kept locally only")
	}

	if cfg.LevelDBPath != "" {
		db, err := leveldbstore.Open(cfg.LevelDBPath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open snapshot archive: %w", err)
		}
		a.levelDB = db
		stores = append(stores, scheduler.NamedStore{Name: "leveldb", Store: db})
		loggerClient.Info("snapshot archive opened", logger.String("path", cfg.LevelDBPath))
	}

	var artifacts storage.Storage
	if cfg.PublishArtifacts {
		st, err := NewArtifactStorage(cfg, loggerClient)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to init artifact storage: %w", err)
		}
		artifacts = st
		loggerClient.Info("artifact publishing enabled",
			logger.String("provider", cfg.StorageProvider),
			logger.String("prefix", cfg.ArtifactPrefix))
	}

	a.index = index.NewCatalogIndex()
	comp := compiler.New(loggerClient, catalog.NewMapper()).WithWorkers(cfg.Workers)

	// Serve the last stored catalog while the first compilation runs
	syncer := scheduler.NewStoreSyncer(stores, a.index, comp, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to restore catalog from stores, will compile from sources",
			logger.Error(err))
	}

	reloadTrigger := make(chan struct{}, 1)

	a.reloader = scheduler.NewCatalogReloader(scheduler.CatalogReloaderConfig{
		Source:         catalog.NewLoader(cfg.DataDir),
		Compiler:       comp,
		Index:          a.index,
		Stores:         stores,
		Logger:         loggerClient,
		Interval:       cfg.ReloadInterval,
		Artifacts:      artifacts,
		ArtifactPrefix: cfg.ArtifactPrefix,
		ManualTrigger:  reloadTrigger,
	})

	if len(stores) > 0 {
		a.pruner = scheduler.NewSnapshotPruner(stores, a.index, loggerClient, cfg.PruneInterval, cfg.KeepVersions)
	}

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Index:         a.index,
		Reports:       a.reloader,
		RedisClient:   a.redisClient,
		ReloadTrigger: reloadTrigger,
		RateLimit: mw.RateLimitConfig{
			Burst:             cfg.RateLimitBurst,
			RefillPerIPPerMin: cfg.RateLimitPerMin,
			MaxEntries:        10000,
			TrustProxy:        cfg.TrustProxy,
		},
	}

	a.server = httpserver.New(cfg, loggerClient, d)

	return a, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Atlas v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Compile once, then keep the catalog fresh
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.String("data_dir", a.cfg.DataDir),
		logger.Duration("interval", a.cfg.ReloadInterval))

	if a.pruner != nil {
		if err := a.pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start snapshot pruner: %w", err)
		}
		a.logger.Info("snapshot pruner started",
			logger.Duration("interval", a.cfg.PruneInterval),
			logger.Int("keep", a.cfg.KeepVersions))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.pruner != nil {
		a.pruner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Atlas stopped cleanly")
	return nil
}

// close releases the stores. Safe to call on a partially built App.
func (a *App) close() {
	if a.levelDB != nil {
		utils.MustClose(a.levelDB, "leveldb", a.logger)
		a.levelDB = nil
	}
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
		a.redisClient = nil
	}
	_ = a.logger.Sync()
}
