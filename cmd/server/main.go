// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command server is the entry point for the MediaVault HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Check the password hash and the media roots.
//  4. Load the blacklist ledger.
//  5. Connect to MongoDB, ensure catalog indexes, and connect Redis when configured.
//  6. Reset the grant folders and build every media index once.
//  7. Wire the gate pipeline and the HTTP handlers.
//  8. Start the background supervisor and the HTTP server with graceful shutdown.
//
// Every startup failure exits with the status of its category (see exitcode).
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/mediavault/internal/api"
	"github.com/taibuivan/mediavault/internal/auth"
	"github.com/taibuivan/mediavault/internal/catalog"
	"github.com/taibuivan/mediavault/internal/gate"
	"github.com/taibuivan/mediavault/internal/index"
	"github.com/taibuivan/mediavault/internal/media"
	"github.com/taibuivan/mediavault/internal/platform/config"
	"github.com/taibuivan/mediavault/internal/platform/constants"
	"github.com/taibuivan/mediavault/internal/platform/exitcode"
	"github.com/taibuivan/mediavault/internal/platform/migration"
	mongostore "github.com/taibuivan/mediavault/internal/platform/mongo"
	redisstore "github.com/taibuivan/mediavault/internal/platform/redis"
	"github.com/taibuivan/mediavault/internal/platform/sec"
	"github.com/taibuivan/mediavault/internal/platform/supervisor"
	"github.com/taibuivan/mediavault/internal/provision"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	if err := run(log); err != nil {
		fatal(log, err)
	}

	log.Info("server_stopped_cleanly")
}

func run(log *slog.Logger) error {
	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return exitcode.Wrap(exitcode.Config, "load configuration", err)
	}

	if cfg.Server.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Server.Environment),
		slog.String("port", cfg.Server.Port),
	)

	// ── 3. Preconditions ──────────────────────────────────────────────────
	if err := auth.CheckHashFile(cfg.Security.PasswordHashFile); err != nil {
		return exitcode.Wrap(exitcode.Admin, "check password hash", err)
	}

	mediaRoots := map[string]string{
		constants.KindManga:     cfg.Media.MangaDir,
		constants.KindVideo:     cfg.Media.VideoDir,
		constants.KindSubtitles: cfg.Media.SubtitlesDir,
	}
	for kind, dir := range mediaRoots {
		if err := requireDir(dir); err != nil {
			return exitcode.Wrap(exitcode.Environment, "check "+kind+" root", err)
		}
	}

	// ── 4. Blacklist ──────────────────────────────────────────────────────
	blacklist, err := gate.OpenBlacklist(cfg.Security.BlacklistFile, log)
	if err != nil {
		return exitcode.Wrap(exitcode.Admin, "load blacklist", err)
	}
	defer blacklist.Wait()

	// Root context for startup. Misconfiguration is caught quickly rather
	// than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	// ── 5. Metadata Stores ────────────────────────────────────────────────
	mongoClient, err := mongostore.NewClient(startupCtx, cfg.Mongo.URI, log)
	if err != nil {
		return exitcode.Wrap(exitcode.Database, "connect to mongo", err)
	}
	defer func() {
		log.Info("closing_mongo_client")
		if cerr := mongoClient.Disconnect(context.Background()); cerr != nil {
			log.Error("mongo_close_error", slog.Any("error", cerr))
		}
	}()

	metadata := mongoClient.Database(cfg.Mongo.Database)
	if err := migration.EnsureIndexes(startupCtx, metadata, []string{cfg.Mongo.MangaCollection, cfg.Mongo.VideoCollection}, log); err != nil {
		return exitcode.Wrap(exitcode.Database, "ensure catalog indexes", err)
	}

	var catalogStore catalog.Store = catalog.NewMongoStore(metadata, map[string]string{
		constants.KindManga: cfg.Mongo.MangaCollection,
		constants.KindVideo: cfg.Mongo.VideoCollection,
	})

	healthDeps := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return mongostore.Ping(ctx, mongoClient)
		},
	}

	if cfg.Redis.URL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.Redis.URL, cfg.Redis.CacheTTL, log)
		if err != nil {
			return exitcode.Wrap(exitcode.Database, "connect to redis", err)
		}
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		catalogStore = catalog.NewCachedStore(catalogStore, catalog.NewRedisCache(rdb), cfg.Redis.CacheTTL, log)
		healthDeps.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}

	// ── 6. Media Grants & Indexes ─────────────────────────────────────────
	provisioner, err := provision.New(cfg.Media.GrantRoot, cfg.MediaLinks(), cfg.Media.GrantSuffixLength, log)
	if err != nil {
		return exitcode.Wrap(exitcode.Filesystem, "prepare grant root", err)
	}
	if err := provisioner.PurgeAll(); err != nil {
		return exitcode.Wrap(exitcode.Filesystem, "purge grants", err)
	}

	subtitleFiles := os.DirFS(cfg.Media.SubtitlesDir)
	mangaIndex := index.New(constants.KindManga, os.DirFS(cfg.Media.MangaDir), index.ScanChapters, cfg.Media.IndexWorkers, log)
	videoIndex := index.New(constants.KindVideo, os.DirFS(cfg.Media.VideoDir), index.ScanEpisodes, cfg.Media.IndexWorkers, log)
	subtitleIndex := index.New(constants.KindSubtitles, subtitleFiles, index.ScanSubtitles, cfg.Media.IndexWorkers, log)

	builds := []struct {
		kind  string
		build supervisor.Task
	}{
		{constants.KindManga, mangaIndex.Build},
		{constants.KindVideo, videoIndex.Build},
		{constants.KindSubtitles, subtitleIndex.Build},
	}
	// The first scan is not bounded by the startup timeout: a large library may
	// take longer, and only an unreadable root is fatal.
	for _, b := range builds {
		if err := b.build(context.Background()); err != nil {
			return exitcode.Wrap(exitcode.Filesystem, "index "+b.kind, err)
		}
	}
	healthDeps.Indexes = []api.IndexProbe{mangaIndex, videoIndex, subtitleIndex}

	// ── 7. Gate & Handlers ────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.Security.TokenSecret, constants.AppName, cfg.Security.TokenTTL)
	if err != nil {
		return exitcode.Wrap(exitcode.Config, "initialize token service", err)
	}

	reputation := gate.NewReputationStore(cfg.Security.FailureThreshold, blacklist, log)
	pipeline := gate.NewPipeline(blacklist, reputation, tokens, provisioner, gate.Options{
		TrustProxy:        cfg.Server.TrustProxy,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
	}, log)

	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	server := api.NewServer(cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   promhttp.Handler(),
		Gate:      pipeline,
		Auth:      auth.NewHandler(auth.NewService(cfg.Security.PasswordHashFile, tokens, provisioner)),
		Media:     media.NewHandler(mangaIndex, videoIndex, subtitleIndex, subtitleFiles),
		Catalog:   catalog.NewHandler(catalogStore),
		GrantRoot: provisioner.Root(),
	})

	// ── 8. Background Work ────────────────────────────────────────────────
	tree := supervisor.NewTree(log, supervisor.TreeConfig{})
	for _, b := range builds {
		tree.AddIndexService(supervisor.NewPeriodic("index-"+b.kind, cfg.Media.IndexRefresh, b.build, log))
	}
	tree.AddGateService(supervisor.NewPeriodic("blacklist-refresh", cfg.Security.BlacklistRefresh, func(context.Context) error {
		return blacklist.Refresh()
	}, log))
	tree.AddGateService(supervisor.NewPeriodic("reputation-sweep", cfg.Security.ReputationSweep, func(context.Context) error {
		if removed := reputation.Sweep(cfg.Security.ReputationRetention); removed > 0 {
			log.Debug("reputation_swept", slog.Int("removed", removed))
		}
		return nil
	}, log))

	treeCtx, stopTree := context.WithCancel(context.Background())
	treeDone := tree.ServeBackground(treeCtx)

	// ── 9. Serve & Graceful Shutdown ──────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = exitcode.Wrap(exitcode.Environment, "listen", err)
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	stopTree()
	if err := <-treeDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error("supervisor_stopped_with_error", slog.Any("error", err))
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		log.Warn("services_not_stopped", slog.Int("count", len(report)))
	}

	return runErr
}

// newLogger builds the process-wide JSON logger and makes it the default.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

// requireDir reports an error unless path is an existing directory.
func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// fatal logs a structured startup failure and exits with its category status.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func fatal(log *slog.Logger, err error) {
	var failure *exitcode.FatalError
	attrs := []any{slog.Any("error", err), slog.Int("exit_code", exitcode.CodeOf(err))}
	if errors.As(err, &failure) {
		attrs = append(attrs, slog.String("category", failure.Category.String()), slog.String("step", failure.Step))
	}

	log.Error("startup_failure", attrs...)
	os.Exit(exitcode.CodeOf(err))
}
