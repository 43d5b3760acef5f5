// Package app wires the orchestrator's configuration, infrastructure
// connections, and runtime mode into a running process.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xcord-net/xcord-hub/internal/config"
	"github.com/xcord-net/xcord-hub/internal/httpserver"
	"github.com/xcord-net/xcord-hub/internal/kek"
	"github.com/xcord-net/xcord-hub/internal/platform"
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/internal/telemetry"
	"github.com/xcord-net/xcord-hub/internal/version"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/destruction"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/provisioning"
)

// defaultTiers is the orchestrator's built-in tier table, keyed by
// store.FeatureTier. spec.md names no operator-configurable tier-table key,
// so these are the orchestrator's fixed defaults for instance caps and
// per-container resource limits.
var defaultTiers = map[string]orchestrator.TierLimits{
	string(store.FeatureTierChat):  {MaxInstances: 3, MaxMemoryMB: 512, MaxCPUPercent: 50},
	string(store.FeatureTierAudio): {MaxInstances: 10, MaxMemoryMB: 1024, MaxCPUPercent: 100},
	string(store.FeatureTierVideo): {MaxInstances: store.UnlimitedUserCountTier, MaxMemoryMB: 2048, MaxCPUPercent: 200},
}

// Run reads config, connects to infrastructure, and starts the configured
// mode: "worker", "reconciler", "both", or "migrate".
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting xcord-hub orchestrator",
		"mode", cfg.Mode,
		"version", version.Version,
	)

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	if cfg.Mode == "migrate" {
		return nil
	}

	instanceKEK, err := kek.Load(cfg.KEKFilePath)
	if err != nil {
		return fmt.Errorf("loading KEK: %w", err)
	}

	st := store.New(db)
	driverSet := buildDrivers(cfg)
	metricsReg := telemetry.NewMetricsRegistry(orchestrator.Collectors()...)

	orchCfg := orchestrator.Config{
		BaseDomainSuffix:          cfg.BaseDomainSuffix,
		GatewayIP:                 cfg.GatewayIP,
		BucketPrefix:              cfg.ObjectStoreBucketPrefix,
		InfraNetworkName:          cfg.InfraNetworkName,
		ProxyServerName:           cfg.ProxyServerName,
		RootStorageAccessKey:      cfg.ObjectStoreRootAccessKey,
		RootStorageSecretKey:      cfg.ObjectStoreRootSecretKey,
		Tiers:                     defaultTiers,
		SMTPHost:                  cfg.SMTPHost,
		SMTPPort:                  cfg.SMTPPort,
		SMTPUsername:              cfg.SMTPUsername,
		SMTPPassword:              cfg.SMTPPassword,
		SMTPFromAddress:           cfg.SMTPFromAddress,
		RateLimitWindowSeconds:    cfg.RateLimitWindowSeconds,
		RateLimitMaxRequests:      cfg.RateLimitMaxRequests,
		OutboxPollIntervalSeconds: cfg.OutboxPollIntervalSeconds,
		OutboxBatchSize:           cfg.OutboxBatchSize,
	}

	workerPollInterval, err := time.ParseDuration(cfg.WorkerPollInterval)
	if err != nil {
		return fmt.Errorf("parsing WORKER_POLL_INTERVAL: %w", err)
	}
	reconcilerInterval, err := time.ParseDuration(cfg.ReconcilerInterval)
	if err != nil {
		return fmt.Errorf("parsing RECONCILER_INTERVAL: %w", err)
	}
	reconcilerLease, err := time.ParseDuration(cfg.ReconcilerLeaseDuration)
	if err != nil {
		return fmt.Errorf("parsing RECONCILER_LEASE_DURATION: %w", err)
	}

	worker := &orchestrator.Worker{
		Store:             st,
		Drivers:           driverSet,
		KEK:               instanceKEK,
		Logger:            logger,
		Config:            orchCfg,
		PollInterval:      workerPollInterval,
		ProvisioningSteps: provisioning.Steps(),
		DestructionSteps:  destruction.Steps(),
	}
	reconciler := &orchestrator.Reconciler{
		Store:    st,
		Drivers:  driverSet,
		Redis:    rdb,
		Logger:   logger,
		Interval: reconcilerInterval,
		LeaseTTL: reconcilerLease,
		Config:   orchCfg,
	}

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg)
	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 3)
	go func() {
		logger.Info("operational server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("operational server: %w", err)
		}
	}()

	switch cfg.Mode {
	case "worker":
		go func() { errCh <- worker.Run(ctx) }()
	case "reconciler":
		go func() { errCh <- reconciler.Run(ctx) }()
	case "both":
		go func() { errCh <- worker.Run(ctx) }()
		go func() { errCh <- reconciler.Run(ctx) }()
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildDrivers wires the real HTTP-backed driver implementations from
// config. The orchestrator only ever runs against live infrastructure;
// drivers/stub.Set is reserved for tests.
func buildDrivers(cfg *config.Config) *drivers.Set {
	return &drivers.Set{
		ContainerEngine:     drivers.NewHTTPContainerEngine(cfg.ContainerEngineEndpoint),
		DNSProvider:         drivers.NewHTTPDnsProvider(cfg.DNSProviderEndpoint, cfg.DNSProviderAPIKey, cfg.DNSZone),
		ReverseProxyManager: drivers.NewHTTPReverseProxyManager(cfg.ProxyAdminEndpoint, cfg.ProxyServerName),
		ObjectStoreManager:  drivers.NewHTTPObjectStoreManager(cfg.ObjectStoreAdminEndpoint, cfg.ObjectStoreRootAccessKey, cfg.ObjectStoreRootSecretKey),
		InstanceNotifier:    drivers.NewHTTPInstanceNotifier(),
	}
}
