// Package bridge runs the vault bridge service: the HTTP API over the pool
// and vault keepers plus the operator task queue.
package bridge

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/app"
	"github.com/sonr-io/vaultbridge/bridge/handlers"
	"github.com/sonr-io/vaultbridge/bridge/server"
	"github.com/sonr-io/vaultbridge/bridge/tasks"
)

// BridgeService encapsulates the bridge service setup and lifecycle
type BridgeService struct {
	config       *Config
	logger       log.Logger
	app          *app.App
	client       *asynq.Client
	notifier     *tasks.Notifier
	httpServer   *server.Server
	queueManager *QueueManager
	health       *handlers.HealthChecker
}

// NewBridgeService creates the bridge service with all components initialized
func NewBridgeService(config *Config, logger log.Logger) (*BridgeService, error) {
	a, err := app.New(logger, config.AppOptions())
	if err != nil {
		return nil, err
	}

	// Stranded alerts and re-sign requests go through Redis
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: config.RedisAddr})
	notifier := tasks.NewNotifier(client)
	a.PoolKeeper.SetStrandedNotifier(notifier)

	health := handlers.NewHealthChecker(
		handlers.RedisCheck(client),
		handlers.HealthCheck{
			Name:     "pool_invariant",
			Critical: true,
			Check:    a.PoolKeeper.CheckInvariant,
		},
	)

	decimals := int32(config.Decimals)
	httpServer := server.NewServer(&server.Config{
		HTTPAddr:  config.HTTPAddr(),
		JWTSecret: []byte(config.JWTSecret),
	}, server.Handlers{
		Pool:   handlers.NewPoolHandlers(a.PoolKeeper, decimals),
		Vault:  handlers.NewVaultHandlers(a.VaultKeeper, decimals),
		Admin:  handlers.NewAdminHandlers(a.PoolKeeper, notifier),
		Health: health,
	})

	return &BridgeService{
		config:       config,
		logger:       logger,
		app:          a,
		client:       client,
		notifier:     notifier,
		httpServer:   httpServer,
		queueManager: NewQueueManager(config, a.PoolKeeper, logger),
		health:       health,
	}, nil
}

// App returns the wired keepers.
func (bs *BridgeService) App() *app.App {
	return bs.app
}

// Notifier returns the operator task notifier.
func (bs *BridgeService) Notifier() *tasks.Notifier {
	return bs.notifier
}

// Run serves HTTP and processes tasks until ctx is done or a component fails.
func (bs *BridgeService) Run(ctx context.Context) error {
	bs.logger.Info("starting bridge service", "addr", bs.config.HTTPAddr(), "profile", bs.config.KeyProfile)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := bs.httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return bs.queueManager.Start()
	})

	g.Go(func() error {
		return bs.health.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		bs.logger.Info("shutting down bridge service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), bs.config.ShutdownTimeout)
		defer cancel()

		bs.queueManager.Shutdown()
		return bs.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the queue client, the signer and the store.
func (bs *BridgeService) Close() error {
	var errs []error
	if bs.client != nil {
		errs = append(errs, bs.client.Close())
	}
	if bs.app != nil {
		errs = append(errs, bs.app.Close())
	}
	bs.logger.Info("bridge service stopped")
	return errors.Join(errs...)
}
