package bridge

import (
	"github.com/hibiken/asynq"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/bridge/tasks"
	poolkeeper "github.com/sonr-io/vaultbridge/x/pool/keeper"
)

// QueueManager handles Asynq server setup and task registration
type QueueManager struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger log.Logger
	addr   string
}

// NewQueueManager creates a queue manager processing the operator tasks of keeper.
func NewQueueManager(config *Config, keeper *poolkeeper.Keeper, logger log.Logger) *QueueManager {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: config.RedisAddr},
		config.AsynqConfig(),
	)

	mux := asynq.NewServeMux()
	registerTaskHandlers(mux, keeper, logger)

	return &QueueManager{
		server: srv,
		mux:    mux,
		logger: logger,
		addr:   config.RedisAddr,
	}
}

// registerTaskHandlers registers the stranded authorization handlers
func registerTaskHandlers(mux *asynq.ServeMux, keeper *poolkeeper.Keeper, logger log.Logger) {
	mux.Handle(tasks.TypeStranded, tasks.NewStrandedProcessor(keeper, logger))
	mux.Handle(tasks.TypeResign, tasks.NewResignProcessor(keeper, logger))
}

// Start starts the task server without blocking.
func (qm *QueueManager) Start() error {
	qm.logger.Info("starting task server", "redis", qm.addr)
	return qm.server.Start(qm.mux)
}

// Shutdown gracefully shuts down the Asynq server
func (qm *QueueManager) Shutdown() {
	qm.server.Shutdown()
}
