package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
)

// StrandedPayload carries the stranded record to the alerting task.
type StrandedPayload struct {
	Record pooltypes.StrandedAuthorization `json:"record"`
}

// NewStrandedTask creates a stranded authorization alert task.
func NewStrandedTask(record pooltypes.StrandedAuthorization) (*asynq.Task, error) {
	payload, err := json.Marshal(StrandedPayload{Record: record})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStranded, payload), nil
}

// Notifier enqueues operator tasks.
type Notifier struct {
	queue Enqueuer
}

// NewNotifier returns a notifier enqueueing on queue.
func NewNotifier(queue Enqueuer) *Notifier {
	return &Notifier{queue: queue}
}

// NotifyStranded enqueues an alert for record.
func (n *Notifier) NotifyStranded(ctx context.Context, record pooltypes.StrandedAuthorization) error {
	task, err := NewStrandedTask(record)
	if err != nil {
		return err
	}
	_, err = n.queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
	)
	return err
}

// RequestResign enqueues the re-signing of a stranded authorization. Only one
// pending request per record is accepted.
func (n *Notifier) RequestResign(ctx context.Context, id string) (*asynq.TaskInfo, error) {
	task, err := NewResignTask(id)
	if err != nil {
		return nil, err
	}
	return n.queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.TaskID(TypeResign+":"+id),
		asynq.MaxRetry(10),
	)
}

// StrandedLookup reads stranded authorizations.
type StrandedLookup interface {
	GetStranded(ctx context.Context, id string) (pooltypes.StrandedAuthorization, error)
}

// StrandedProcessor raises stranded authorization alerts in the operator log.
type StrandedProcessor struct {
	lookup StrandedLookup
	logger log.Logger
}

// NewStrandedProcessor creates a StrandedProcessor.
func NewStrandedProcessor(lookup StrandedLookup, logger log.Logger) *StrandedProcessor {
	return &StrandedProcessor{lookup: lookup, logger: logger.With("task", TypeStranded)}
}

// ProcessTask processes the stranded alert task.
func (p *StrandedProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload StrandedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	record, err := p.lookup.GetStranded(ctx, payload.Record.ID)
	switch {
	case errors.IsOf(err, pooltypes.ErrStrandedNotFound):
		p.logger.Info("stranded authorization already resolved", "id", payload.Record.ID)
		return nil
	case err != nil:
		return err
	}

	p.logger.Error("stranded withdrawal authorization requires operator action",
		"id", record.ID,
		"principal", record.Principal,
		"amount", record.Amount,
		"destination", record.Destination,
		"attempts", record.Attempts,
		"last_error", record.LastError,
		"created", record.Created(),
	)
	return nil
}
