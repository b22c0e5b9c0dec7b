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

// ResignPayload names the stranded authorization to re-sign.
type ResignPayload struct {
	ID string `json:"id"`
}

// NewResignTask creates a re-sign task.
func NewResignTask(id string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResignPayload{ID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResign, payload), nil
}

// Resigner re-signs stranded authorizations.
type Resigner interface {
	ResignStranded(ctx context.Context, id string) (string, error)
}

// ResignProcessor implements asynq.Handler for re-sign tasks.
type ResignProcessor struct {
	resigner Resigner
	logger   log.Logger
}

// NewResignProcessor creates a ResignProcessor.
func NewResignProcessor(resigner Resigner, logger log.Logger) *ResignProcessor {
	return &ResignProcessor{resigner: resigner, logger: logger.With("task", TypeResign)}
}

// ProcessTask processes the re-sign task. Oracle failures are retried by the
// queue; a record that no longer exists is not.
func (p *ResignProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ResignPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ID == "" {
		return fmt.Errorf("empty stranded authorization id: %w", asynq.SkipRetry)
	}

	if _, err := p.resigner.ResignStranded(ctx, payload.ID); err != nil {
		if errors.IsOf(err, pooltypes.ErrStrandedNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	p.logger.Info("stranded authorization resolved", "id", payload.ID)
	return nil
}
