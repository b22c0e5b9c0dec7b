// Package tasks provides the operator queue tasks of the bridge: alerts for
// stranded withdrawal authorizations and their re-signing.
package tasks

import (
	"context"

	"github.com/hibiken/asynq"
)

// A list of task types.
const (
	TypeStranded = "bridge:stranded" // Alert on a debit whose signature was not produced
	TypeResign   = "bridge:resign"   // Re-sign a stranded authorization
)

// Queue names, matching the weights configured on the queue server.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Enqueuer is the part of *asynq.Client the bridge uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Pinger checks the Redis connection behind a queue client.
type Pinger interface {
	Ping() error
}
