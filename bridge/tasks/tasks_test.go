package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/oracle"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
)

// mockEnqueuer records enqueued tasks instead of talking to Redis.
type mockEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload(), Queue: QueueCritical}, nil
}

// mockKeeper serves stranded lookups and re-signs.
type mockKeeper struct {
	records map[string]pooltypes.StrandedAuthorization
	signErr error
	calls   int
}

func (m *mockKeeper) GetStranded(_ context.Context, id string) (pooltypes.StrandedAuthorization, error) {
	r, ok := m.records[id]
	if !ok {
		return r, errors.Wrap(pooltypes.ErrStrandedNotFound, id)
	}
	return r, nil
}

func (m *mockKeeper) ResignStranded(ctx context.Context, id string) (string, error) {
	m.calls++
	if _, err := m.GetStranded(ctx, id); err != nil {
		return "", err
	}
	if m.signErr != nil {
		return "", m.signErr
	}
	delete(m.records, id)
	return "abcd", nil
}

var testRecord = pooltypes.StrandedAuthorization{
	ID:          "7f0e2c6c-6f5e-4c0e-9a51-0d8f3b1d2a11",
	Principal:   "P",
	Amount:      40,
	Destination: "dest",
	LastError:   "oracle unavailable",
	Attempts:    1,
}

func TestNotifierEnqueuesTasks(t *testing.T) {
	q := &mockEnqueuer{}
	n := NewNotifier(q)

	require.NoError(t, n.NotifyStranded(context.Background(), testRecord))
	info, err := n.RequestResign(context.Background(), testRecord.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeResign, info.Type)

	require.Len(t, q.tasks, 2)
	assert.Equal(t, TypeStranded, q.tasks[0].Type())
	assert.Equal(t, TypeResign, q.tasks[1].Type())

	var stranded StrandedPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &stranded))
	assert.Equal(t, testRecord, stranded.Record)

	var resign ResignPayload
	require.NoError(t, json.Unmarshal(q.tasks[1].Payload(), &resign))
	assert.Equal(t, testRecord.ID, resign.ID)
}

func TestNotifierSurfacesQueueErrors(t *testing.T) {
	n := NewNotifier(&mockEnqueuer{err: asynq.ErrTaskIDConflict})
	_, err := n.RequestResign(context.Background(), testRecord.ID)
	require.ErrorIs(t, err, asynq.ErrTaskIDConflict)
}

func TestStrandedProcessor(t *testing.T) {
	keeper := &mockKeeper{records: map[string]pooltypes.StrandedAuthorization{testRecord.ID: testRecord}}
	p := NewStrandedProcessor(keeper, log.NewNopLogger())

	task, err := NewStrandedTask(testRecord)
	require.NoError(t, err)
	require.NoError(t, p.ProcessTask(context.Background(), task))

	delete(keeper.records, testRecord.ID)
	require.NoError(t, p.ProcessTask(context.Background(), task), "resolved records are not alerts")

	err = p.ProcessTask(context.Background(), asynq.NewTask(TypeStranded, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestResignProcessor(t *testing.T) {
	testCases := []struct {
		name      string
		payload   []byte
		signErr   error
		stored    bool
		wantErr   error
		skipRetry bool
	}{
		{name: "resolved", payload: []byte(`{"id":"` + testRecord.ID + `"}`), stored: true},
		{name: "oracle down retries", payload: []byte(`{"id":"` + testRecord.ID + `"}`), stored: true, signErr: oracle.ErrOracleUnavailable, wantErr: oracle.ErrOracleUnavailable},
		{name: "unknown record", payload: []byte(`{"id":"missing"}`), wantErr: pooltypes.ErrStrandedNotFound, skipRetry: true},
		{name: "empty id", payload: []byte(`{}`), skipRetry: true},
		{name: "bad payload", payload: []byte(`nope`), skipRetry: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			keeper := &mockKeeper{records: map[string]pooltypes.StrandedAuthorization{}, signErr: tc.signErr}
			if tc.stored {
				keeper.records[testRecord.ID] = testRecord
			}
			p := NewResignProcessor(keeper, log.NewNopLogger())

			err := p.ProcessTask(context.Background(), asynq.NewTask(TypeResign, tc.payload))
			if tc.wantErr == nil && !tc.skipRetry {
				require.NoError(t, err)
				assert.Empty(t, keeper.records)
				return
			}
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, tc.skipRetry, errors.IsOf(err, asynq.SkipRetry))
		})
	}
}
