package keeper

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"cosmossdk.io/collections"
	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/x/pool/types"
)

// strand persists a debit whose signature was not produced and alerts the
// operator. It returns the record id.
func (k *Keeper) strand(ctx context.Context, msg types.MsgWithdrawAuthorization, cause error) string {
	record := types.StrandedAuthorization{
		ID:          uuid.NewString(),
		Principal:   msg.Principal,
		Amount:      msg.Amount,
		Destination: msg.Destination,
		LastError:   cause.Error(),
		Attempts:    1,
		CreatedAt:   time.Now().Unix(),
	}

	// The request context may already be done; the record must survive it.
	storeCtx := context.WithoutCancel(ctx)

	k.logger.Error("withdrawal authorization stranded after debit",
		"id", record.ID,
		"principal", record.Principal,
		"amount", record.Amount,
		"destination", record.Destination,
		"error", cause,
	)

	if err := k.Stranded.Set(storeCtx, record.ID, record); err != nil {
		k.logger.Error("failed to persist stranded authorization", "id", record.ID, "error", err)
	}
	if k.notifier != nil {
		if err := k.notifier.NotifyStranded(storeCtx, record); err != nil {
			k.logger.Error("failed to notify stranded authorization", "id", record.ID, "error", err)
		}
	}
	return record.ID
}

// GetStranded returns the stranded authorization with id.
func (k *Keeper) GetStranded(ctx context.Context, id string) (types.StrandedAuthorization, error) {
	record, err := k.Stranded.Get(ctx, id)
	if errors.IsOf(err, collections.ErrNotFound) {
		return record, errors.Wrap(types.ErrStrandedNotFound, id)
	}
	return record, err
}

// ListStranded returns every unresolved stranded authorization.
func (k *Keeper) ListStranded(ctx context.Context) ([]types.StrandedAuthorization, error) {
	var records []types.StrandedAuthorization
	err := k.Stranded.Walk(ctx, nil, func(_ string, record types.StrandedAuthorization) (bool, error) {
		records = append(records, record)
		return false, nil
	})
	return records, err
}

// ResignStranded asks the oracle again for the signature of a stranded
// authorization. The principal is not debited a second time. On success the
// record is removed and the hex signature returned; on failure the record
// keeps the latest error.
func (k *Keeper) ResignStranded(ctx context.Context, id string) (string, error) {
	if !k.claim(id) {
		return "", errors.Wrap(types.ErrResignInProgress, id)
	}
	defer k.release(id)

	record, err := k.GetStranded(ctx, id)
	if err != nil {
		return "", err
	}

	sig, err := k.oracle.Sign(ctx, k.keyID, types.AuthorizationMessage(record.Amount, record.Destination))
	if err != nil {
		record.Attempts++
		record.LastError = err.Error()
		if serr := k.Stranded.Set(context.WithoutCancel(ctx), id, record); serr != nil {
			k.logger.Error("failed to update stranded authorization", "id", id, "error", serr)
		}
		k.logger.Warn("re-sign of stranded authorization failed", "id", id, "attempts", record.Attempts, "error", err)
		return "", err
	}

	sigHex := hex.EncodeToString(sig)
	resolved := types.ResolvedAuthorization{
		ID:          record.ID,
		Principal:   record.Principal,
		Amount:      record.Amount,
		Destination: record.Destination,
		Signature:   sigHex,
		ResolvedAt:  time.Now().Unix(),
	}
	if err := k.Resolved.Set(ctx, id, resolved); err != nil {
		return "", err
	}
	if err := k.Stranded.Remove(ctx, id); err != nil {
		return "", err
	}

	k.logger.Info("stranded authorization re-signed",
		"id", id,
		"principal", record.Principal,
		"amount", record.Amount,
		"destination", record.Destination,
	)
	return sigHex, nil
}

// GetResolved returns a re-signed authorization. Only its principal may read
// it.
func (k *Keeper) GetResolved(ctx context.Context, id, principal string) (types.ResolvedAuthorization, error) {
	resolved, err := k.Resolved.Get(ctx, id)
	if errors.IsOf(err, collections.ErrNotFound) {
		return resolved, errors.Wrap(types.ErrStrandedNotFound, id)
	}
	if err != nil {
		return resolved, err
	}
	if resolved.Principal != principal {
		return types.ResolvedAuthorization{}, errors.Wrap(types.ErrStrandedNotFound, id)
	}
	return resolved, nil
}

func (k *Keeper) claim(id string) bool {
	k.resignMu.Lock()
	defer k.resignMu.Unlock()
	if _, busy := k.resigning[id]; busy {
		return false
	}
	k.resigning[id] = struct{}{}
	return true
}

func (k *Keeper) release(id string) {
	k.resignMu.Lock()
	defer k.resignMu.Unlock()
	delete(k.resigning, id)
}
