package types

import "time"

// StrandedAuthorization records a committed debit whose authorization
// signature was never produced. It stays until an operator re-signs it.
type StrandedAuthorization struct {
	ID          string `json:"id"`
	Principal   string `json:"principal"`
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
	LastError   string `json:"last_error"`
	Attempts    uint32 `json:"attempts"`
	CreatedAt   int64  `json:"created_at"`
}

// Created returns the creation time.
func (s StrandedAuthorization) Created() time.Time {
	return time.Unix(s.CreatedAt, 0).UTC()
}

// ResolvedAuthorization is a stranded authorization whose signature was
// produced by a later re-sign.
type ResolvedAuthorization struct {
	ID          string `json:"id"`
	Principal   string `json:"principal"`
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
	Signature   string `json:"signature"`
	ResolvedAt  int64  `json:"resolved_at"`
}
