package handlers

import (
	"encoding/hex"

	z "github.com/Oudwins/zog"

	"github.com/sonr-io/vaultbridge/crypto/sigverify"
	"github.com/sonr-io/vaultbridge/types/token"
)

const subaccountSize = 32

// DepositRequest moves tokens into the pool. Subaccounts are hex encoded.
type DepositRequest struct {
	Amount            uint64  `json:"amount"`
	FromSubaccount    string  `json:"from_subaccount,omitempty"`
	SpenderSubaccount string  `json:"spender_subaccount,omitempty"`
	Memo              string  `json:"memo,omitempty"`
	Fee               *uint64 `json:"fee,omitempty"`
}

// DepositRequestSchema validates the encoded fields of DepositRequest.
var DepositRequestSchema = z.Struct(z.Shape{
	"fromSubaccount": z.String().Optional().
		TestFunc(isSubaccount, z.Message("from_subaccount must be at most 32 hex encoded bytes")),
	"spenderSubaccount": z.String().Optional().
		TestFunc(isSubaccount, z.Message("spender_subaccount must be at most 32 hex encoded bytes")),
	"memo": z.String().Optional().
		Max(token.MaxMemoLength, z.Message("memo must be at most 32 bytes")),
})

// WithdrawRequest asks for a signed release to Destination, the caller's
// token account on the vault chain.
type WithdrawRequest struct {
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
}

// WithdrawRequestSchema validates WithdrawRequest.
var WithdrawRequestSchema = z.Struct(z.Shape{
	"destination": z.String().Required(z.Message("destination is required")),
})

// VaultRequest funds a vault out of TokenAccount.
type VaultRequest struct {
	Amount       uint64 `json:"amount"`
	TokenAccount string `json:"token_account"`
}

// VaultRequestSchema validates VaultRequest.
var VaultRequestSchema = z.Struct(z.Shape{
	"tokenAccount": z.String().Required(z.Message("token_account is required")),
})

// VaultWithdrawRequest releases Amount to TokenAccount with a hex signature
// obtained from the pool.
type VaultWithdrawRequest struct {
	Amount       uint64 `json:"amount"`
	TokenAccount string `json:"token_account"`
	Signature    string `json:"signature"`
}

// VaultWithdrawRequestSchema validates VaultWithdrawRequest.
var VaultWithdrawRequestSchema = z.Struct(z.Shape{
	"tokenAccount": z.String().Required(z.Message("token_account is required")),
	"signature": z.String().Required(z.Message("signature is required")).
		Len(2*sigverify.SignatureSize, z.Message("signature must be 64 hex encoded bytes")),
})

func isSubaccount(val *string, ctx z.Ctx) bool {
	if *val == "" {
		return true
	}
	b, err := hex.DecodeString(*val)
	return err == nil && len(b) <= subaccountSize
}

func decodeSubaccount(s string) []byte {
	if s == "" {
		return nil
	}
	b, _ := hex.DecodeString(s)
	return b
}
