package types

import (
	"cosmossdk.io/errors"
)

// MsgDepositToPool moves Amount from the principal's token account into the
// pool's custody account and credits the principal.
type MsgDepositToPool struct {
	Principal         string  `json:"principal"`
	Amount            uint64  `json:"amount"`
	FromSubaccount    []byte  `json:"from_subaccount,omitempty"`
	SpenderSubaccount []byte  `json:"spender_subaccount,omitempty"`
	Memo              []byte  `json:"memo,omitempty"`
	Fee               *uint64 `json:"fee,omitempty"`
}

// ValidateBasic performs stateless checks.
func (m MsgDepositToPool) ValidateBasic() error {
	if m.Principal == "" {
		return errors.Wrap(ErrInvalidPrincipal, "principal cannot be empty")
	}
	if m.Amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "amount must be positive")
	}
	return nil
}

// MsgWithdrawAuthorization debits Amount from the principal and asks for a
// signed release to Destination.
type MsgWithdrawAuthorization struct {
	Principal   string `json:"principal"`
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
}

// ValidateBasic performs stateless checks.
func (m MsgWithdrawAuthorization) ValidateBasic() error {
	if m.Principal == "" {
		return errors.Wrap(ErrInvalidPrincipal, "principal cannot be empty")
	}
	if m.Amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "amount must be positive")
	}
	if m.Destination == "" {
		return errors.Wrap(ErrInvalidDestination, "destination cannot be empty")
	}
	return nil
}
