package handlers

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount is a raw token amount together with its display form.
type Amount struct {
	Raw     uint64 `json:"raw"`
	Display string `json:"display"`
}

// NewAmount renders raw with decimals fractional digits.
func NewAmount(raw uint64, decimals int32) Amount {
	return Amount{Raw: raw, Display: FormatAmount(raw, decimals)}
}

// FormatAmount renders raw base units as a fixed point string.
func FormatAmount(raw uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -decimals).StringFixed(decimals)
}
