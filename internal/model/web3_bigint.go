package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the precision of the native unit on EVM ledgers.
const EtherDecimals = 18

type Web3BigInt struct {
	Value   string `json:"value"`
	Decimal int    `json:"decimal"`
}

func NewWeb3BigInt(v *big.Int, decimals int) *Web3BigInt {
	if v == nil {
		v = new(big.Int)
	}
	return &Web3BigInt{
		Value:   v.String(),
		Decimal: decimals,
	}
}

// BigInt parses Value, ok is false when it is not a base 10 integer.
func (w *Web3BigInt) BigInt() (*big.Int, bool) {
	return new(big.Int).SetString(w.Value, 10)
}

// ToDecimal scales Value down by Decimal places, e.g. wei to ether.
func (w *Web3BigInt) ToDecimal() decimal.Decimal {
	amt, ok := w.BigInt()
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amt, int32(-w.Decimal))
}

func (w *Web3BigInt) String() string {
	return w.ToDecimal().String()
}
