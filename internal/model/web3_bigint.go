package model

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Web3BigInt is an on-chain integer amount in base units with its token decimals.
type Web3BigInt struct {
	Value   string `json:"value"`
	Decimal int    `json:"decimal"`
}

var amountPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// MaxTokenDecimals bounds registry and custom token decimals.
const MaxTokenDecimals = 36

// IsDecimalAmount reports whether s is an unsigned decimal literal like "12" or "0.5".
func IsDecimalAmount(s string) bool {
	return amountPattern.MatchString(s)
}

// ParseAmount converts a user-entered decimal string into base units.
// The amount must be strictly positive and carry no more fractional digits than decimals.
func ParseAmount(amount string, decimals int) (*Web3BigInt, error) {
	s := strings.TrimSpace(amount)
	if !IsDecimalAmount(s) {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q is not a decimal number", amount)
	}
	if decimals < 0 || decimals > MaxTokenDecimals {
		return nil, errors.Wrapf(ErrInvalidAmount, "unsupported decimals %d", decimals)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAmount, err.Error())
	}
	if !d.IsPositive() {
		return nil, errors.Wrap(ErrInvalidAmount, "amount must be greater than zero")
	}
	if _, frac, ok := strings.Cut(s, "."); ok && len(strings.TrimRight(frac, "0")) > decimals {
		return nil, errors.Wrapf(ErrInvalidAmount, "at most %d decimal places allowed", decimals)
	}

	return &Web3BigInt{
		Value:   d.Shift(int32(decimals)).BigInt().String(),
		Decimal: decimals,
	}, nil
}

// NewWeb3BigInt wraps a base-unit integer.
func NewWeb3BigInt(v *big.Int, decimals int) *Web3BigInt {
	if v == nil {
		v = new(big.Int)
	}
	return &Web3BigInt{Value: v.String(), Decimal: decimals}
}

// ZeroWeb3BigInt is "0" with the given decimals.
func ZeroWeb3BigInt(decimals int) *Web3BigInt {
	return &Web3BigInt{Value: "0", Decimal: decimals}
}

func (w *Web3BigInt) BigInt() *big.Int {
	amt, ok := new(big.Int).SetString(w.Value, 10)
	if !ok {
		return new(big.Int)
	}
	return amt
}

func (w *Web3BigInt) Int64() (int64, bool) {
	amt, ok := new(big.Int).SetString(w.Value, 10)
	if !ok {
		return 0, false
	}

	return amt.Int64(), true
}

func (w *Web3BigInt) decimal() decimal.Decimal {
	return decimal.NewFromBigInt(w.BigInt(), -int32(w.Decimal))
}

func (w *Web3BigInt) ToFloat() float64 {
	return w.decimal().InexactFloat64()
}

// Format renders the amount in whole units, e.g. "1.5" for 1500000000000000000 wei.
func (w *Web3BigInt) Format() string {
	return w.decimal().String()
}

// FormatFixed renders with exactly places fractional digits, truncating like the wallet UI does.
func (w *Web3BigInt) FormatFixed(places int32) string {
	return w.decimal().Truncate(places).StringFixed(places)
}

func (w *Web3BigInt) IsZero() bool {
	return w.BigInt().Sign() == 0
}

// Cmp compares base-unit values. Both sides must share decimals.
func (w *Web3BigInt) Cmp(number *Web3BigInt) int {
	return w.BigInt().Cmp(number.BigInt())
}

// Add returns nil when decimals differ.
func (w *Web3BigInt) Add(number *Web3BigInt) *Web3BigInt {
	if w.Decimal != number.Decimal {
		return nil
	}
	return NewWeb3BigInt(new(big.Int).Add(w.BigInt(), number.BigInt()), w.Decimal)
}

// Sub returns nil when decimals differ.
func (w *Web3BigInt) Sub(number *Web3BigInt) *Web3BigInt {
	if w.Decimal != number.Decimal {
		return nil
	}
	return NewWeb3BigInt(new(big.Int).Sub(w.BigInt(), number.BigInt()), w.Decimal)
}

// LessThan compares whole-unit values, so the sides may carry different decimals.
func (w *Web3BigInt) LessThan(number *Web3BigInt) bool {
	return w.decimal().LessThan(number.decimal())
}

// WholeUnits returns the amount in whole token units.
func (w *Web3BigInt) WholeUnits() decimal.Decimal {
	return w.decimal()
}
