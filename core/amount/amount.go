package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// MaxDecimals is the largest decimal scale whose unit (10^decimals) still fits
// in 256 bits.
const MaxDecimals = 77

var (
	ErrScaleMismatch = errors.New("amount: decimal scale mismatch")
	ErrOverflow      = errors.New("amount: overflow")
	ErrUnderflow     = errors.New("amount: underflow")
	ErrDivByZero     = errors.New("amount: division by zero")
	ErrInvalidFormat = errors.New("amount: invalid decimal format")
	ErrTooPrecise    = errors.New("amount: fractional digits exceed scale")
	ErrInvalidScale  = errors.New("amount: unsupported decimal scale")
)

// Amount is an exact, non-negative quantity held in base units together with
// the decimal scale those units are expressed in. The zero value is a valid
// zero at scale 0.
type Amount struct {
	value    uint256.Int
	decimals uint8
}

// Zero returns a zero amount at the supplied scale.
func Zero(decimals uint8) Amount { return Amount{decimals: decimals} }

// New wraps a copy of the supplied base-unit value.
func New(value *uint256.Int, decimals uint8) Amount {
	out := Amount{decimals: decimals}
	if value != nil {
		out.value.Set(value)
	}
	return out
}

// FromUint64 builds an amount from a base-unit integer.
func FromUint64(v uint64, decimals uint8) Amount {
	out := Amount{decimals: decimals}
	out.value.SetUint64(v)
	return out
}

// FromBig converts a base-unit big integer, rejecting negative values and
// values wider than 256 bits.
func FromBig(v *big.Int, decimals uint8) (Amount, error) {
	out := Amount{decimals: decimals}
	if v == nil {
		return out, nil
	}
	if v.Sign() < 0 {
		return Amount{}, ErrUnderflow
	}
	if overflow := out.value.SetFromBig(v); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// Parse reads a human readable decimal string ("2000", "0.15", "9.999999")
// and scales it to base units. Fractional digits beyond the scale are rejected
// unless they are trailing zeros.
func Parse(s string, decimals uint8) (Amount, error) {
	if decimals > MaxDecimals {
		return Amount{}, ErrInvalidScale
	}
	trimmed := strings.TrimSpace(s)
	whole, frac, hasDot := strings.Cut(trimmed, ".")
	if whole == "" || !isDigits(whole) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if hasDot {
		if frac == "" || !isDigits(frac) {
			return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		frac = strings.TrimRight(frac, "0")
	}
	if len(frac) > int(decimals) {
		return Amount{}, fmt.Errorf("%w: %q at scale %d", ErrTooPrecise, s, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return Zero(decimals), nil
	}
	value, err := uint256.FromDecimal(digits)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return New(value, decimals), nil
}

// MustParse is Parse for constants known to be valid. It panics otherwise.
func MustParse(s string, decimals uint8) Amount {
	out, err := Parse(s, decimals)
	if err != nil {
		panic(err)
	}
	return out
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Pow10 returns 10^n as a 256-bit integer. n must not exceed MaxDecimals.
func Pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}

// Decimals reports the scale of the amount.
func (a Amount) Decimals() uint8 { return a.decimals }

// Uint256 returns a copy of the base-unit value.
func (a Amount) Uint256() *uint256.Int { return new(uint256.Int).Set(&a.value) }

// Big returns the base-unit value as a big integer.
func (a Amount) Big() *big.Int { return a.value.ToBig() }

// IsZero reports whether the amount holds no units.
func (a Amount) IsZero() bool { return a.value.IsZero() }

// Cmp compares base units. Callers compare amounts of the same scale.
func (a Amount) Cmp(b Amount) int { return a.value.Cmp(&b.value) }

// Equal reports whether both value and scale match.
func (a Amount) Equal(b Amount) bool { return a.decimals == b.decimals && a.value.Eq(&b.value) }

// Add returns a+b. Both operands must share a scale.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.decimals != b.decimals {
		return Amount{}, ErrScaleMismatch
	}
	out := Amount{decimals: a.decimals}
	if _, overflow := out.value.AddOverflow(&a.value, &b.value); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// Sub returns a-b. Both operands must share a scale and b must not exceed a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.decimals != b.decimals {
		return Amount{}, ErrScaleMismatch
	}
	out := Amount{decimals: a.decimals}
	if _, underflow := out.value.SubOverflow(&a.value, &b.value); underflow {
		return Amount{}, ErrUnderflow
	}
	return out, nil
}

// MulDiv computes floor(a*num/den) and labels the result with the supplied
// scale. The intermediate product is 512 bits wide so only the final result
// can overflow.
func (a Amount) MulDiv(num, den *uint256.Int, decimals uint8) (Amount, error) {
	if den == nil || den.IsZero() {
		return Amount{}, ErrDivByZero
	}
	if num == nil {
		return Zero(decimals), nil
	}
	out := Amount{decimals: decimals}
	if _, overflow := out.value.MulDivOverflow(&a.value, num, den); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// BaseUnits renders the raw integer value.
func (a Amount) BaseUnits() string { return a.value.ToBig().String() }

// String renders the amount as a decimal number without trailing fractional
// zeros, e.g. "6666.666666666666666666".
func (a Amount) String() string {
	digits := a.BaseUnits()
	if a.decimals == 0 {
		return digits
	}
	scale := int(a.decimals)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-scale]
	frac := strings.TrimRight(digits[len(digits)-scale:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

type amountJSON struct {
	Value    string `json:"value"`
	Decimals uint8  `json:"decimals"`
}

// MarshalJSON encodes the amount as base units plus scale so no precision is
// lost in transit or at rest.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{Value: a.BaseUnits(), Decimals: a.decimals})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw amountJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Decimals > MaxDecimals {
		return ErrInvalidScale
	}
	value := strings.TrimSpace(raw.Value)
	if value == "" {
		*a = Zero(raw.Decimals)
		return nil
	}
	if !isDigits(value) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, raw.Value)
	}
	trimmed := strings.TrimLeft(value, "0")
	if trimmed == "" {
		*a = Zero(raw.Decimals)
		return nil
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrOverflow, raw.Value)
	}
	*a = New(parsed, raw.Decimals)
	return nil
}
