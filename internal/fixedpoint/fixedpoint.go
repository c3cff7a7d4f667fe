// internal/fixedpoint/fixedpoint.go
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the fixed decimal scale: one whole unit is 10^9 raw units,
// matching both SOL lamports and the launchpad mint decimals.
const Decimals = 9

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrDivideByZero  = errors.New("division by zero")
)

var (
	scaleFactor = big.NewInt(1_000_000_000)
	hundred     = big.NewInt(100)
)

// Value is an immutable arbitrary-precision integer at the 10^9 scale.
// All arithmetic is exact; division truncates toward zero. Operations
// return new values and never mutate the receiver, so a Value can be
// shared across goroutines without locking.
type Value struct {
	n *big.Int
}

// Zero returns the zero value.
func Zero() Value {
	return Value{n: new(big.Int)}
}

// New wraps a raw (already scaled) signed amount.
func New(raw int64) Value {
	return Value{n: big.NewInt(raw)}
}

// FromUint64 wraps a raw unsigned amount, e.g. a u64 read out of an account.
func FromUint64(raw uint64) Value {
	return Value{n: new(big.Int).SetUint64(raw)}
}

// FromBig copies a big.Int into a Value.
func FromBig(n *big.Int) Value {
	return Value{n: new(big.Int).Set(n)}
}

// ParseDecimal converts a decimal string such as "1.5" into a Value at the
// internal scale. The fractional part is right-padded or truncated to exactly
// nine digits; digits beyond the ninth are dropped, not rounded. Negative or
// malformed input fails with ErrInvalidAmount.
func ParseDecimal(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return Value{}, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		frac = frac[:Decimals]
	}
	frac += strings.Repeat("0", Decimals-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	return Value{n: n}, nil
}

func (v Value) big() *big.Int {
	if v.n == nil {
		return new(big.Int)
	}
	return v.n
}

// BigInt returns a copy of the raw integer.
func (v Value) BigInt() *big.Int {
	return new(big.Int).Set(v.big())
}

// Add returns v + o.
func (v Value) Add(o Value) Value {
	return Value{n: new(big.Int).Add(v.big(), o.big())}
}

// Sub returns v - o. The result may be negative.
func (v Value) Sub(o Value) Value {
	return Value{n: new(big.Int).Sub(v.big(), o.big())}
}

// SubSaturating returns v - o, floored at zero. Used for quantities that
// must never go negative, such as locked balances.
func (v Value) SubSaturating(o Value) Value {
	r := new(big.Int).Sub(v.big(), o.big())
	if r.Sign() < 0 {
		return Zero()
	}
	return Value{n: r}
}

// Mul returns v * o as raw integers.
func (v Value) Mul(o Value) Value {
	return Value{n: new(big.Int).Mul(v.big(), o.big())}
}

// Div returns v / o, truncated toward zero. Fails with ErrDivideByZero
// when o is zero.
func (v Value) Div(o Value) (Value, error) {
	if o.big().Sign() == 0 {
		return Value{}, fmt.Errorf("%w: %s / 0", ErrDivideByZero, v)
	}
	return Value{n: new(big.Int).Quo(v.big(), o.big())}, nil
}

// Cmp compares v and o: -1 if v < o, 0 if equal, 1 if v > o.
func (v Value) Cmp(o Value) int {
	return v.big().Cmp(o.big())
}

// IsZero reports whether v is exactly zero.
func (v Value) IsZero() bool {
	return v.big().Sign() == 0
}

// Sign returns -1, 0 or 1.
func (v Value) Sign() int {
	return v.big().Sign()
}

// Neg returns -v.
func (v Value) Neg() Value {
	return Value{n: new(big.Int).Neg(v.big())}
}

// Uint64 returns the raw magnitude as uint64, failing when the value is
// negative or does not fit.
func (v Value) Uint64() (uint64, error) {
	if v.big().Sign() < 0 || !v.big().IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in uint64", ErrInvalidAmount, v)
	}
	return v.big().Uint64(), nil
}

// String returns the raw integer in decimal, mainly for logs and errors.
func (v Value) String() string {
	return v.big().String()
}

// Decimal renders the value in whole units with up to nine fractional
// digits, trailing zeros trimmed. The inverse of ParseDecimal.
func (v Value) Decimal() string {
	n := v.big()
	sign := ""
	abs := new(big.Int).Abs(n)
	if n.Sign() < 0 {
		sign = "-"
	}
	q, r := new(big.Int).QuoRem(abs, scaleFactor, new(big.Int))
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", r.Int64()), "0")
	return sign + q.String() + "." + frac
}

// Display renders the raw magnitude with a thousands suffix (k, m, b) at
// two-decimal precision, using the largest applicable unit. Values below
// one thousand are returned verbatim. The truncation path stays in integer
// arithmetic because magnitudes here routinely exceed 2^53: divide first,
// convert to digits after.
func (v Value) Display() string {
	abs := new(big.Int).Abs(v.big())
	sign := ""
	if v.big().Sign() < 0 {
		sign = "-"
	}

	suffixes := []struct {
		suffix  string
		divisor *big.Int
	}{
		{"b", big.NewInt(1_000_000_000)},
		{"m", big.NewInt(1_000_000)},
		{"k", big.NewInt(1_000)},
	}

	for _, s := range suffixes {
		if abs.Cmp(s.divisor) >= 0 {
			// value*100/divisor keeps two decimal digits without floats.
			scaled := new(big.Int).Mul(abs, hundred)
			scaled.Quo(scaled, s.divisor)
			rem := new(big.Int)
			whole, _ := new(big.Int).QuoRem(scaled, hundred, rem)
			return fmt.Sprintf("%s%s.%02d%s", sign, whole.String(), rem.Int64(), s.suffix)
		}
	}
	return sign + abs.String()
}
