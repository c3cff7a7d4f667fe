// internal/launchpad/validator.go
package launchpad

import (
	"fmt"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

// Action is a financial action a caller intends to submit.
type Action int

const (
	ActionBuy Action = iota
	ActionSell
	ActionLock
	ActionClaim
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	case ActionLock:
		return "lock"
	case ActionClaim:
		return "claim"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Balances are the ceilings relevant to amount validation, all at the
// internal scale.
type Balances struct {
	Wallet    fixedpoint.Value // spendable wallet balance
	Locked    fixedpoint.Value // balance locked with the treasury
	Claimable fixedpoint.Value // unlocked and withdrawable
}

// Ceiling returns the maximum amount the action may move.
func (a Action) Ceiling(b Balances) fixedpoint.Value {
	switch a {
	case ActionBuy, ActionLock:
		return b.Wallet
	case ActionSell:
		return b.Locked
	case ActionClaim:
		return b.Claimable
	}
	return fixedpoint.Zero()
}

// Clamp caps a requested amount at the action's ceiling. This is an input
// convenience only; submission goes through Validate, which fails instead
// of adjusting, so a financial action is never silently under- or
// over-executed.
func Clamp(a Action, requested fixedpoint.Value, b Balances) fixedpoint.Value {
	ceiling := a.Ceiling(b)
	if requested.Cmp(ceiling) > 0 {
		return ceiling
	}
	return requested
}

// Validate checks a requested amount against the action's ceiling at
// submission time. The boundary is inclusive: requesting exactly the
// ceiling succeeds and returns it unchanged.
func Validate(a Action, requested fixedpoint.Value, b Balances) (fixedpoint.Value, error) {
	if requested.Sign() <= 0 {
		return fixedpoint.Value{}, fmt.Errorf("%w: %s amount must be positive, got %s",
			fixedpoint.ErrInvalidAmount, a, requested)
	}
	ceiling := a.Ceiling(b)
	if requested.Cmp(ceiling) > 0 {
		return fixedpoint.Value{}, fmt.Errorf("%w: %s of %s exceeds ceiling %s",
			ErrInsufficientBalance, a, requested, ceiling)
	}
	return requested, nil
}
