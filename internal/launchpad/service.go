// internal/launchpad/service.go
package launchpad

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

// PriceSource is the external price feed surface: a spot USD quote for SOL
// and, after bonding, the pool's tokens-per-SOL ratio.
type PriceSource interface {
	PoolPriceSource
	SolUSDPrice(ctx context.Context) (fixedpoint.Value, error)
}

// Service is the caller-facing surface of the launchpad core. All handles
// are injected at construction and owned by the caller; there is no shared
// state between services, so concurrent callers never contend.
type Service struct {
	planner *Planner
	feed    PriceSource
	logger  *zap.Logger
}

// NewService wires a service from its collaborators.
func NewService(store Store, feed PriceSource, logger *zap.Logger) *Service {
	return &Service{
		planner: NewPlanner(store, logger),
		feed:    feed,
		logger:  logger.Named("launchpad"),
	}
}

// QueryPage resolves one page of a logical query.
func (s *Service) QueryPage(ctx context.Context, q Query) (*Page, error) {
	return s.planner.QueryPage(ctx, q)
}

// Entry fetches and decodes a single entry record by key.
func (s *Service) Entry(ctx context.Context, key solana.PublicKey) (*EntryRecord, error) {
	buffers, err := s.planner.store.FetchAccounts(ctx, []solana.PublicKey{key})
	if err != nil {
		return nil, fmt.Errorf("fetch entry %s: %w", key, err)
	}
	if len(buffers) == 0 || buffers[0] == nil {
		return nil, fmt.Errorf("entry %s: %w", key, ErrRemoteUnavailable)
	}
	return ParseEntry(buffers[0])
}

// Curve returns the conversion curve for an entry, phase derived from its
// bonding state.
func (s *Service) Curve(entry *EntryRecord) *Curve {
	return CurveForEntry(entry, s.feed)
}

// Quote validates an intended action amount against the supplied balances.
// It fails hard rather than clamping; Clamp is available separately for
// input UX.
func (s *Service) Quote(action Action, requested fixedpoint.Value, balances Balances) (fixedpoint.Value, error) {
	validated, err := Validate(action, requested, balances)
	if err != nil {
		s.logger.Debug("quote rejected",
			zap.String("action", action.String()),
			zap.String("requested", requested.String()),
			zap.Error(err))
		return fixedpoint.Value{}, err
	}
	return validated, nil
}

// TokensToSol converts tokens to SOL at the entry's phase price.
func (s *Service) TokensToSol(ctx context.Context, entry *EntryRecord, tokens fixedpoint.Value) (fixedpoint.Value, error) {
	return s.Curve(entry).TokensToSol(ctx, tokens)
}

// SolToTokens converts SOL to tokens at the entry's phase price.
func (s *Service) SolToTokens(ctx context.Context, entry *EntryRecord, sol fixedpoint.Value) (fixedpoint.Value, error) {
	return s.Curve(entry).SolToTokens(ctx, sol)
}

// USDValue prices a SOL amount in USD using the live quote, rounded up to
// two decimals.
func (s *Service) USDValue(ctx context.Context, sol fixedpoint.Value) (fixedpoint.Value, error) {
	quote, err := s.feed.SolUSDPrice(ctx)
	if err != nil {
		return fixedpoint.Value{}, fmt.Errorf("sol/usd quote: %w", err)
	}
	return USDValue(sol, quote)
}

// PercentageSplit returns the locked/unlocked/claimable shares of their sum.
func (s *Service) PercentageSplit(locked, unlocked, claimable fixedpoint.Value) (Percent, Percent, Percent) {
	return SplitThree(locked, unlocked, claimable)
}
