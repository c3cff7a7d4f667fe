// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/meme-launchpad/internal/launchpad"
)

// Client is a thin adapter between the planner's store interface and the
// Solana JSON-RPC API via solana-go. It translates predicates to memcmp
// filters and slice specs to dataSlice, and nothing more; query semantics
// live in the planner.
type Client struct {
	rpc       *rpc.Client
	programID solana.PublicKey
	logger    *zap.Logger
}

// getMultipleAccounts accepts at most this many keys per call.
const fetchChunkSize = 100

// NewClient builds a client for one RPC endpoint and program. Both the
// endpoint and the logger are injected; the client holds no global state.
func NewClient(rpcURL string, programID solana.PublicKey, logger *zap.Logger) *Client {
	return &Client{
		rpc:       rpc.New(rpcURL),
		programID: programID,
		logger:    logger.Named("solbc"),
	}
}

// ScanAccounts runs getProgramAccounts with the given equality predicates,
// returning only the requested byte slice per matching account.
func (c *Client) ScanAccounts(ctx context.Context, predicates []launchpad.Predicate, slice *launchpad.SliceSpec) ([]launchpad.ScanRow, error) {
	opts := rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	}
	for _, p := range predicates {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: p.Offset,
				Bytes:  solana.Base58(p.Bytes),
			},
		})
	}
	if slice != nil {
		offset, length := slice.Offset, slice.Length
		opts.DataSlice = &rpc.DataSlice{
			Offset: &offset,
			Length: &length,
		}
	}

	accounts, err := c.rpc.GetProgramAccountsWithOpts(ctx, c.programID, &opts)
	if err != nil {
		c.logger.Debug("getProgramAccounts failed",
			zap.String("program_id", c.programID.String()),
			zap.Int("filters", len(opts.Filters)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: getProgramAccounts: %s", launchpad.ErrRemoteUnavailable, err)
	}

	rows := make([]launchpad.ScanRow, 0, len(accounts))
	for _, acc := range accounts {
		if acc == nil || acc.Account == nil {
			continue
		}
		rows = append(rows, launchpad.ScanRow{
			Key:  acc.Pubkey,
			Data: acc.Account.Data.GetBinary(),
		})
	}
	return rows, nil
}

// FetchAccounts resolves full account buffers for the given keys, chunked
// to the RPC batch limit and fetched concurrently. The returned slice is
// index-aligned with keys; missing accounts are nil.
func (c *Client) FetchAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	buffers := make([][]byte, len(keys))
	g, gctx := errgroup.WithContext(ctx)

	for start := 0; start < len(keys); start += fetchChunkSize {
		end := start + fetchChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		start, end := start, end
		g.Go(func() error {
			res, err := c.rpc.GetMultipleAccountsWithOpts(gctx, keys[start:end], &rpc.GetMultipleAccountsOpts{
				Commitment: rpc.CommitmentConfirmed,
				Encoding:   solana.EncodingBase64,
			})
			if err != nil {
				return fmt.Errorf("%w: getMultipleAccounts: %s", launchpad.ErrRemoteUnavailable, err)
			}
			for i, info := range res.Value {
				if info != nil {
					buffers[start+i] = info.Data.GetBinary()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Debug("getMultipleAccounts failed",
			zap.Int("keys", len(keys)),
			zap.Error(err))
		return nil, err
	}
	return buffers, nil
}

// GetBalance returns a wallet's SOL balance in lamports, used as the buy
// ceiling by the amount validator.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Debug("getBalance failed",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return 0, fmt.Errorf("%w: getBalance: %s", launchpad.ErrRemoteUnavailable, err)
	}
	return result.Value, nil
}

// GetAccountData returns one account's full binary data.
func (c *Client) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	result, err := c.rpc.GetAccountInfo(ctx, pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: getAccountInfo: %s", launchpad.ErrRemoteUnavailable, err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%w: account %s not found", launchpad.ErrRemoteUnavailable, pubkey)
	}
	return result.Value.Data.GetBinary(), nil
}

var _ launchpad.Store = (*Client)(nil)
