// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/meme-launchpad/internal/blockchain/solbc"
	"github.com/rovshanmuradov/meme-launchpad/internal/config"
	"github.com/rovshanmuradov/meme-launchpad/internal/eventlistener"
	"github.com/rovshanmuradov/meme-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/meme-launchpad/internal/pricefeed"
	"github.com/rovshanmuradov/meme-launchpad/internal/storage"
	"github.com/rovshanmuradov/meme-launchpad/internal/storage/postgres"
	"github.com/rovshanmuradov/meme-launchpad/internal/utils/logger"
)

// Runner wires the RPC client, price feed, optional reservation store and
// the account listener into one process.
type Runner struct {
	logger     *logger.Logger
	config     *config.Config
	solClient  *solbc.Client
	feed       *pricefeed.Client
	service    *launchpad.Service
	store      storage.Storage
	listener   *eventlistener.Listener
	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("parse program id: %w", err)
	}

	solClient := solbc.NewClient(cfg.RPCList[0], programID, log.Logger)
	feed := pricefeed.New(cfg.PriceFeedURL, log.Logger)
	service := launchpad.NewService(solClient, feed, log.Logger)

	r := &Runner{
		logger:     log,
		config:     cfg,
		solClient:  solClient,
		feed:       feed,
		service:    service,
		shutdownCh: make(chan os.Signal, 1),
	}

	if cfg.PostgresURL != "" {
		store, err := postgres.NewStorage(cfg.PostgresURL, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("open reservation store: %w", err)
		}
		if err := store.RunMigrations(); err != nil {
			return nil, fmt.Errorf("migrate reservation store: %w", err)
		}
		r.store = store
	}

	if cfg.WebSocketURL != "" {
		var keys []solana.PublicKey
		for _, raw := range []string{cfg.Treasury, cfg.Mint} {
			if raw == "" {
				continue
			}
			key, err := solana.PublicKeyFromBase58(raw)
			if err != nil {
				return nil, fmt.Errorf("parse watched account %q: %w", raw, err)
			}
			keys = append(keys, key)
		}
		if len(keys) > 0 {
			r.listener = eventlistener.New(cfg.WebSocketURL, keys, log.Logger)
		}
	}

	return r, nil
}

func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-r.shutdownCh
		r.logger.Info("Signal received: " + sig.String())
		cancel()
	}()

	g, gCtx := errgroup.WithContext(runCtx)

	if r.listener != nil {
		g.Go(func() error {
			err := r.listener.Run(gCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			for update := range r.listener.Updates() {
				r.logger.Debug("account changed",
					zap.String("account", update.Key.String()),
					zap.Uint64("slot", update.Slot),
					zap.Int("bytes", len(update.Data)))
			}
			return nil
		})
	}

	g.Go(func() error {
		return r.monitorLoop(gCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// monitorLoop periodically queries the top entries by invested amount and
// logs the leaderboard. Transient RPC failures are retried with backoff;
// anything else aborts the run.
func (r *Runner) monitorLoop(ctx context.Context) error {
	interval := time.Duration(r.config.MonitorDelay) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	query := launchpad.Query{
		Kind:        launchpad.RecordEntry,
		SortField:   "investedAmount",
		Direction:   launchpad.SortDescending,
		Bucket:      launchpad.BucketNonNegative,
		BucketField: "investedAmount",
		Page:        1,
		PageSize:    r.config.PageSize,
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		opLogger := r.logger.WithOperation("leaderboard_query")
		page, err := r.fetchPage(ctx, query)
		if err != nil {
			return fmt.Errorf("leaderboard query: %w", err)
		}
		r.logLeaderboard(opLogger, page)
	}
}

func (r *Runner) fetchPage(ctx context.Context, query launchpad.Query) (*launchpad.Page, error) {
	defer r.logger.TrackPerformance("fetch_page")()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(r.config.RPCDelay) * time.Millisecond

	operation := func() (*launchpad.Page, error) {
		page, err := r.service.QueryPage(ctx, query)
		if err != nil && !errors.Is(err, launchpad.ErrRemoteUnavailable) {
			return nil, backoff.Permanent(err)
		}
		return page, err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("query retry", zap.Error(err), zap.Duration("backoff", wait))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(r.config.Retries)+1),
		backoff.WithNotify(notify))
}

func (r *Runner) logLeaderboard(log *zap.Logger, page *launchpad.Page) {
	for i, rec := range page.Records {
		entry, ok := rec.(*launchpad.EntryRecord)
		if !ok {
			continue
		}
		log.Info("leaderboard entry",
			zap.Int("rank", i+1),
			zap.String("subject", entry.Subject.String()),
			zap.String("invested", entry.InvestedAmount.Decimal()),
			zap.Bool("bonded", entry.Bonded()))
	}
}

func (r *Runner) Shutdown() {
	r.logger.Info("Launchpad shutting down gracefully")

	if r.listener != nil {
		r.listener.Close()
	}
	r.feed.Close()
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Warn("closing reservation store", zap.Error(err))
		}
	}

	if err := r.logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
