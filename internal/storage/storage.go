// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/meme-launchpad/internal/storage/models"
)

// GoalLamports is the pre-launch investment goal: crossing it records the
// bonding time on the token row.
const GoalLamports = int64(117_000_000_000) // 117 SOL

// Storage is the pre-launch reservation store. It is a thin persistence
// wrapper; all pricing and validation math stays in the launchpad core.
type Storage interface {
	// RecordInvestment adds lamports to a wallet's reservation and to the
	// token aggregate, setting the bonding time once when the goal is
	// crossed. Returns the updated token row.
	RecordInvestment(ctx context.Context, mint, wallet string, lamports int64) (*models.TokenState, error)

	// Reservation returns a wallet's reservation, nil when absent.
	Reservation(ctx context.Context, wallet string) (*models.Reservation, error)

	// TokenState returns the aggregate row for a mint, nil when absent.
	TokenState(ctx context.Context, mint string) (*models.TokenState, error)

	// RunMigrations creates or updates the schema.
	RunMigrations() error

	Close() error
}
