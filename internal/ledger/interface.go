package ledger

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// Service defines the interface for the balance settlement backend.
// This interface abstracts away the specific implementation details of
// balance custody, allowing for different backends (live, stub, etc.).
type Service interface {
	// GetBalances returns the owner's current balance of every asset, in
	// display units keyed by uppercase symbol.
	GetBalances(ctx context.Context) (map[string]float64, error)

	// Withdraw debits the owner's balance of an asset by a smallest-unit
	// amount, tagged with an idempotent reference.
	Withdraw(ctx context.Context, asset string, amount sdkmath.Int, ref string) error

	// Deposit credits the owner's balance of an asset by a smallest-unit
	// amount, tagged with an idempotent reference.
	Deposit(ctx context.Context, asset string, amount sdkmath.Int, ref string) error

	// UpdateStats posts a session stats delta to the backend. Callers must
	// only advance their reconciliation cursor when this returns nil.
	UpdateStats(ctx context.Context, delta types.StatsDelta) error
}
