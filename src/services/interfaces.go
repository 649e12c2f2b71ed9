package services

import (
	"context"
	"errors"
)

// Error kinds returned by the portfolio engine. All are recoverable at the
// call site: the failing operation aborts without partial writes.
var (
	// ErrValidation covers bad operator input: non-positive quantity or
	// price, unknown client, strategy weights exceeding 100, a missing Cash
	// position, or an out-of-order transaction delete.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientCash rejects a buy whose total cost exceeds the
	// client's Cash quantity.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrInsufficientQuantity rejects a sell larger than the held quantity.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrNoSuchPosition rejects a sell of an instrument the client does not hold.
	ErrNoSuchPosition = errors.New("no such position")

	// ErrAlreadyDeleted rejects a second soft delete of the same transaction.
	ErrAlreadyDeleted = errors.New("transaction already deleted")

	// ErrNotFound reports an unknown entity id.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification reports that another mutation on the same
	// client committed first; the caller may reload and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrDependencyUnavailable reports a collaborator failure (market data
	// source unreachable). Price lookups degrade to stale values or 0
	// instead of returning it.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// PriceService supplies current market prices and the benchmark index level.
// A returned price of 0 means "unknown", never a real valuation. Cash is
// always 1.0.
type PriceService interface {
	// PriceOf returns the current price of an instrument, falling back
	// through fresh cache, last fetched value, then 0.
	PriceOf(name string) float64

	// IndexLevel returns the current benchmark index level, 0 when unknown.
	IndexLevel() float64

	// RefreshPrices fetches live quotes and repopulates the fresh and stale
	// tiers. Returns ErrDependencyUnavailable when the source is unreachable.
	RefreshPrices(ctx context.Context) error
}
