package oracle

import "context"

// PriorActivityThreshold is the number of indexed transactions an address may
// have and still count as fresh. The drain transaction itself can already be
// indexed by the time the question is asked, so one is not enough.
const PriorActivityThreshold = 1

type IActivityOracle interface {
	// HasPriorActivity reports whether the address has more than
	// PriorActivityThreshold transactions known to the ledger indexer.
	// Any failure to answer is returned as an error, never as a guess.
	HasPriorActivity(ctx context.Context, address string) (bool, error)
}

// Func adapts a plain function to IActivityOracle.
type Func func(ctx context.Context, address string) (bool, error)

func (f Func) HasPriorActivity(ctx context.Context, address string) (bool, error) {
	return f(ctx, address)
}
