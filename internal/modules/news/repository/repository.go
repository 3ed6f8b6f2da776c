package repository

import "context"

// Repository is the dedup horizon: the set of news URLs already delivered
// to one timeline. Implementations are not required to be safe for
// concurrent mutation; one aggregator owns one horizon.
type Repository interface {
	// MarkIfNew records url and reports whether it was unseen before the call
	MarkIfNew(ctx context.Context, url string) (bool, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Factory builds a horizon for the given scope (usually a chat ID)
type Factory func(scope string) Repository
