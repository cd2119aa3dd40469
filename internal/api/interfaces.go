package api

import (
	"context"

	"github.com/neexbeast/dry-chargers/internal/finder"
)

// ChargerFinder defines the search operation needed by handlers.
type ChargerFinder interface {
	Search(ctx context.Context, q finder.Query) (*finder.Result, error)
}

// Pinger is implemented by every charger cache store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
