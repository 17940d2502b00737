package pricesource

import (
	"context"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Source produces one observation per call. Collect itself is read-only
// with respect to the rest of the system; implementations may advance
// their own internal clock.
type Source interface {
	Collect(ctx context.Context) (types.Observation, error)
}
