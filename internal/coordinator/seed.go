package coordinator

import (
	"context"
	"fmt"
	"io"
	"time"

	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/summary"
)

// SeedSource describes where the run seed comes from.
type SeedSource struct {
	// Explicit is a seed given by the operator. It wins over Replay.
	Explicit string
	// Replay names a previous summary whose seed is reused.
	Replay string
	Loader summary.Loader
	// Entropy feeds a fresh seed. Nil uses crypto/rand.
	Entropy io.Reader
}

// ResolveSeed returns the explicit seed, the seed of the replayed summary, or a
// fresh seed for now, in that order.
func ResolveSeed(ctx context.Context, src SeedSource, now time.Time) (identity.RunSeed, error) {
	switch {
	case src.Explicit != "":
		return identity.ParseRunSeed(src.Explicit)
	case src.Replay != "":
		if src.Loader == nil {
			return "", fmt.Errorf("no summary loader configured to replay %s", src.Replay)
		}
		return summary.ReplaySeed(ctx, src.Loader, src.Replay)
	default:
		return identity.NewRunSeed(now, src.Entropy)
	}
}
