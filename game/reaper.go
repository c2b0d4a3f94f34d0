package game

import (
	"context"
	"time"
)

// Reaper periodically sweeps expired games out of a repository. It is safe
// to run alongside normal request handling; the repository serializes the
// sweep against in-flight mutations per game.
type Reaper struct {
	Repo     Repository
	TTL      time.Duration
	Interval time.Duration

	// Logf, when set, receives a line per sweep that removed anything.
	Logf func(format string, args ...any)
}

// Run sweeps on every tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped := r.Repo.ReapExpired(r.TTL)
			if len(reaped) > 0 && r.Logf != nil {
				r.Logf("GAMES: Reaped %d inactive game(s): %v", len(reaped), reaped)
			}
		}
	}
}
