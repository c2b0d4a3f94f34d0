package client

import (
	"context"
	"time"
)

// DefaultPollInterval is how often an open game view re-fetches other
// players' progress.
const DefaultPollInterval = 10 * time.Second

// Poller re-fetches game info on a fixed interval while a playing or
// viewing screen is open. There is no push transport; polling is the only
// refresh channel. Cancel the context to stop when leaving those views.
type Poller struct {
	api      *API
	interval time.Duration

	// OnUpdate receives every successful fetch.
	OnUpdate func(*GameInfo)

	// OnError, when set, receives fetch failures. Failures never touch
	// local state; the next tick simply retries.
	OnError func(error)
}

// NewPoller returns a poller over api, using DefaultPollInterval when
// interval is zero or negative.
func NewPoller(api *API, interval time.Duration, onUpdate func(*GameInfo)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		api:      api,
		interval: interval,
		OnUpdate: onUpdate,
	}
}

// Run fetches once immediately, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context, gameID string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(ctx, gameID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, gameID)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, gameID string) {
	info, err := p.api.GetGame(ctx, gameID)
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}

		return
	}

	if p.OnUpdate != nil {
		p.OnUpdate(info)
	}
}
