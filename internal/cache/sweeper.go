// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"time"
)

const defaultSweepInterval = time.Hour

// Sweeper periodically removes expired entries from a Store. It implements
// suture.Service.
type Sweeper struct {
	store    *Store
	interval time.Duration
}

// NewSweeper returns a sweeper for store. A non-positive interval means hourly.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval}
}

// Serve sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Serve(ctx context.Context) error {
	s.store.SweepExpired()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.store.SweepExpired()
		}
	}
}

func (s *Sweeper) String() string { return "cache-sweeper" }
