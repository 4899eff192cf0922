// Package worker hosts the background jobs of the auth service.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository"
)

// ReaperStats aggregates one sweep of the session reaper.
type ReaperStats struct {
	AccountsScanned int
	SessionsRemoved int
	AccountsUpdated int
	Errors          int
}

// Reaper periodically removes sessions whose last activity falls outside the
// inactivity window. Sweeps are idempotent, so an overlapping trigger is
// skipped rather than queued, and a late cycle is harmless.
type Reaper struct {
	accountRepo repository.AccountRepository
	window      time.Duration
	interval    time.Duration
	now         func() time.Time
	logger      *zerolog.Logger
	running     atomic.Bool
}

func NewReaper(
	accountRepo repository.AccountRepository,
	window, interval time.Duration,
	logger *zerolog.Logger,
) *Reaper {
	return &Reaper{
		accountRepo: accountRepo,
		window:      window,
		interval:    interval,
		now:         time.Now,
		logger:      logger,
	}
}

// Run sweeps on a fixed schedule until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep scans every account holding sessions and persists the filtered
// session list for those that shrank. Per-account failures are counted and
// logged, never aborting the sweep.
func (r *Reaper) Sweep(ctx context.Context) ReaperStats {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Info().Msg("session reaper sweep already running, skipping")
		return ReaperStats{}
	}
	defer r.running.Store(false)

	var stats ReaperStats

	accounts, err := r.accountRepo.ListAccountsWithSessions(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("session reaper failed to list accounts")
		stats.Errors++
		return stats
	}

	now := r.now()

	for _, account := range accounts {
		stats.AccountsScanned++

		active := account.ActiveSessions(now, r.window)
		if len(active) >= len(account.Sessions) {
			continue
		}

		if err := r.accountRepo.ReplaceSessions(ctx, account.ID.Hex(), active); err != nil {
			stats.Errors++
			r.logger.Warn().
				Err(err).
				Str("account_id", account.ID.Hex()).
				Msg("session reaper failed to persist filtered sessions")
			continue
		}

		stats.SessionsRemoved += len(account.Sessions) - len(active)
		stats.AccountsUpdated++
	}

	r.logger.Info().
		Int("accounts_scanned", stats.AccountsScanned).
		Int("sessions_removed", stats.SessionsRemoved).
		Int("accounts_updated", stats.AccountsUpdated).
		Int("errors", stats.Errors).
		Msg("session reaper sweep completed")

	return stats
}
