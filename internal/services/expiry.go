package services

import (
	"context"
	"fmt"
	"time"

	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// ExpirySweeper periodically flips enabled parties whose date has passed to
// EXPIRED, which stops new attendance without touching existing attenders.
type ExpirySweeper struct {
	parties  repositories.PartyRepository
	interval time.Duration
	log      *logger.Logger
}

// NewExpirySweeper creates a new ExpirySweeper.
func NewExpirySweeper(parties repositories.PartyRepository, interval time.Duration, log *logger.Logger) *ExpirySweeper {
	return &ExpirySweeper{parties: parties, interval: interval, log: log}
}

// Run sweeps until ctx is done. Intended to be started in its own goroutine.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single expiry pass.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	expired, err := s.parties.ExpireBefore(ctx, time.Now())
	if err != nil {
		s.log.Error("PartyExpirySweep", map[string]any{})
		return
	}
	if expired > 0 {
		s.log.Analytic(fmt.Sprintf("expired %d parties", expired))
	}
}
