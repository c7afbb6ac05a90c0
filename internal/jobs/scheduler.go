package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"navio/api/internal/repository"
)

type Scheduler struct {
	cron   *cron.Cron
	tokens repository.TokenStore
	log    zerolog.Logger
}

func NewScheduler(tokens repository.TokenStore, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		tokens: tokens,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.sweepTokens); err != nil { // nightly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for an in-flight sweep to finish, up to five seconds.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

// sweepTokens drops used and expired one-time tokens. Redemption does not
// depend on this; it only keeps the table from growing without bound.
func (s *Scheduler) sweepTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.tokens.DeleteSpent(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("token sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("token sweep done")
	}
}
