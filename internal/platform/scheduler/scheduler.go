package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AllowanceResetter is the slice of the queue service the scheduler needs.
type AllowanceResetter interface {
	ResetEmergencyAllowance(ctx context.Context) error
}

// Scheduler runs background jobs on cron schedules. The only job today is
// the emergency allowance reset, typically at the start of each clinic day.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// ScheduleEmergencyReset registers the allowance reset on the given cron
// spec (standard 5-field syntax). Returns an error for an invalid spec.
func (s *Scheduler) ScheduleEmergencyReset(spec string, svc AllowanceResetter) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.ResetEmergencyAllowance(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled emergency reset failed")
			return
		}
		s.logger.Info().Msg("emergency allowance reset by schedule")
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
