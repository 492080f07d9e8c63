package config

import (
	"context"
	"time"

	"competition-service/src/internal/usecase"
	"competition-service/src/pkg/log"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/viper"
)

// NewScheduler wires the two lifecycle sweeps: a short one flipping
// UPCOMING competitions to ONGOING and a longer one expiring competitions
// past their end time. Both sweeps are idempotent, every mutation happens
// under a row lock, so extra replicas running the same jobs are harmless.
func NewScheduler(v *viper.Viper, competitionUseCase *usecase.CompetitionUseCase, logger log.Log) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	activateInterval := v.GetDuration("scheduler.activate_interval")
	if activateInterval <= 0 {
		activateInterval = time.Minute
	}
	expireInterval := v.GetDuration("scheduler.expire_interval")
	if expireInterval <= 0 {
		expireInterval = 5 * time.Minute
	}

	_, err = sched.NewJob(
		gocron.DurationJob(activateInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), activateInterval)
			defer cancel()
			if err := competitionUseCase.ActivateDueCompetitions(ctx); err != nil {
				logger.Error("scheduler", err.Error(), "ActivateDueCompetitions", "")
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(expireInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), expireInterval)
			defer cancel()
			if err := competitionUseCase.ExpireOverdueCompetitions(ctx); err != nil {
				logger.Error("scheduler", err.Error(), "ExpireOverdueCompetitions", "")
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return sched, nil
}
