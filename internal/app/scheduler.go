/**
 * @description
 * Optional in-process cron scheduler. Production deployments delegate periodic
 * execution to QStash; this scheduler covers environments without it by
 * triggering the batch provisioning job on the same cadence.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(service *Service, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		service:  service,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runBatchProvisioning); err != nil {
		s.logger.Error("failed to schedule batch provisioning job", "error", err)
	} else {
		s.logger.Info("scheduled batch provisioning job", "schedule", s.schedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runBatchProvisioning() {
	s.logger.Info("starting batch provisioning job")
	ctx := context.Background()

	result, err := s.service.ProvisionMissingAccounts(ctx)
	if err != nil {
		s.logger.Error("batch provisioning job failed", "error", err)
		return
	}

	s.logger.Info("batch provisioning job finished",
		"without_accounts", result.TotalUsersWithoutAccounts,
		"processed", result.ProcessedInThisRun,
		"succeeded", result.SuccessCount,
		"remaining", result.RemainingUsers,
	)
}
