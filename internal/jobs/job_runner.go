package jobs

import (
	"sort"
	"time"

	"rental-market-backend/internal/config"
	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/repository"
	"rental-market-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	tokens   repository.TokenRepository
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notification service.NotificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(tokens repository.TokenRepository, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		tokens:   tokens,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config exposes the schedule settings to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SweepInvalidations()
	jr.PruneInvalidated()
}

// collections returns the configured collections in name order
func (jr *JobRunner) collections() []domain.Collection {
	byName := jr.config.Collections()
	out := make([]domain.Collection, 0, len(byName))
	for _, col := range byName {
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
