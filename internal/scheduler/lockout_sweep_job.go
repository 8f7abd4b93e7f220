package scheduler

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
)

// LockoutSweepJob 清理任务 drops expired failed-login records so the in-memory
// store stays bounded. Best effort; the store also expires records lazily on
// lookup.
type LockoutSweepJob struct {
	guard  *lockout.Store
	config *config.Config
}

// NewLockoutSweepJob creates the sweep job.
func NewLockoutSweepJob(guard *lockout.Store, cfg *config.Config) *LockoutSweepJob {
	return &LockoutSweepJob{
		guard:  guard,
		config: cfg,
	}
}

// GetName returns the job name.
func (j *LockoutSweepJob) GetName() string {
	return "lockout_sweeper"
}

// GetSchedule returns the job schedule.
func (j *LockoutSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.config.Security.SweepInterval())
}

// Execute runs one sweep.
func (j *LockoutSweepJob) Execute() {
	if removed := j.guard.Sweep(); removed > 0 {
		logger.Debug("lockout sweep removed %d expired records", removed)
	}
}
