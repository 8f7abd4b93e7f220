package scheduler

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
)

// Manager 任务管理器 owns the background jobs.
type Manager struct {
	scheduler gocron.Scheduler
	guard     *lockout.Store
	config    *config.Config
}

// NewManager creates the job manager.
func NewManager(guard *lockout.Store, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		guard:     guard,
		config:    cfg,
	}
}

// Start registers all jobs and starts the scheduler.
func Start(guard *lockout.Store, cfg *config.Config) *Manager {
	manager := NewManager(guard, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs registers all background jobs.
func (m *Manager) RegisterJobs() {
	m.registerLockoutSweepJob(NewLockoutSweepJob(m.guard, m.config))
}

func (m *Manager) registerLockoutSweepJob(job *LockoutSweepJob) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop shuts the scheduler down.
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
