package scheduler

import (
	"log/slog"
	"time"

	"caretrack/internal/config"
	"caretrack/internal/repository"
)

// Scheduler handles periodic retention tasks
type Scheduler struct {
	confirmationRepo *repository.ConfirmationRepository
	auditRepo        *repository.AuditRepository
	config           *config.RetentionConfig
	stopChan         chan bool
}

// NewScheduler creates a new scheduler
func NewScheduler(
	confirmationRepo *repository.ConfirmationRepository,
	auditRepo *repository.AuditRepository,
	cfg *config.RetentionConfig,
) *Scheduler {
	return &Scheduler{
		confirmationRepo: confirmationRepo,
		auditRepo:        auditRepo,
		config:           cfg,
		stopChan:         make(chan bool),
	}
}

// Start starts all scheduled tasks
func (s *Scheduler) Start() {
	if !s.config.Enabled {
		slog.Info("Retention scheduler disabled")
		return
	}

	slog.Info("Starting retention scheduler",
		"interval", s.config.Interval,
		"confirmation_gc_enabled", s.config.EnableConfirmationGC,
		"audit_pruning_enabled", s.config.EnableAuditPruning)

	if s.config.EnableConfirmationGC {
		go s.scheduleIntervalTask(s.config.Interval, "confirmation_gc", s.purgeExpiredConfirmations)
	}
	if s.config.EnableAuditPruning {
		go s.scheduleIntervalTask(s.config.Interval, "audit_pruning", s.pruneAuditLogs)
	}

	slog.Info("Retention scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	slog.Info("Stopping retention scheduler")
	close(s.stopChan)
}

// scheduleIntervalTask runs a task at regular intervals
func (s *Scheduler) scheduleIntervalTask(interval time.Duration, taskName string, task func()) {
	slog.Info("Starting interval task", "task", taskName, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	task()

	for {
		select {
		case <-ticker.C:
			slog.Info("Running interval task", "task", taskName)
			task()
		case <-s.stopChan:
			return
		}
	}
}

// purgeExpiredConfirmations deletes unresolved confirmations whose expiry
// passed longer ago than the grace window. Recently expired entries are
// kept so the UI can still show what lapsed.
func (s *Scheduler) purgeExpiredConfirmations() {
	cutoff := time.Now().Add(-s.config.ConfirmationGrace)
	deleted, err := s.confirmationRepo.DeleteExpiredBefore(cutoff)
	if err != nil {
		slog.Error("Failed to purge expired confirmations", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Purged expired confirmations", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
}

// pruneAuditLogs deletes audit entries past the retention horizon
func (s *Scheduler) pruneAuditLogs() {
	cutoff := time.Now().Add(-s.config.AuditRetention)
	deleted, err := s.auditRepo.DeleteOlderThan(cutoff)
	if err != nil {
		slog.Error("Failed to prune audit logs", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Pruned audit logs", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
}
