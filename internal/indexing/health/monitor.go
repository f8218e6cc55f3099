package health

import (
	"context"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/core/watermark"
	"github.com/ara-foundation/act-indexer/internal/indexing/indexer"
	"github.com/ara-foundation/act-indexer/internal/indexing/pending"
)

// DatabaseChecker pings the projection store.
type DatabaseChecker interface {
	Health(ctx context.Context) error
}

// SchedulerStatus exposes the polling loop's state.
type SchedulerStatus interface {
	Running() bool
	State() indexer.State
}

// Monitor assembles health reports from the indexer's collaborators.
type Monitor struct {
	db        DatabaseChecker
	scheduler SchedulerStatus
	marks     watermark.Store
	stash     *pending.Cache

	// indexingEnabled distinguishes a deliberately suspended scheduler
	// from a crashed one.
	indexingEnabled bool
}

// NewMonitor creates a health monitor.
func NewMonitor(
	db DatabaseChecker,
	scheduler SchedulerStatus,
	marks watermark.Store,
	stash *pending.Cache,
	indexingEnabled bool,
) *Monitor {
	return &Monitor{
		db:              db,
		scheduler:       scheduler,
		marks:           marks,
		stash:           stash,
		indexingEnabled: indexingEnabled,
	}
}

// CheckHealth builds the current report. Database failure is critical; a
// stopped scheduler while indexing is enabled is degraded.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	report := Report{
		Status:       StatusHealthy,
		Database:     "ok",
		Scheduler:    m.scheduler.State(),
		PendingStash: m.stash.Size(),
		Watermarks:   make(map[string]string, len(domain.EventTypes)),
	}

	for _, t := range domain.EventTypes {
		report.Watermarks[string(t)] = m.marks.Get(t)
	}

	if err := m.db.Health(ctx); err != nil {
		report.Database = err.Error()
		report.Status = StatusCritical
		return report
	}

	if m.indexingEnabled && !m.scheduler.Running() {
		report.Status = StatusDegraded
	}
	return report
}
