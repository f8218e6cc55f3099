package health

import (
	"context"
	"errors"
	"testing"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/core/watermark"
	"github.com/ara-foundation/act-indexer/internal/indexing/indexer"
	"github.com/ara-foundation/act-indexer/internal/indexing/pending"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/memory"
)

type stubDB struct {
	err error
}

func (s *stubDB) Health(ctx context.Context) error { return s.err }

type stubScheduler struct {
	running bool
	state   indexer.State
}

func (s *stubScheduler) Running() bool        { return s.running }
func (s *stubScheduler) State() indexer.State { return s.state }

func newTestMonitor(db *stubDB, sched *stubScheduler, enabled bool) *Monitor {
	marks := watermark.NewStore(memory.NewWatermarkRepo(memory.NewStorage()))
	_, _ = marks.Load(context.Background())
	return NewMonitor(db, sched, marks, pending.NewCache(), enabled)
}

func TestCheckHealthHealthy(t *testing.T) {
	m := newTestMonitor(&stubDB{}, &stubScheduler{running: true, state: indexer.StateIdle}, true)

	report := m.CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", report.Status)
	}
	if len(report.Watermarks) != len(domain.EventTypes) {
		t.Errorf("watermarks = %d, want %d", len(report.Watermarks), len(domain.EventTypes))
	}
}

func TestCheckHealthDatabaseDown(t *testing.T) {
	m := newTestMonitor(
		&stubDB{err: errors.New("connection refused")},
		&stubScheduler{running: true, state: indexer.StateIdle},
		true,
	)

	report := m.CheckHealth(context.Background())
	if report.Status != StatusCritical {
		t.Errorf("status = %s, want critical", report.Status)
	}
}

func TestCheckHealthSchedulerStopped(t *testing.T) {
	m := newTestMonitor(&stubDB{}, &stubScheduler{running: false, state: indexer.StateSuspended}, true)

	report := m.CheckHealth(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded when indexing enabled but stopped", report.Status)
	}
}

func TestCheckHealthIndexingDisabled(t *testing.T) {
	m := newTestMonitor(&stubDB{}, &stubScheduler{running: false, state: indexer.StateSuspended}, false)

	report := m.CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy when indexing is disabled on purpose", report.Status)
	}
}
