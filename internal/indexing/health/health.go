// Package health provides health monitoring and status reporting.
package health

import "github.com/ara-foundation/act-indexer/internal/indexing/indexer"

// SystemStatus represents the overall health state of the process.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full health report.
type Report struct {
	Status       SystemStatus      `json:"status"`
	Database     string            `json:"database"`
	Scheduler    indexer.State     `json:"scheduler"`
	PendingStash int               `json:"pending_stash"`
	Watermarks   map[string]string `json:"watermarks"`
}
