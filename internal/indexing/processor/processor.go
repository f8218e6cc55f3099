// Package processor applies indexed events to the projection store.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/indexing/pending"
	"github.com/ara-foundation/act-indexer/internal/infra/chain"
	"github.com/ara-foundation/act-indexer/internal/infra/forum"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// Outcome classifies what a processor did with one event.
type Outcome string

const (
	// OutcomeApplied means the projection store was mutated.
	OutcomeApplied Outcome = "applied"

	// OutcomeSkippedDuplicate means the event's effect is already present.
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"

	// OutcomeSkippedNotReady means a dependency is missing. The event is
	// treated as seen; set-semantics events are stashed for replay.
	OutcomeSkippedNotReady Outcome = "skipped_not_ready"

	// OutcomeFailed means the event must be retried. The watermark does
	// not advance past it.
	OutcomeFailed Outcome = "failed"
)

// Handler processes one event stream. A non-nil error always pairs with
// OutcomeFailed.
type Handler interface {
	Process(ctx context.Context, event domain.Event) (Outcome, error)
}

// Deps collects everything the handlers touch.
type Deps struct {
	Projects    storage.ProjectRepository
	Collaterals storage.CollateralRepository
	Tasks       storage.TaskRepository
	Plans       storage.PlanRepository
	Acts        storage.ActRepository
	Wallets     storage.LinkedWalletRepository
	Processed   storage.ProcessedEventRepository

	Pending *pending.Cache
	Chains  *chain.Registry
	Forum   forum.Client

	// ForumActTagID tags development-progress discussions.
	ForumActTagID string

	Logger *slog.Logger
}

// NewDispatchTable builds the event-type to handler table. The new-project
// handler holds the four mutate handlers so it can replay drained stashes.
func NewDispatchTable(deps Deps) map[domain.EventType]Handler {
	sangha := &setSanghaHandler{deps: deps}
	leader := &setInitialLeaderHandler{deps: deps}
	treasury := &setProjectInTreasuryHandler{deps: deps}
	mint := &mintHandler{deps: deps}

	return map[domain.EventType]Handler{
		domain.EventCollateralInit:       &collateralInitHandler{deps: deps},
		domain.EventCollateralAction:     &collateralActionHandler{deps: deps},
		domain.EventSetProjectInTreasury: treasury,
		domain.EventNewProject: &newProjectHandler{
			deps:     deps,
			sangha:   sangha,
			leader:   leader,
			treasury: treasury,
			mint:     mint,
		},
		domain.EventSetSangha:        sangha,
		domain.EventSetInitialLeader: leader,
		domain.EventMint:             mint,
		domain.EventNewTask:          &newTaskHandler{deps: deps},
		domain.EventCompleteTask:     &completeTaskHandler{deps: deps},
		domain.EventCancelTask:       &cancelTaskHandler{deps: deps},
		domain.EventCashierRedeem:    &cashierRedeemHandler{deps: deps},
	}
}

func wrongType(event domain.Event) (Outcome, error) {
	return OutcomeFailed, fmt.Errorf("unexpected event payload %T for id %s", event, event.EventID())
}
