package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// collateralInitHandler creates a collateral document when a voting round
// starts. The token symbol comes from the chain since the event lacks it.
type collateralInitHandler struct {
	deps Deps
}

func (h *collateralInitHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.CollateralInitEvent)
	if !ok {
		return wrongType(event)
	}

	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	_, err = h.deps.Collaterals.Get(ctx, e.Token, networkID)
	if err == nil {
		h.deps.Logger.Debug("collateral already indexed",
			"token", e.Token, "network_id", networkID)
		return OutcomeSkippedDuplicate, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return OutcomeFailed, fmt.Errorf("get collateral %s: %w", e.Token, err)
	}

	client, err := h.deps.Chains.For(networkID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("collateral %s: %w", e.Token, err)
	}
	symbol, err := client.SymbolOf(ctx, e.Token)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("resolve symbol of %s: %w", e.Token, err)
	}

	c := &domain.Collateral{
		Token:              e.Token,
		NetworkID:          networkID,
		Decimals:           e.Decimals,
		FeedDecimals:       e.FeedDecimals,
		Feed:               e.Feed,
		Initializer:        e.Initializer,
		Symbol:             symbol,
		Approved:           false,
		AraTreasuryBalance: "0",
	}
	if err := h.deps.Collaterals.Insert(ctx, c); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return OutcomeSkippedDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("insert collateral %s: %w", e.Token, err)
	}

	h.deps.Logger.Info("collateral indexed",
		"token", e.Token, "network_id", networkID, "symbol", symbol)
	return OutcomeApplied, nil
}

// collateralActionHandler flips a collateral's approved flag when a voting
// round concludes.
type collateralActionHandler struct {
	deps Deps
}

func (h *collateralActionHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.CollateralActionEvent)
	if !ok {
		return wrongType(event)
	}

	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	c, err := h.deps.Collaterals.Get(ctx, e.Token, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		// The init event must land first. Retry next cycle.
		return OutcomeFailed, fmt.Errorf("collateral %s on %d not indexed yet", e.Token, networkID)
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get collateral %s: %w", e.Token, err)
	}

	if c.Approved == e.Agree {
		return OutcomeSkippedDuplicate, nil
	}

	c.Approved = e.Agree
	if err := h.deps.Collaterals.Replace(ctx, c); err != nil {
		return OutcomeFailed, fmt.Errorf("update collateral %s: %w", e.Token, err)
	}

	h.deps.Logger.Info("collateral approval updated",
		"token", e.Token, "network_id", networkID, "approved", e.Agree)
	return OutcomeApplied, nil
}
