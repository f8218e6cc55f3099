package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/forum"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// unescapeJSON decodes an HTML-entity-escaped JSON payload field carried by
// the new-project event.
func unescapeJSON(payload string, out any) error {
	return json.Unmarshal([]byte(html.UnescapeString(payload)), out)
}

// newProjectHandler creates the project projection plus its plan and act
// sub-records, then replays any stashed events waiting for the project.
type newProjectHandler struct {
	deps Deps

	sangha   *setSanghaHandler
	leader   *setInitialLeaderHandler
	treasury *setProjectInTreasuryHandler
	mint     *mintHandler
}

func (h *newProjectHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.NewProjectEvent)
	if !ok {
		return wrongType(event)
	}

	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	_, err = h.deps.Projects.GetByNetwork(ctx, e.ProjectID, networkID)
	if err == nil {
		h.deps.Logger.Debug("project already indexed",
			"project_id", e.ProjectID, "network_id", networkID)
		return OutcomeSkippedDuplicate, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", e.ProjectID, err)
	}

	var logos domain.DiscussionRef
	if err := unescapeJSON(e.Logos, &logos); err != nil {
		return OutcomeFailed, fmt.Errorf("decode logos payload of project %d: %w", e.ProjectID, err)
	}
	var aurora domain.UserScenarioRef
	if err := unescapeJSON(e.Aurora, &aurora); err != nil {
		return OutcomeFailed, fmt.Errorf("decode aurora payload of project %d: %w", e.ProjectID, err)
	}

	project := &domain.Project{
		ProjectID: e.ProjectID,
		NetworkID: networkID,
		Name:      e.Name,
		Sangha:    &domain.Sangha{OwnershipMinted: "0"},
		Lungta: &domain.LungtaLinks{
			LogosID:  logos.ID,
			AuroraID: aurora.ID,
		},
	}
	if err := h.deps.Projects.Insert(ctx, project); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return OutcomeSkippedDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("insert project %d: %w", e.ProjectID, err)
	}

	plan := &domain.Plan{ProjectRef: project.ID, CostUSD: e.CostUSD}
	if err := h.deps.Plans.Insert(ctx, plan); err != nil {
		return OutcomeFailed, fmt.Errorf("insert plan of project %d: %w", e.ProjectID, err)
	}
	project.Lungta.MaydoneID = plan.ID

	act := &domain.Act{
		ProjectRef:    project.ID,
		TechStack:     e.TechStack,
		SourceCodeURL: e.SourceURL,
		TestURL:       e.TestURL,
		StartTime:     e.StartTime,
		Duration:      e.Duration,
	}
	h.createActTopic(ctx, project, act)
	if err := h.deps.Acts.Insert(ctx, act); err != nil {
		return OutcomeFailed, fmt.Errorf("insert act of project %d: %w", e.ProjectID, err)
	}
	project.Lungta.ActID = act.ID

	if err := h.deps.Projects.Replace(ctx, project); err != nil {
		return OutcomeFailed, fmt.Errorf("update project %d: %w", e.ProjectID, err)
	}

	h.deps.Logger.Info("project indexed",
		"project_id", e.ProjectID, "network_id", networkID, "name", e.Name)

	h.replayStashed(ctx, networkID, e.ProjectID)
	return OutcomeApplied, nil
}

// createActTopic posts the development-progress discussion and copies the
// author metadata onto the act. Forum failures never fail the event.
func (h *newProjectHandler) createActTopic(ctx context.Context, project *domain.Project, act *domain.Act) {
	title := fmt.Sprintf("Development progress of '%s'", project.Name)
	content := fmt.Sprintf(
		"# Project %q progress\n\n"+
			"- **Source code**: %s\n"+
			"- **Test**: %s\n"+
			"- **Tech Stack**:\n%s\n",
		project.Name, act.SourceCodeURL, act.TestURL, act.TechStack)

	d, err := h.deps.Forum.CreateDiscussion(ctx, title, content, h.deps.ForumActTagID)
	if err != nil {
		if !errors.Is(err, forum.ErrDisabled) {
			h.deps.Logger.Warn("failed to create forum topic",
				"project_id", project.ProjectID, "error", err)
		}
		return
	}

	act.ForumUsername = d.Username
	act.ForumDiscussionID = d.ID
	act.ForumUserID = d.UserID
	act.ForumCreatedAt = d.CreatedAt
}

// replayStashed drains the pending cache for the new project and applies
// each category in order. Replay failures are logged; the stashed event is
// consumed either way, matching stash-as-seen semantics.
func (h *newProjectHandler) replayStashed(ctx context.Context, networkID, projectID int64) {
	key := domain.DependencyKey(networkID, projectID)
	p := h.deps.Pending.DrainFor(key)

	if p.Sangha != nil {
		if _, err := h.sangha.apply(ctx, *p.Sangha); err != nil {
			h.deps.Logger.Error("failed to replay stashed sangha", "key", key, "error", err)
		}
	}
	if p.Leader != nil {
		if _, err := h.leader.apply(ctx, *p.Leader); err != nil {
			h.deps.Logger.Error("failed to replay stashed leader", "key", key, "error", err)
		}
	}
	if p.Treasury != nil {
		if _, err := h.treasury.apply(ctx, *p.Treasury); err != nil {
			h.deps.Logger.Error("failed to replay stashed treasury link", "key", key, "error", err)
		}
	}
	if p.Mint != nil {
		if _, err := h.mint.apply(ctx, *p.Mint); err != nil {
			h.deps.Logger.Error("failed to replay stashed mint", "key", key, "error", err)
		}
	}
}

// setSanghaHandler assigns the project's three sangha token contracts and
// their derived symbols.
type setSanghaHandler struct {
	deps Deps
}

func (h *setSanghaHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.SetSanghaEvent)
	if !ok {
		return wrongType(event)
	}
	return h.apply(ctx, e)
}

func (h *setSanghaHandler) apply(ctx context.Context, e domain.SetSanghaEvent) (Outcome, error) {
	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	project, err := h.deps.Projects.GetByNetwork(ctx, e.ProjectID, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		h.deps.Pending.StashSangha(domain.DependencyKey(networkID, e.ProjectID), e)
		h.deps.Logger.Info("project not indexed yet, sangha stashed",
			"project_id", e.ProjectID, "network_id", networkID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", e.ProjectID, err)
	}

	if project.Sangha == nil {
		project.Sangha = &domain.Sangha{OwnershipMinted: "0"}
	}
	s := project.Sangha
	if s.Ownership == e.Ownership && s.Maintainer == e.Maintainer && s.Check == e.Check {
		return OutcomeSkippedDuplicate, nil
	}

	client, err := h.deps.Chains.For(networkID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("sangha of project %d: %w", e.ProjectID, err)
	}
	symbol, err := client.SymbolOf(ctx, e.Ownership)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("resolve ownership symbol of project %d: %w", e.ProjectID, err)
	}

	s.Ownership = e.Ownership
	s.Maintainer = e.Maintainer
	s.Check = e.Check
	s.OwnershipSymbol = symbol
	s.MaintainerSymbol = symbol + "m"
	s.CheckSymbol = symbol + "c"

	if err := h.deps.Projects.Replace(ctx, project); err != nil {
		return OutcomeFailed, fmt.Errorf("update project %d: %w", e.ProjectID, err)
	}

	h.deps.Logger.Info("project sangha assigned",
		"project_id", e.ProjectID, "network_id", networkID, "symbol", symbol)
	return OutcomeApplied, nil
}

// setInitialLeaderHandler assigns the project's first leader from the
// wallet-to-user link table.
type setInitialLeaderHandler struct {
	deps Deps
}

func (h *setInitialLeaderHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.SetInitialLeaderEvent)
	if !ok {
		return wrongType(event)
	}
	return h.apply(ctx, e)
}

func (h *setInitialLeaderHandler) apply(ctx context.Context, e domain.SetInitialLeaderEvent) (Outcome, error) {
	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	project, err := h.deps.Projects.GetByNetwork(ctx, e.ProjectID, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		h.deps.Pending.StashLeader(domain.DependencyKey(networkID, e.ProjectID), e)
		h.deps.Logger.Info("project not indexed yet, leader stashed",
			"project_id", e.ProjectID, "network_id", networkID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", e.ProjectID, err)
	}

	wallet, err := h.deps.Wallets.GetByWalletAddress(ctx, e.InitialLeader)
	if errors.Is(err, storage.ErrNotFound) {
		h.deps.Logger.Warn("leader wallet is not linked to a user",
			"project_id", e.ProjectID, "wallet", e.InitialLeader)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get linked wallet %s: %w", e.InitialLeader, err)
	}
	if !wallet.Linked() {
		h.deps.Logger.Warn("leader wallet is not linked to a user",
			"project_id", e.ProjectID, "wallet", e.InitialLeader)
		return OutcomeSkippedNotReady, nil
	}

	if project.Leader != nil && project.Leader.WalletAddress == wallet.WalletAddress {
		return OutcomeSkippedDuplicate, nil
	}

	project.Leader = wallet
	if err := h.deps.Projects.Replace(ctx, project); err != nil {
		return OutcomeFailed, fmt.Errorf("update project %d: %w", e.ProjectID, err)
	}

	h.deps.Logger.Info("project leader assigned",
		"project_id", e.ProjectID, "network_id", networkID, "username", wallet.Username)
	return OutcomeApplied, nil
}

// setProjectInTreasuryHandler caps the project's ownership token supply.
type setProjectInTreasuryHandler struct {
	deps Deps
}

func (h *setProjectInTreasuryHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.SetProjectInTreasuryEvent)
	if !ok {
		return wrongType(event)
	}
	return h.apply(ctx, e)
}

func (h *setProjectInTreasuryHandler) apply(ctx context.Context, e domain.SetProjectInTreasuryEvent) (Outcome, error) {
	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	project, err := h.deps.Projects.GetByNetwork(ctx, e.ProjectID, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		h.deps.Pending.StashTreasury(domain.DependencyKey(networkID, e.ProjectID), e)
		h.deps.Logger.Info("project not indexed yet, treasury link stashed",
			"project_id", e.ProjectID, "network_id", networkID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", e.ProjectID, err)
	}

	if project.Sangha == nil {
		project.Sangha = &domain.Sangha{OwnershipMinted: "0"}
	}
	if project.Sangha.OwnershipMaxSupply == e.TokenAmount {
		return OutcomeSkippedDuplicate, nil
	}

	project.Sangha.OwnershipMaxSupply = e.TokenAmount
	if err := h.deps.Projects.Replace(ctx, project); err != nil {
		return OutcomeFailed, fmt.Errorf("update project %d: %w", e.ProjectID, err)
	}

	h.deps.Logger.Info("project max supply set",
		"project_id", e.ProjectID, "network_id", networkID, "max_supply", e.TokenAmount)
	return OutcomeApplied, nil
}

// mintHandler accumulates minted ownership onto the project and the paid
// collateral onto the treasury balance. Mint is a delta so the applied
// event id is recorded to keep replays idempotent.
type mintHandler struct {
	deps Deps
}

func (h *mintHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.MintEvent)
	if !ok {
		return wrongType(event)
	}
	return h.apply(ctx, e)
}

func (h *mintHandler) apply(ctx context.Context, e domain.MintEvent) (Outcome, error) {
	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	seen, err := h.deps.Processed.Seen(ctx, e.EventID())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check mint %s: %w", e.EventID(), err)
	}
	if seen {
		return OutcomeSkippedDuplicate, nil
	}

	project, err := h.deps.Projects.GetByNetwork(ctx, e.ProjectID, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		h.deps.Pending.StashMint(domain.DependencyKey(networkID, e.ProjectID), e)
		h.deps.Logger.Info("project not indexed yet, mint stashed",
			"project_id", e.ProjectID, "network_id", networkID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", e.ProjectID, err)
	}

	collateral, err := h.deps.Collaterals.Get(ctx, e.Collateral, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		return OutcomeFailed, fmt.Errorf("collateral %s on %d not indexed", e.Collateral, networkID)
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get collateral %s: %w", e.Collateral, err)
	}
	if !collateral.Approved {
		return OutcomeFailed, fmt.Errorf("collateral %s on %d is not approved yet", e.Collateral, networkID)
	}

	if project.Sangha == nil {
		project.Sangha = &domain.Sangha{OwnershipMinted: "0"}
	}
	minted, err := domain.AddAmount(project.Sangha.OwnershipMinted, e.OwnershipAmount)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("mint %s: %w", e.EventID(), err)
	}
	balance, err := domain.AddAmount(collateral.AraTreasuryBalance, e.CollateralAmount)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("mint %s: %w", e.EventID(), err)
	}

	project.Sangha.OwnershipMinted = minted
	collateral.AraTreasuryBalance = balance

	if err := h.deps.Projects.Replace(ctx, project); err != nil {
		return OutcomeFailed, fmt.Errorf("update project %d: %w", e.ProjectID, err)
	}
	if err := h.deps.Collaterals.Replace(ctx, collateral); err != nil {
		return OutcomeFailed, fmt.Errorf("update collateral %s: %w", e.Collateral, err)
	}
	if err := h.deps.Processed.Mark(ctx, e.EventID(), domain.EventMint); err != nil {
		// The balances are already written. Retrying would double-count,
		// so log and move on.
		h.deps.Logger.Error("failed to record applied mint", "event_id", e.EventID(), "error", err)
	}

	h.deps.Logger.Info("ownership minted",
		"project_id", e.ProjectID, "network_id", networkID,
		"ownership_amount", e.OwnershipAmount, "collateral_amount", e.CollateralAmount)
	return OutcomeApplied, nil
}

// cashierRedeemHandler subtracts a redeemed amount from the treasury
// balance of the collateral paid out for check tokens.
type cashierRedeemHandler struct {
	deps Deps
}

func (h *cashierRedeemHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.CashierRedeemEvent)
	if !ok {
		return wrongType(event)
	}

	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	seen, err := h.deps.Processed.Seen(ctx, e.EventID())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check redeem %s: %w", e.EventID(), err)
	}
	if seen {
		return OutcomeSkippedDuplicate, nil
	}

	_, err = h.deps.Projects.GetByCheck(ctx, e.Check, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		// No indexed project owns this check token. Not ours to track.
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project by check %s: %w", e.Check, err)
	}

	collateral, err := h.deps.Collaterals.Get(ctx, e.Collateral, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		return OutcomeFailed, fmt.Errorf("collateral %s on %d not indexed", e.Collateral, networkID)
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get collateral %s: %w", e.Collateral, err)
	}
	if !collateral.Approved {
		return OutcomeFailed, fmt.Errorf("collateral %s on %d is not approved yet", e.Collateral, networkID)
	}

	balance, err := domain.SubAmount(collateral.AraTreasuryBalance, e.CollateralAmount)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("redeem %s: %w", e.EventID(), err)
	}
	collateral.AraTreasuryBalance = balance

	if err := h.deps.Collaterals.Replace(ctx, collateral); err != nil {
		return OutcomeFailed, fmt.Errorf("update collateral %s: %w", e.Collateral, err)
	}
	if err := h.deps.Processed.Mark(ctx, e.EventID(), domain.EventCashierRedeem); err != nil {
		h.deps.Logger.Error("failed to record applied redeem", "event_id", e.EventID(), "error", err)
	}

	h.deps.Logger.Info("collateral redeemed",
		"network_id", networkID, "collateral", e.Collateral, "amount", e.CollateralAmount)
	return OutcomeApplied, nil
}
