package processor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/indexing/pending"
	"github.com/ara-foundation/act-indexer/internal/infra/chain"
	"github.com/ara-foundation/act-indexer/internal/infra/forum"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/memory"
)

type fakeChainClient struct {
	symbols map[string]string
	timing  chain.TaskTime
	err     error
}

func (f *fakeChainClient) SymbolOf(ctx context.Context, tokenAddr string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if s, ok := f.symbols[tokenAddr]; ok {
		return s, nil
	}
	return "TKN", nil
}

func (f *fakeChainClient) TaskTime(ctx context.Context, projectID, taskID int64) (*chain.TaskTime, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := f.timing
	return &t, nil
}

type fakeForum struct {
	discussion *forum.Discussion
	calls      int
}

func (f *fakeForum) CreateDiscussion(ctx context.Context, title, content, tagID string) (*forum.Discussion, error) {
	f.calls++
	if f.discussion == nil {
		return nil, errors.New("forum down")
	}
	return f.discussion, nil
}

type testEnv struct {
	deps  Deps
	store *memory.Storage
	table map[domain.EventType]Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStorage()
	deps := Deps{
		Projects:    memory.NewProjectRepo(store),
		Collaterals: memory.NewCollateralRepo(store),
		Tasks:       memory.NewTaskRepo(store),
		Plans:       memory.NewPlanRepo(store),
		Acts:        memory.NewActRepo(store),
		Wallets:     memory.NewLinkedWalletRepo(store),
		Processed:   memory.NewProcessedEventRepo(store),
		Pending:     pending.NewCache(),
		Chains: chain.NewRegistry(map[int64]chain.Client{
			97: &fakeChainClient{
				symbols: map[string]string{"0xusdt": "USDT", "0xown": "ARA"},
				timing:  chain.TaskTime{StartTime: 100, EndTime: 200},
			},
		}),
		Forum:         forum.NoopClient{},
		ForumActTagID: "9",
		Logger:        slog.New(slog.DiscardHandler),
	}
	return &testEnv{deps: deps, store: store, table: NewDispatchTable(deps)}
}

func (env *testEnv) process(t *testing.T, et domain.EventType, e domain.Event) Outcome {
	t.Helper()
	outcome, err := env.table[et].Process(context.Background(), e)
	if outcome == OutcomeFailed && err == nil {
		t.Fatal("failed outcome without error")
	}
	return outcome
}

func meta(id, ts string) domain.EventMeta {
	return domain.EventMeta{ID: id, DBWriteTimestamp: ts}
}

func newProjectEvent(projectID int64, name string) domain.NewProjectEvent {
	return domain.NewProjectEvent{
		EventMeta: meta("97_0xaa_1", "2025-01-01T00:00:01.000000"),
		ProjectID: projectID,
		Active:    true,
		Name:      name,
		Logos:     "{&quot;id&quot;:12}",
		Aurora:    "{&quot;_id&quot;:&quot;66d9a1&quot;}",
		TechStack: "go",
		CostUSD:   "1000000000000000000",
		Duration:  86400,
		SourceURL: "https://example.org/src",
		TestURL:   "https://example.org/test",
		StartTime: 1738000000,
	}
}

func TestCollateralLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	init := domain.CollateralInitEvent{
		EventMeta:    meta("97_0x01_1", "2025-01-01T00:00:00.000000"),
		Decimals:     18,
		FeedDecimals: 8,
		Feed:         "0xfeed",
		Initializer:  "0xinit",
		Token:        "0xusdt",
	}
	if got := env.process(t, domain.EventCollateralInit, init); got != OutcomeApplied {
		t.Fatalf("init outcome = %s, want applied", got)
	}

	c, err := env.deps.Collaterals.Get(ctx, "0xusdt", 97)
	if err != nil {
		t.Fatalf("collateral not stored: %v", err)
	}
	if c.Symbol != "USDT" || c.Approved || c.AraTreasuryBalance != "0" {
		t.Errorf("unexpected collateral: %+v", c)
	}

	// Replayed init is a duplicate.
	if got := env.process(t, domain.EventCollateralInit, init); got != OutcomeSkippedDuplicate {
		t.Errorf("replayed init outcome = %s, want skipped_duplicate", got)
	}

	action := domain.CollateralActionEvent{
		EventMeta: meta("97_0x01_2", "2025-01-01T00:00:01.000000"),
		Agree:     true,
		Token:     "0xusdt",
	}
	if got := env.process(t, domain.EventCollateralAction, action); got != OutcomeApplied {
		t.Fatalf("action outcome = %s, want applied", got)
	}

	c, _ = env.deps.Collaterals.Get(ctx, "0xusdt", 97)
	if !c.Approved {
		t.Error("collateral not approved after action")
	}

	if got := env.process(t, domain.EventCollateralAction, action); got != OutcomeSkippedDuplicate {
		t.Errorf("replayed action outcome = %s, want skipped_duplicate", got)
	}
}

func TestCollateralActionWithoutInitFails(t *testing.T) {
	env := newTestEnv(t)

	action := domain.CollateralActionEvent{
		EventMeta: meta("97_0x02_1", "2025-01-01T00:00:00.000000"),
		Agree:     true,
		Token:     "0xunknown",
	}
	if got := env.process(t, domain.EventCollateralAction, action); got != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", got)
	}
}

func TestNewProjectCreatesSubRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if got := env.process(t, domain.EventNewProject, newProjectEvent(1, "ara")); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", got)
	}

	project, err := env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if err != nil {
		t.Fatalf("project not stored: %v", err)
	}
	if project.Name != "ara" || project.Lungta == nil {
		t.Fatalf("unexpected project: %+v", project)
	}
	if project.Lungta.LogosID != 12 || project.Lungta.AuroraID != "66d9a1" {
		t.Errorf("lungta cross-links not decoded: %+v", project.Lungta)
	}
	if project.Sangha == nil || project.Sangha.OwnershipMinted != "0" {
		t.Errorf("sangha not seeded: %+v", project.Sangha)
	}

	plan, err := env.deps.Plans.GetByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("plan not stored: %v", err)
	}
	if plan.CostUSD != "1000000000000000000" {
		t.Errorf("plan cost = %s", plan.CostUSD)
	}
	if project.Lungta.MaydoneID != plan.ID {
		t.Error("maydone link not set")
	}

	act, err := env.deps.Acts.GetByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("act not stored: %v", err)
	}
	if act.TechStack != "go" || act.Duration != 86400 || act.StartTime != 1738000000 {
		t.Errorf("unexpected act: %+v", act)
	}
	if project.Lungta.ActID != act.ID {
		t.Error("act link not set")
	}

	// The same event replayed is a duplicate.
	if got := env.process(t, domain.EventNewProject, newProjectEvent(1, "ara")); got != OutcomeSkippedDuplicate {
		t.Errorf("replay outcome = %s, want skipped_duplicate", got)
	}
}

func TestNewProjectForumMetadata(t *testing.T) {
	env := newTestEnv(t)
	ff := &fakeForum{discussion: &forum.Discussion{
		ID: 77, Username: "ara-bot", UserID: 3, CreatedAt: "2025-01-01T00:00:02Z",
	}}
	env.deps.Forum = ff
	env.table = NewDispatchTable(env.deps)

	if got := env.process(t, domain.EventNewProject, newProjectEvent(1, "ara")); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", got)
	}
	if ff.calls != 1 {
		t.Fatalf("forum called %d times", ff.calls)
	}

	project, _ := env.deps.Projects.GetByNetwork(context.Background(), 1, 97)
	act, err := env.deps.Acts.GetByProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("act not stored: %v", err)
	}
	if act.ForumDiscussionID != 77 || act.ForumUsername != "ara-bot" || act.ForumUserID != 3 {
		t.Errorf("forum metadata not copied: %+v", act)
	}
}

func TestNewProjectForumFailureIsNonFatal(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Forum = &fakeForum{discussion: nil}
	env.table = NewDispatchTable(env.deps)

	if got := env.process(t, domain.EventNewProject, newProjectEvent(1, "ara")); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied despite forum failure", got)
	}
}

func TestSetSanghaBeforeNewProjectIsReplayed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sangha := domain.SetSanghaEvent{
		EventMeta:  meta("97_0xbb_1", "2025-01-01T00:00:00.500000"),
		ProjectID:  1,
		Ownership:  "0xown",
		Maintainer: "0xmnt",
		Check:      "0xchk",
	}
	if got := env.process(t, domain.EventSetSangha, sangha); got != OutcomeSkippedNotReady {
		t.Fatalf("outcome = %s, want skipped_not_ready", got)
	}
	if env.deps.Pending.Size() != 1 {
		t.Fatalf("event not stashed")
	}

	if got := env.process(t, domain.EventNewProject, newProjectEvent(1, "ara")); got != OutcomeApplied {
		t.Fatalf("new project outcome = %s, want applied", got)
	}

	project, err := env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if err != nil {
		t.Fatalf("project not stored: %v", err)
	}
	s := project.Sangha
	if s == nil || s.Ownership != "0xown" || s.Check != "0xchk" {
		t.Fatalf("stashed sangha not replayed: %+v", s)
	}
	if s.OwnershipSymbol != "ARA" || s.MaintainerSymbol != "ARAm" || s.CheckSymbol != "ARAc" {
		t.Errorf("derived symbols wrong: %+v", s)
	}
	if env.deps.Pending.Size() != 0 {
		t.Error("stash not drained")
	}
}

func TestSetInitialLeader(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.process(t, domain.EventNewProject, newProjectEvent(1, "ara"))

	leader := domain.SetInitialLeaderEvent{
		EventMeta:     meta("97_0xcc_1", "2025-01-01T00:00:02.000000"),
		ProjectID:     1,
		InitialLeader: "0xLeader",
	}

	// Wallet not linked yet: seen but no assignment.
	if got := env.process(t, domain.EventSetInitialLeader, leader); got != OutcomeSkippedNotReady {
		t.Fatalf("outcome = %s, want skipped_not_ready", got)
	}
	project, _ := env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if project.Leader != nil {
		t.Fatal("leader assigned without a wallet link")
	}

	err := env.deps.Wallets.Save(ctx, &domain.LinkedWallet{
		UserID: 42, WalletAddress: "0xLeader", Username: "ahmetson",
	})
	if err != nil {
		t.Fatalf("save wallet: %v", err)
	}

	if got := env.process(t, domain.EventSetInitialLeader, leader); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", got)
	}
	project, _ = env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if project.Leader == nil || project.Leader.Username != "ahmetson" {
		t.Errorf("leader not assigned: %+v", project.Leader)
	}

	if got := env.process(t, domain.EventSetInitialLeader, leader); got != OutcomeSkippedDuplicate {
		t.Errorf("replay outcome = %s, want skipped_duplicate", got)
	}
}

func TestMintAccumulatesExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.process(t, domain.EventNewProject, newProjectEvent(1, "ara"))
	env.process(t, domain.EventCollateralInit, domain.CollateralInitEvent{
		EventMeta: meta("97_0x01_1", "2025-01-01T00:00:00.000000"),
		Token:     "0xusdt", Decimals: 18,
	})
	env.process(t, domain.EventCollateralAction, domain.CollateralActionEvent{
		EventMeta: meta("97_0x01_2", "2025-01-01T00:00:01.000000"),
		Token:     "0xusdt", Agree: true,
	})

	mint := domain.MintEvent{
		EventMeta:        meta("97_0xdd_1", "2025-01-01T00:00:03.000000"),
		ProjectID:        1,
		CollateralAmount: "500",
		OwnershipAmount:  "10",
		USDAmount:        "500",
		Collateral:       "0xusdt",
		OwnershipToken:   "0xown",
		To:               "0xinvestor",
	}
	if got := env.process(t, domain.EventMint, mint); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", got)
	}

	project, _ := env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if project.Sangha.OwnershipMinted != "10" {
		t.Errorf("ownership_minted = %s, want 10", project.Sangha.OwnershipMinted)
	}
	c, _ := env.deps.Collaterals.Get(ctx, "0xusdt", 97)
	if c.AraTreasuryBalance != "500" {
		t.Errorf("treasury balance = %s, want 500", c.AraTreasuryBalance)
	}

	// Replaying the same mint must not double-accumulate.
	if got := env.process(t, domain.EventMint, mint); got != OutcomeSkippedDuplicate {
		t.Fatalf("replay outcome = %s, want skipped_duplicate", got)
	}
	project, _ = env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if project.Sangha.OwnershipMinted != "10" {
		t.Errorf("ownership_minted after replay = %s, want 10", project.Sangha.OwnershipMinted)
	}
}

func TestMintUnapprovedCollateralFails(t *testing.T) {
	env := newTestEnv(t)

	env.process(t, domain.EventNewProject, newProjectEvent(1, "ara"))
	env.process(t, domain.EventCollateralInit, domain.CollateralInitEvent{
		EventMeta: meta("97_0x01_1", "2025-01-01T00:00:00.000000"),
		Token:     "0xusdt",
	})

	mint := domain.MintEvent{
		EventMeta:        meta("97_0xdd_1", "2025-01-01T00:00:03.000000"),
		ProjectID:        1,
		CollateralAmount: "500",
		OwnershipAmount:  "10",
		Collateral:       "0xusdt",
	}
	if got := env.process(t, domain.EventMint, mint); got != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", got)
	}
}

func TestCashierRedeemBalanceExactness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.process(t, domain.EventNewProject, newProjectEvent(1, "ara"))
	env.process(t, domain.EventSetSangha, domain.SetSanghaEvent{
		EventMeta: meta("97_0xbb_1", "2025-01-01T00:00:01.500000"),
		ProjectID: 1, Ownership: "0xown", Maintainer: "0xmnt", Check: "0xchk",
	})
	env.process(t, domain.EventCollateralInit, domain.CollateralInitEvent{
		EventMeta: meta("97_0x01_1", "2025-01-01T00:00:00.000000"),
		Token:     "0xusdt",
	})
	env.process(t, domain.EventCollateralAction, domain.CollateralActionEvent{
		EventMeta: meta("97_0x01_2", "2025-01-01T00:00:01.000000"),
		Token:     "0xusdt", Agree: true,
	})
	env.process(t, domain.EventMint, domain.MintEvent{
		EventMeta: meta("97_0xdd_1", "2025-01-01T00:00:03.000000"),
		ProjectID: 1, Collateral: "0xusdt",
		CollateralAmount: "1000000000000000000", OwnershipAmount: "1",
	})

	redeem := domain.CashierRedeemEvent{
		EventMeta:        meta("97_0xee_1", "2025-01-01T00:00:04.000000"),
		CollateralAmount: "300000000000000000",
		USDAmount:        "300000000000000000",
		Check:            "0xchk",
		Collateral:       "0xusdt",
		To:               "0xcontributor",
	}
	if got := env.process(t, domain.EventCashierRedeem, redeem); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", got)
	}

	c, _ := env.deps.Collaterals.Get(ctx, "0xusdt", 97)
	if c.AraTreasuryBalance != "700000000000000000" {
		t.Errorf("treasury balance = %s, want 700000000000000000", c.AraTreasuryBalance)
	}

	if got := env.process(t, domain.EventCashierRedeem, redeem); got != OutcomeSkippedDuplicate {
		t.Errorf("replay outcome = %s, want skipped_duplicate", got)
	}
}

func TestCashierRedeemUnknownCheckIsNeutral(t *testing.T) {
	env := newTestEnv(t)

	redeem := domain.CashierRedeemEvent{
		EventMeta:        meta("97_0xee_1", "2025-01-01T00:00:04.000000"),
		CollateralAmount: "1",
		Check:            "0xnobody",
		Collateral:       "0xusdt",
	}
	if got := env.process(t, domain.EventCashierRedeem, redeem); got != OutcomeSkippedNotReady {
		t.Errorf("outcome = %s, want skipped_not_ready", got)
	}
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	newTask := domain.NewTaskEvent{
		EventMeta:   meta("97_0xff_1", "2025-01-01T00:00:00.000000"),
		ProjectID:   1,
		TaskID:      7,
		CheckAmount: "5000",
		Payload:     "fix the parser",
	}

	// Project missing: the task is stashed but, unlike the sangha stash,
	// never replayed by project creation.
	if got := env.process(t, domain.EventNewTask, newTask); got != OutcomeSkippedNotReady {
		t.Fatalf("outcome = %s, want skipped_not_ready", got)
	}

	env.process(t, domain.EventNewProject, newProjectEvent(1, "ara"))
	project, _ := env.deps.Projects.GetByNetwork(ctx, 1, 97)
	if _, err := env.deps.Tasks.Get(ctx, project.ID, 7); err == nil {
		t.Fatal("task stash must not be replayed on project creation")
	}
	if env.deps.Pending.Size() != 1 {
		t.Errorf("task stash should remain, cache size = %d", env.deps.Pending.Size())
	}

	// Re-delivered after the project exists, the task is created.
	if got := env.process(t, domain.EventNewTask, newTask); got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", got)
	}
	task, err := env.deps.Tasks.Get(ctx, project.ID, 7)
	if err != nil {
		t.Fatalf("task not stored: %v", err)
	}
	if task.StartTime != 100 || task.EndTime != 200 {
		t.Errorf("chain timing not applied: %+v", task)
	}
	if task.CheckAmount != "5000" || task.Completed || task.Canceled {
		t.Errorf("unexpected task: %+v", task)
	}

	if got := env.process(t, domain.EventNewTask, newTask); got != OutcomeSkippedDuplicate {
		t.Errorf("replay outcome = %s, want skipped_duplicate", got)
	}

	complete := domain.CompleteTaskEvent{
		EventMeta:   meta("97_0xff_2", "2025-01-01T00:00:05.000000"),
		ProjectID:   1,
		TaskID:      7,
		Contributor: "0xdev",
	}
	if got := env.process(t, domain.EventCompleteTask, complete); got != OutcomeApplied {
		t.Fatalf("complete outcome = %s, want applied", got)
	}
	task, _ = env.deps.Tasks.Get(ctx, project.ID, 7)
	if !task.Completed {
		t.Error("task not completed")
	}
	if got := env.process(t, domain.EventCompleteTask, complete); got != OutcomeSkippedDuplicate {
		t.Errorf("complete replay outcome = %s, want skipped_duplicate", got)
	}

	cancel := domain.CancelTaskEvent{
		EventMeta: meta("97_0xff_3", "2025-01-01T00:00:06.000000"),
		ProjectID: 1,
		TaskID:    8,
	}
	// Unknown task is a neutral skip.
	if got := env.process(t, domain.EventCancelTask, cancel); got != OutcomeSkippedNotReady {
		t.Errorf("cancel outcome = %s, want skipped_not_ready", got)
	}
}
