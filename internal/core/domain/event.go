package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// EventType identifies one of the indexed smart-contract event streams.
// The names match the upstream indexer's GraphQL selection names.
type EventType string

const (
	EventCollateralInit       EventType = "TreasuryV1_CollateralVotingInit"
	EventCollateralAction     EventType = "TreasuryV1_CollateralVotingAction"
	EventSetProjectInTreasury EventType = "TreasuryV1_SetProject"
	EventNewProject           EventType = "ProjectV1_NewProject"
	EventSetSangha            EventType = "ProjectV1_SetSangha"
	EventSetInitialLeader     EventType = "ProjectV1_SetInitialLeader"
	EventMint                 EventType = "TreasuryV1_Mint"
	EventNewTask              EventType = "ActV1_NewTask"
	EventCompleteTask         EventType = "ActV1_CompleteTask"
	EventCancelTask           EventType = "ActV1_CancelTask"
	EventCashierRedeem        EventType = "CashierV1_Redeem"
)

// EventTypes lists every indexed stream in dispatch order. Project creation
// comes before the events that mutate a project so that same-cycle arrivals
// resolve through the pending cache drain rather than a full extra cycle.
var EventTypes = []EventType{
	EventCollateralInit,
	EventCollateralAction,
	EventSetProjectInTreasury,
	EventNewProject,
	EventSetSangha,
	EventSetInitialLeader,
	EventMint,
	EventNewTask,
	EventCompleteTask,
	EventCancelTask,
	EventCashierRedeem,
}

// Event is implemented by every indexed event payload.
type Event interface {
	// EventID returns the upstream composite id, "<networkId>_<a>_<b>".
	EventID() string

	// WriteTimestamp returns the upstream db_write_timestamp (ISO-8601).
	WriteTimestamp() string
}

// EventMeta carries the fields shared by all event payloads.
type EventMeta struct {
	ID               string `json:"id"`
	DBWriteTimestamp string `json:"db_write_timestamp"`
}

func (m EventMeta) EventID() string        { return m.ID }
func (m EventMeta) WriteTimestamp() string { return m.DBWriteTimestamp }

// NetworkIDFromEventID extracts the network id from a composite event id.
// The network id is always the integer before the first underscore.
func NetworkIDFromEventID(id string) (int64, error) {
	prefix, _, found := strings.Cut(id, "_")
	if !found {
		return 0, fmt.Errorf("malformed event id %q", id)
	}
	networkID, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed event id %q: %w", id, err)
	}
	return networkID, nil
}

// CollateralInitEvent starts a collateral voting round in the treasury.
type CollateralInitEvent struct {
	EventMeta
	Decimals     int32  `json:"decimals"`
	FeedDecimals int32  `json:"feedDecimals"`
	Feed         string `json:"feed"`
	Initializer  string `json:"initializer"`
	Token        string `json:"token"`
}

// CollateralActionEvent finishes a collateral voting round.
type CollateralActionEvent struct {
	EventMeta
	Agree bool   `json:"agree"`
	Token string `json:"token"`
}

// NewProjectEvent announces a project launched by a maintainer. The numbered
// project_N fields mirror the on-chain tuple layout.
type NewProjectEvent struct {
	EventMeta
	ProjectID int64  `json:"projectId"`
	Active    bool   `json:"project_0"`
	Name      string `json:"project_1"`
	Logos     string `json:"project_2"` // HTML-escaped JSON, idea discussion
	Aurora    string `json:"project_3"` // HTML-escaped JSON, user scenario
	TechStack string `json:"project_4"`
	CostUSD   string `json:"project_5"` // wei-format decimal string
	Duration  int64  `json:"project_6"` // seconds
	SourceURL string `json:"project_7"`
	TestURL   string `json:"project_8"`
	StartTime int64  `json:"project_9"` // unix timestamp
}

// SetSanghaEvent assigns the project's three sangha token contracts.
type SetSanghaEvent struct {
	EventMeta
	ProjectID  int64  `json:"projectId"`
	Ownership  string `json:"project_0"`
	Maintainer string `json:"project_1"`
	Check      string `json:"project_2"`
}

// SetInitialLeaderEvent assigns the project's first leader wallet.
type SetInitialLeaderEvent struct {
	EventMeta
	ProjectID     int64  `json:"projectId"`
	InitialLeader string `json:"initialLeader"`
}

// SetProjectInTreasuryEvent caps the project's ownership token supply.
type SetProjectInTreasuryEvent struct {
	EventMeta
	ProjectID   int64  `json:"projectId"`
	TokenAmount string `json:"tokenAmount"`
	USDAmount   string `json:"usdAmount"`
}

// MintEvent records an investor adding collateral for ownership tokens.
type MintEvent struct {
	EventMeta
	ProjectID        int64  `json:"projectId_"`
	CollateralAmount string `json:"collateralAmount"`
	OwnershipAmount  string `json:"ownershipAmount"`
	USDAmount        string `json:"usdAmount"`
	Collateral       string `json:"collateral"`
	OwnershipToken   string `json:"ownershipToken"`
	To               string `json:"to"`
}

// NewTaskEvent records a maintainer opening a development task.
type NewTaskEvent struct {
	EventMeta
	ProjectID   int64  `json:"projectId"`
	TaskID      int64  `json:"taskId"`
	CheckAmount string `json:"checkAmount_"`
	Payload     string `json:"payload"`
}

// CompleteTaskEvent records a contributor finishing a task.
type CompleteTaskEvent struct {
	EventMeta
	ProjectID   int64  `json:"projectId"`
	TaskID      int64  `json:"taskId"`
	Contributor string `json:"contributor"`
	Payload     string `json:"payload"`
}

// CancelTaskEvent records a maintainer withdrawing a task.
type CancelTaskEvent struct {
	EventMeta
	ProjectID int64  `json:"projectId"`
	TaskID    int64  `json:"taskId"`
	Payload   string `json:"payload"`
}

// CashierRedeemEvent records a contributor cashing out check tokens.
type CashierRedeemEvent struct {
	EventMeta
	CollateralAmount string `json:"collateralAmount"`
	USDAmount        string `json:"usdAmount"`
	Check            string `json:"check"`
	Collateral       string `json:"collateral"`
	To               string `json:"to"`
}

// EventBatch holds one polling cycle's worth of events, one ascending-ordered
// slice per stream. JSON tags match the composite query's selection names.
type EventBatch struct {
	CollateralInits       []CollateralInitEvent       `json:"TreasuryV1_CollateralVotingInit"`
	CollateralActions     []CollateralActionEvent     `json:"TreasuryV1_CollateralVotingAction"`
	SetProjectInTreasurys []SetProjectInTreasuryEvent `json:"TreasuryV1_SetProject"`
	NewProjects           []NewProjectEvent           `json:"ProjectV1_NewProject"`
	SetSanghas            []SetSanghaEvent            `json:"ProjectV1_SetSangha"`
	SetInitialLeaders     []SetInitialLeaderEvent     `json:"ProjectV1_SetInitialLeader"`
	Mints                 []MintEvent                 `json:"TreasuryV1_Mint"`
	NewTasks              []NewTaskEvent              `json:"ActV1_NewTask"`
	CompleteTasks         []CompleteTaskEvent         `json:"ActV1_CompleteTask"`
	CancelTasks           []CancelTaskEvent           `json:"ActV1_CancelTask"`
	CashierRedeems        []CashierRedeemEvent        `json:"CashierV1_Redeem"`
}

// Events returns the batch for one stream boxed as the Event interface.
func (b *EventBatch) Events(t EventType) []Event {
	switch t {
	case EventCollateralInit:
		return boxEvents(b.CollateralInits)
	case EventCollateralAction:
		return boxEvents(b.CollateralActions)
	case EventSetProjectInTreasury:
		return boxEvents(b.SetProjectInTreasurys)
	case EventNewProject:
		return boxEvents(b.NewProjects)
	case EventSetSangha:
		return boxEvents(b.SetSanghas)
	case EventSetInitialLeader:
		return boxEvents(b.SetInitialLeaders)
	case EventMint:
		return boxEvents(b.Mints)
	case EventNewTask:
		return boxEvents(b.NewTasks)
	case EventCompleteTask:
		return boxEvents(b.CompleteTasks)
	case EventCancelTask:
		return boxEvents(b.CancelTasks)
	case EventCashierRedeem:
		return boxEvents(b.CashierRedeems)
	}
	return nil
}

// Total returns the number of events across all streams.
func (b *EventBatch) Total() int {
	n := 0
	for _, t := range EventTypes {
		n += len(b.Events(t))
	}
	return n
}

func boxEvents[E Event](events []E) []Event {
	if len(events) == 0 {
		return nil
	}
	boxed := make([]Event, len(events))
	for i, e := range events {
		boxed[i] = e
	}
	return boxed
}
