package domain

// Sangha accumulates the project's token addresses and supply counters.
// Fields are filled in monotonically as their events arrive; they are never
// reset.
type Sangha struct {
	Ownership          string `json:"ownership,omitempty"`
	OwnershipSymbol    string `json:"ownershipSymbol,omitempty"`
	Maintainer         string `json:"maintainer,omitempty"`
	MaintainerSymbol   string `json:"maintainerSymbol,omitempty"`
	Check              string `json:"check,omitempty"`
	CheckSymbol        string `json:"checkSymbol,omitempty"`
	OwnershipMinted    string `json:"ownership_minted,omitempty"`
	OwnershipMaxSupply string `json:"ownership_max_supply,omitempty"`
}

// LungtaLinks cross-references the project's five lungta documents.
type LungtaLinks struct {
	LogosID   int64  `json:"logos_id,omitempty"`
	AuroraID  string `json:"aurora_id,omitempty"`
	MaydoneID string `json:"maydone_id,omitempty"`
	ActID     string `json:"act_id,omitempty"`
	SanghaID  string `json:"sangha_id,omitempty"`
}

// LinkedWallet ties a forum user to a wallet address.
type LinkedWallet struct {
	UserID        int64  `json:"userId"`
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username,omitempty"`
}

// Linked reports whether the wallet has been claimed by a forum user.
func (w *LinkedWallet) Linked() bool {
	return w != nil && w.UserID != 0
}

// Project is the V1 on-chain project projection, unique on
// (ProjectID, NetworkID). Created by the new-project event and mutated by the
// dependent event streams; never deleted.
type Project struct {
	ID        string        `json:"-"` // surrogate id assigned by the store
	ProjectID int64         `json:"projectId"`
	NetworkID int64         `json:"networkId"`
	Name      string        `json:"project_name"`
	Sangha    *Sangha       `json:"sangha,omitempty"`
	Lungta    *LungtaLinks  `json:"lungta,omitempty"`
	Leader    *LinkedWallet `json:"leader,omitempty"`
}

// DependencyKey is the pending-cache key for events that reference a project
// which may not exist yet.
func DependencyKey(networkID, projectID int64) string {
	return itoa(networkID) + "_" + itoa(projectID)
}

// DiscussionRef is the decoded idea (logos) payload carried by the
// new-project event. Only the discussion id is projected.
type DiscussionRef struct {
	ID int64 `json:"id"`
}

// UserScenarioRef is the decoded user-scenario (aurora) payload carried by
// the new-project event.
type UserScenarioRef struct {
	ID string `json:"_id"`
}
