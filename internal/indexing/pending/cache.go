// Package pending holds events whose target project does not exist yet.
// The cache is process-local and lost on restart.
package pending

import (
	"sync"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
)

// Pending is the set of stashed events drained for one project key.
// Fields are nil when nothing was stashed for that category.
type Pending struct {
	Sangha   *domain.SetSanghaEvent
	Leader   *domain.SetInitialLeaderEvent
	Treasury *domain.SetProjectInTreasuryEvent
	Mint     *domain.MintEvent
}

// Cache stashes set-semantics events keyed by "<networkId>_<projectId>".
// Stashing twice for the same key keeps only the latest event, since each
// category carries absolute state rather than a delta.
type Cache struct {
	mu sync.Mutex

	sangha   map[string]domain.SetSanghaEvent
	leader   map[string]domain.SetInitialLeaderEvent
	treasury map[string]domain.SetProjectInTreasuryEvent
	mint     map[string]domain.MintEvent
	task     map[string]domain.NewTaskEvent
}

// NewCache creates an empty pending cache.
func NewCache() *Cache {
	return &Cache{
		sangha:   make(map[string]domain.SetSanghaEvent),
		leader:   make(map[string]domain.SetInitialLeaderEvent),
		treasury: make(map[string]domain.SetProjectInTreasuryEvent),
		mint:     make(map[string]domain.MintEvent),
		task:     make(map[string]domain.NewTaskEvent),
	}
}

// StashSangha stores a sangha assignment waiting for its project.
func (c *Cache) StashSangha(key string, e domain.SetSanghaEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sangha[key] = e
}

// StashLeader stores a leader assignment waiting for its project.
func (c *Cache) StashLeader(key string, e domain.SetInitialLeaderEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leader[key] = e
}

// StashTreasury stores a treasury linkage waiting for its project.
func (c *Cache) StashTreasury(key string, e domain.SetProjectInTreasuryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.treasury[key] = e
}

// StashMint stores a mint waiting for its project.
func (c *Cache) StashMint(key string, e domain.MintEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mint[key] = e
}

// StashTask stores a task creation waiting for its project. Task stashes
// are not replayed by DrainFor; see the task processor for details.
func (c *Cache) StashTask(key string, e domain.NewTaskEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.task[key] = e
}

// DrainFor removes and returns everything stashed for a project key.
// Callers replay the categories in order: sangha, leader, treasury, mint.
func (c *Cache) DrainFor(key string) Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	var p Pending
	if e, ok := c.sangha[key]; ok {
		p.Sangha = &e
		delete(c.sangha, key)
	}
	if e, ok := c.leader[key]; ok {
		p.Leader = &e
		delete(c.leader, key)
	}
	if e, ok := c.treasury[key]; ok {
		p.Treasury = &e
		delete(c.treasury, key)
	}
	if e, ok := c.mint[key]; ok {
		p.Mint = &e
		delete(c.mint, key)
	}
	return p
}

// Size returns the total number of stashed events.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sangha) + len(c.leader) + len(c.treasury) + len(c.mint) + len(c.task)
}
