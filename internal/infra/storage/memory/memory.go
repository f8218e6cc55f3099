// Package memory provides an in-memory projection store. It backs the unit
// tests and lets the indexer run without a database URL configured.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// Storage holds every collection behind one mutex. Copies go in and out so
// callers never share pointers with the store.
type Storage struct {
	mu sync.RWMutex

	watermarks  map[domain.EventType]domain.Watermark
	projects    map[string]*domain.Project    // surrogate id
	collaterals map[string]*domain.Collateral // token|networkId
	tasks       map[string]*domain.Task       // projectRef|taskId
	plans       map[string]*domain.Plan       // surrogate id
	acts        map[string]*domain.Act        // surrogate id
	wallets     map[string]*domain.LinkedWallet
	processed   map[string]domain.EventType // event id
}

// Health always succeeds. In-memory storage has nothing to ping.
func (s *Storage) Health(ctx context.Context) error { return nil }

// NewStorage creates an empty in-memory store.
func NewStorage() *Storage {
	return &Storage{
		watermarks:  make(map[domain.EventType]domain.Watermark),
		projects:    make(map[string]*domain.Project),
		collaterals: make(map[string]*domain.Collateral),
		tasks:       make(map[string]*domain.Task),
		plans:       make(map[string]*domain.Plan),
		acts:        make(map[string]*domain.Act),
		wallets:     make(map[string]*domain.LinkedWallet),
		processed:   make(map[string]domain.EventType),
	}
}

func collateralKey(token string, networkID int64) string {
	return strings.ToLower(token) + "|" + itoa(networkID)
}

func taskKey(projectRef string, taskID int64) string {
	return projectRef + "|" + itoa(taskID)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// =============================================================================
// Watermarks
// =============================================================================

type WatermarkRepo struct{ s *Storage }

func NewWatermarkRepo(s *Storage) *WatermarkRepo { return &WatermarkRepo{s: s} }

func (r *WatermarkRepo) GetAll(ctx context.Context) ([]domain.Watermark, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Watermark, 0, len(r.s.watermarks))
	for _, w := range r.s.watermarks {
		out = append(out, w)
	}
	return out, nil
}

func (r *WatermarkRepo) Upsert(ctx context.Context, w domain.Watermark) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.watermarks[w.EventType] = w
	return nil
}

// =============================================================================
// Processed events
// =============================================================================

type ProcessedEventRepo struct{ s *Storage }

func NewProcessedEventRepo(s *Storage) *ProcessedEventRepo { return &ProcessedEventRepo{s: s} }

func (r *ProcessedEventRepo) Seen(ctx context.Context, eventID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.processed[eventID]
	return ok, nil
}

func (r *ProcessedEventRepo) Mark(ctx context.Context, eventID string, eventType domain.EventType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.processed[eventID] = eventType
	return nil
}

// =============================================================================
// Projects
// =============================================================================

type ProjectRepo struct{ s *Storage }

func NewProjectRepo(s *Storage) *ProjectRepo { return &ProjectRepo{s: s} }

func (r *ProjectRepo) GetByNetwork(
	ctx context.Context,
	projectID, networkID int64,
) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.projects {
		if p.ProjectID == projectID && p.NetworkID == networkID {
			return copyProject(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *ProjectRepo) GetByCheck(
	ctx context.Context,
	check string,
	networkID int64,
) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.projects {
		if p.NetworkID == networkID && p.Sangha != nil &&
			strings.EqualFold(p.Sangha.Check, check) {
			return copyProject(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *ProjectRepo) Insert(ctx context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.projects {
		if existing.ProjectID == p.ProjectID && existing.NetworkID == p.NetworkID {
			return storage.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.s.projects[p.ID] = copyProject(p)
	return nil
}

func (r *ProjectRepo) Replace(ctx context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, existing := range r.s.projects {
		if existing.ProjectID == p.ProjectID && existing.NetworkID == p.NetworkID {
			replaced := copyProject(p)
			replaced.ID = id
			r.s.projects[id] = replaced
			return nil
		}
	}
	return storage.ErrNotFound
}

func copyProject(p *domain.Project) *domain.Project {
	c := *p
	if p.Sangha != nil {
		s := *p.Sangha
		c.Sangha = &s
	}
	if p.Lungta != nil {
		l := *p.Lungta
		c.Lungta = &l
	}
	if p.Leader != nil {
		w := *p.Leader
		c.Leader = &w
	}
	return &c
}

// =============================================================================
// Collaterals
// =============================================================================

type CollateralRepo struct{ s *Storage }

func NewCollateralRepo(s *Storage) *CollateralRepo { return &CollateralRepo{s: s} }

func (r *CollateralRepo) Get(
	ctx context.Context,
	token string,
	networkID int64,
) (*domain.Collateral, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.collaterals[collateralKey(token, networkID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CollateralRepo) Insert(ctx context.Context, c *domain.Collateral) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := collateralKey(c.Token, c.NetworkID)
	if _, ok := r.s.collaterals[key]; ok {
		return storage.ErrDuplicate
	}
	cp := *c
	r.s.collaterals[key] = &cp
	return nil
}

func (r *CollateralRepo) Replace(ctx context.Context, c *domain.Collateral) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := collateralKey(c.Token, c.NetworkID)
	if _, ok := r.s.collaterals[key]; !ok {
		return storage.ErrNotFound
	}
	cp := *c
	r.s.collaterals[key] = &cp
	return nil
}

// =============================================================================
// Tasks
// =============================================================================

type TaskRepo struct{ s *Storage }

func NewTaskRepo(s *Storage) *TaskRepo { return &TaskRepo{s: s} }

func (r *TaskRepo) Get(
	ctx context.Context,
	projectRef string,
	taskID int64,
) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[taskKey(projectRef, taskID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	tp := *t
	return &tp, nil
}

func (r *TaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := taskKey(t.ProjectRef, t.TaskID)
	if _, ok := r.s.tasks[key]; ok {
		return storage.ErrDuplicate
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	tp := *t
	r.s.tasks[key] = &tp
	return nil
}

func (r *TaskRepo) Replace(ctx context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := taskKey(t.ProjectRef, t.TaskID)
	existing, ok := r.s.tasks[key]
	if !ok {
		return storage.ErrNotFound
	}
	tp := *t
	tp.ID = existing.ID
	r.s.tasks[key] = &tp
	return nil
}

// =============================================================================
// Plans and acts
// =============================================================================

type PlanRepo struct{ s *Storage }

func NewPlanRepo(s *Storage) *PlanRepo { return &PlanRepo{s: s} }

func (r *PlanRepo) GetByProject(ctx context.Context, projectRef string) (*domain.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.plans {
		if p.ProjectRef == projectRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *PlanRepo) Insert(ctx context.Context, p *domain.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.s.plans[p.ID] = &cp
	return nil
}

type ActRepo struct{ s *Storage }

func NewActRepo(s *Storage) *ActRepo { return &ActRepo{s: s} }

func (r *ActRepo) GetByProject(ctx context.Context, projectRef string) (*domain.Act, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.acts {
		if a.ProjectRef == projectRef {
			cp := *a
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *ActRepo) Insert(ctx context.Context, a *domain.Act) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	r.s.acts[a.ID] = &cp
	return nil
}

func (r *ActRepo) ListWithProjects(ctx context.Context) ([]domain.ActWithProject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.ActWithProject
	for _, a := range r.s.acts {
		p, ok := r.s.projects[a.ProjectRef]
		if !ok {
			continue
		}
		out = append(out, domain.ActWithProject{Act: *a, Project: *copyProject(p)})
	}
	return out, nil
}

// =============================================================================
// Linked wallets
// =============================================================================

type LinkedWalletRepo struct{ s *Storage }

func NewLinkedWalletRepo(s *Storage) *LinkedWalletRepo { return &LinkedWalletRepo{s: s} }

func (r *LinkedWalletRepo) GetByWalletAddress(
	ctx context.Context,
	address string,
) (*domain.LinkedWallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[strings.ToLower(address)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *LinkedWalletRepo) Save(ctx context.Context, w *domain.LinkedWallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *w
	r.s.wallets[strings.ToLower(w.WalletAddress)] = &cp
	return nil
}
