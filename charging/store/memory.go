// Package store provides in-memory implementations of the charging store
// contracts, used in engine and allocator tests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ChargeStore, JobSiteStore, WorkerStore,
// TransportConfigStore and OverheadRegistryStore. Charge IDs are assigned
// from a monotonic counter, matching the precedence contract of the SQLite
// store. The (site, fee date, fee kind) uniqueness constraint for allocated
// charges is enforced the same way.
type Memory struct {
	mu       sync.RWMutex
	charges  map[charging.ChargeID]charging.Charge
	sites    map[charging.SiteID]charging.JobSite
	workers  map[charging.WorkerID]charging.Worker
	config   *charging.TransportConfig
	registry *charging.OverheadRegistry

	nextCharge charging.ChargeID
	nextSite   charging.SiteID
	nextWorker charging.WorkerID
}

func NewMemory() *Memory {
	return &Memory{
		charges:    make(map[charging.ChargeID]charging.Charge),
		sites:      make(map[charging.SiteID]charging.JobSite),
		workers:    make(map[charging.WorkerID]charging.Worker),
		nextCharge: 1,
		nextSite:   1,
		nextWorker: 1,
	}
}

// =============================================================================
// CHARGE STORE
// =============================================================================

func (m *Memory) ListCharges(_ context.Context, siteID charging.SiteID) ([]charging.Charge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []charging.Charge
	for _, c := range m.charges {
		if c.SiteID == siteID {
			out = append(out, c)
		}
	}
	sortCharges(out)
	return out, nil
}

func (m *Memory) ListPersonnelCharges(_ context.Context) ([]charging.Charge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []charging.Charge
	for _, c := range m.charges {
		if c.Category == charging.CategoryPersonnel {
			out = append(out, c)
		}
	}
	sortCharges(out)
	return out, nil
}

func (m *Memory) GetCharge(_ context.Context, id charging.ChargeID) (*charging.Charge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.charges[id]
	if !ok {
		return nil, &charging.NotFoundError{Kind: "charge", ID: int64(id)}
	}
	return &c, nil
}

func (m *Memory) CreateCharge(_ context.Context, charge *charging.Charge) (*charging.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if charge.FeeDate != "" {
		for _, existing := range m.charges {
			if existing.SiteID == charge.SiteID && existing.FeeDate == charge.FeeDate &&
				existing.FeeKind == charge.FeeKind {
				return nil, charging.ErrDuplicateAllocatedFee
			}
		}
	}

	stored := *charge
	stored.ID = m.nextCharge
	m.nextCharge++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.charges[stored.ID] = stored
	return &stored, nil
}

func (m *Memory) UpdateCharge(_ context.Context, id charging.ChargeID, charge *charging.Charge) (*charging.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.charges[id]
	if !ok {
		return nil, &charging.NotFoundError{Kind: "charge", ID: int64(id)}
	}
	stored := *charge
	stored.ID = id
	stored.CreatedAt = existing.CreatedAt
	m.charges[id] = stored
	return &stored, nil
}

func (m *Memory) DeleteCharge(_ context.Context, id charging.ChargeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charges[id]; !ok {
		return &charging.NotFoundError{Kind: "charge", ID: int64(id)}
	}
	delete(m.charges, id)
	return nil
}

func (m *Memory) FindAllocatedFee(_ context.Context, siteID charging.SiteID, feeDate string, kind charging.FeeKind) (*charging.Charge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.charges {
		if c.SiteID == siteID && c.FeeDate == feeDate && c.FeeKind == kind {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) SiteTotals(_ context.Context, siteID charging.SiteID) (map[charging.Category]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	totals := make(map[charging.Category]decimal.Decimal)
	for _, c := range m.charges {
		if c.SiteID == siteID {
			totals[c.Category] = totals[c.Category].Add(c.Amount)
		}
	}
	return totals, nil
}

// =============================================================================
// JOB SITE STORE
// =============================================================================

func (m *Memory) GetJobSite(_ context.Context, id charging.SiteID) (*charging.JobSite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, &charging.NotFoundError{Kind: "job site", ID: int64(id)}
	}
	return &s, nil
}

func (m *Memory) ListJobSites(_ context.Context) ([]charging.JobSite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]charging.JobSite, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateJobSite(_ context.Context, site *charging.JobSite) (*charging.JobSite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *site
	stored.ID = m.nextSite
	m.nextSite++
	if stored.Status == "" {
		stored.Status = charging.SiteActive
	}
	m.sites[stored.ID] = stored
	return &stored, nil
}

func (m *Memory) UpdateJobSite(_ context.Context, id charging.SiteID, site *charging.JobSite) (*charging.JobSite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[id]; !ok {
		return nil, &charging.NotFoundError{Kind: "job site", ID: int64(id)}
	}
	stored := *site
	stored.ID = id
	m.sites[id] = stored
	return &stored, nil
}

// =============================================================================
// WORKER STORE
// =============================================================================

func (m *Memory) GetWorker(_ context.Context, id charging.WorkerID) (*charging.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, &charging.NotFoundError{Kind: "worker", ID: int64(id)}
	}
	return &w, nil
}

func (m *Memory) ListWorkers(_ context.Context) ([]charging.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]charging.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListVehicleEquipped(_ context.Context) ([]charging.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []charging.Worker
	for _, w := range m.workers {
		if w.HasVehicle {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateWorker(_ context.Context, worker *charging.Worker) (*charging.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *worker
	stored.ID = m.nextWorker
	m.nextWorker++
	m.workers[stored.ID] = stored
	return &stored, nil
}

// =============================================================================
// TRANSPORT CONFIG STORE
// =============================================================================

func (m *Memory) GetTransportConfig(_ context.Context) (*charging.TransportConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return &charging.TransportConfig{}, nil
	}
	cfg := *m.config
	return &cfg, nil
}

func (m *Memory) PutTransportConfig(_ context.Context, cfg *charging.TransportConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *cfg
	m.config = &stored
	return nil
}

// =============================================================================
// OVERHEAD REGISTRY STORE
// =============================================================================

func (m *Memory) GetOverheadRegistry(_ context.Context) (*charging.OverheadRegistry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.registry == nil {
		return &charging.OverheadRegistry{}, nil
	}
	reg := *m.registry
	return &reg, nil
}

func (m *Memory) PutOverheadRegistry(_ context.Context, reg *charging.OverheadRegistry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *reg
	m.registry = &stored
	return nil
}

func sortCharges(cs []charging.Charge) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
