/*
store.go - Persistence contracts consumed by the engine

PURPOSE:
  Defines the interfaces between the engine and the database. Implementations
  live in store/sqlite (production) and charging/store (in-memory, tests).

CONTRACT NOTES:
  - CreateCharge assigns a strictly monotonic ChargeID; ownership precedence
    between personnel charges is defined by this ordering, so the assignment
    must be atomic at the storage layer.
  - FindAllocatedFee is the read side of the one-charge-per-site-per-date
    invariant each daily allocation holds. The write side is a uniqueness
    constraint in the store: the in-memory check in the allocators is an
    optimization, the constraint is the source of truth.

SEE ALSO:
  - store/sqlite/sqlite.go: Production implementation
  - charging/store/memory.go: In-memory implementation for tests
*/
package charging

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHARGE STORE
// =============================================================================

// ChargeStore persists charge records. Personnel payloads are stored as part
// of the record and replaced wholesale on update.
type ChargeStore interface {
	// ListCharges returns all charges for a job site, oldest first.
	ListCharges(ctx context.Context, siteID SiteID) ([]Charge, error)

	// ListPersonnelCharges returns every personnel charge in the system,
	// ordered by ID. Ownership resolution rescans this set on every
	// normalization pass.
	ListPersonnelCharges(ctx context.Context) ([]Charge, error)

	// GetCharge returns the charge or a NotFoundError.
	GetCharge(ctx context.Context, id ChargeID) (*Charge, error)

	// CreateCharge inserts the charge and returns it with its assigned ID.
	// Returns ErrDuplicateAllocatedFee when the (site, fee date, fee kind)
	// uniqueness constraint rejects an allocated charge.
	CreateCharge(ctx context.Context, charge *Charge) (*Charge, error)

	// UpdateCharge replaces the stored record (payload included) keeping its ID.
	UpdateCharge(ctx context.Context, id ChargeID, charge *Charge) (*Charge, error)

	// DeleteCharge removes the charge, releasing any work-day ownership it
	// held (ownership is derived, so no bookkeeping is needed here).
	DeleteCharge(ctx context.Context, id ChargeID) error

	// FindAllocatedFee returns the allocated charge of the given kind for a
	// (site, date) pair, or nil when none exists.
	FindAllocatedFee(ctx context.Context, siteID SiteID, feeDate string, kind FeeKind) (*Charge, error)

	// SiteTotals sums charge amounts per category for a job site.
	SiteTotals(ctx context.Context, siteID SiteID) (map[Category]decimal.Decimal, error)
}

// =============================================================================
// JOB SITE STORE
// =============================================================================

type JobSiteStore interface {
	GetJobSite(ctx context.Context, id SiteID) (*JobSite, error)
	ListJobSites(ctx context.Context) ([]JobSite, error)
	CreateJobSite(ctx context.Context, site *JobSite) (*JobSite, error)
	UpdateJobSite(ctx context.Context, id SiteID, site *JobSite) (*JobSite, error)
}

// =============================================================================
// WORKER STORE
// =============================================================================

type WorkerStore interface {
	GetWorker(ctx context.Context, id WorkerID) (*Worker, error)
	ListWorkers(ctx context.Context) ([]Worker, error)

	// ListVehicleEquipped returns workers eligible to trigger transport-fee
	// allocation, ordered by ID for deterministic share assignment.
	ListVehicleEquipped(ctx context.Context) ([]Worker, error)

	CreateWorker(ctx context.Context, worker *Worker) (*Worker, error)
}

// =============================================================================
// TRANSPORT CONFIG STORE
// =============================================================================

// TransportConfigStore holds the singleton transport-fee configuration.
// Get returns a zero-valued config when none has been saved yet.
type TransportConfigStore interface {
	GetTransportConfig(ctx context.Context) (*TransportConfig, error)
	PutTransportConfig(ctx context.Context, cfg *TransportConfig) error
}

// =============================================================================
// OVERHEAD REGISTRY STORE
// =============================================================================

// OverheadRegistryStore holds the singleton monthly overhead registry.
// Get returns a zero-valued registry when none has been saved yet.
type OverheadRegistryStore interface {
	GetOverheadRegistry(ctx context.Context) (*OverheadRegistry, error)
	PutOverheadRegistry(ctx context.Context, reg *OverheadRegistry) error
}
