/*
engine.go - Normalization entry points for personnel charges

PURPOSE:
  Wires duration-mode resolution, ownership resolution, and pricing against
  the store contracts. The API layer calls NormalizeAndPrice before
  persisting any personnel charge; EvaluateBillable backs the read-only
  billability preview.

FLOW (NormalizeAndPrice):
  1. Validate the submitted assignments
  2. Load the job site (dates and status drive the duration mode)
  3. Rescan all personnel charges, build the ownership index, resolve flags
  4. Refresh hourly rates from the worker store (submitted rate on failure)
  5. Compute totals; the aggregate is the amount to persist

FAILURE SEMANTICS:
  A failing worker-rate lookup degrades to the rate embedded in the line
  item (logged, not fatal). A failing charge scan aborts the operation: the
  engine never prices against an unverified ownership picture.

SEE ALSO:
  - duration.go, ownership.go, pricing.go: The three stages
  - api/handlers.go: HTTP surface calling into this engine
*/
package personnel

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine normalizes and prices personnel charges.
type Engine struct {
	Charges  charging.ChargeStore
	Sites    charging.JobSiteStore
	Workers  charging.WorkerStore
	Calendar charging.WorkingDayCalendar
	Calc     Calculator
}

// NewEngine creates an engine over the given stores with default pricing.
func NewEngine(charges charging.ChargeStore, sites charging.JobSiteStore, workers charging.WorkerStore) *Engine {
	return &Engine{
		Charges: charges,
		Sites:   sites,
		Workers: workers,
	}
}

// NormalizeAndPrice resolves billable flags and computes totals for a
// personnel charge about to be created or updated. editingID is the ID of
// the charge being edited, zero on create; the edited charge keeps the
// work-day claims its stored copy already owns.
//
// The returned assignments replace the submitted payload wholesale, and the
// returned amount is what must be persisted on the charge.
func (e *Engine) NormalizeAndPrice(
	ctx context.Context,
	siteID charging.SiteID,
	assignments []charging.PersonnelAssignment,
	editingID charging.ChargeID,
) ([]charging.PersonnelAssignment, decimal.Decimal, error) {
	if len(assignments) == 0 {
		return nil, decimal.Zero, charging.NewValidationError("personnel", "no workers selected")
	}

	// Site dates drive the duration mode. A caller without site context
	// (siteID == 0) falls through to the date-span heuristic.
	var site *charging.JobSite
	if siteID != 0 {
		s, err := e.Sites.GetJobSite(ctx, siteID)
		if err != nil {
			if charging.IsNotFound(err) {
				return nil, decimal.Zero, err
			}
			return nil, decimal.Zero, fmt.Errorf("%w: loading job site %d: %v", charging.ErrStoreUnavailable, siteID, err)
		}
		site = s
	}
	mode := ResolveMode(site, assignments)

	index, err := e.loadOwnership(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}

	resolved := ResolveOwnership(assignments, editingID, index, mode, e.Calendar)
	resolved = e.refreshRates(ctx, resolved)

	normalized, total := e.Calc.Compute(resolved, mode)
	return normalized, total, nil
}

// =============================================================================
// BILLABILITY PREVIEW
// =============================================================================

// BillableQuery asks which of a worker's dates are currently claimable.
type BillableQuery struct {
	WorkerID charging.WorkerID
	Dates    []string
}

// EvaluateBillable is a read-only preview of ownership resolution: for every
// (worker, date) in the query it reports whether a new charge (or the charge
// identified by editingID) would be allowed to bill that pair. Duration mode
// is not applied here; the preview answers ownership only.
func (e *Engine) EvaluateBillable(
	ctx context.Context,
	queries []BillableQuery,
	editingID charging.ChargeID,
) (map[DayKey]bool, error) {
	index, err := e.loadOwnership(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[DayKey]bool)
	for _, q := range queries {
		for _, date := range q.Dates {
			k := DayKey{Worker: q.WorkerID, Date: date}
			if date == "" {
				result[k] = false
				continue
			}
			owner, claimed := index.Owner(q.WorkerID, date)
			result[k] = !claimed || (editingID != 0 && owner == editingID)
		}
	}
	return result, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (e *Engine) loadOwnership(ctx context.Context) (OwnershipIndex, error) {
	existing, err := e.Charges.ListPersonnelCharges(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning personnel charges: %v", charging.ErrStoreUnavailable, err)
	}
	return BuildOwnershipIndex(existing), nil
}

// refreshRates replaces each assignment's hourly rate with the worker
// record's current rate. A failed lookup keeps the submitted rate.
func (e *Engine) refreshRates(ctx context.Context, assignments []charging.PersonnelAssignment) []charging.PersonnelAssignment {
	for i, a := range assignments {
		if a.Passthrough || a.WorkerID == 0 {
			continue
		}
		w, err := e.Workers.GetWorker(ctx, a.WorkerID)
		if err != nil || w == nil {
			log.Printf("[personnel] rate lookup failed for worker %d, keeping submitted rate: %v", a.WorkerID, err)
			continue
		}
		assignments[i].HourlyRate = w.HourlyRate
		if assignments[i].WorkerName == "" {
			assignments[i].WorkerName = w.Name
		}
	}
	return assignments
}
