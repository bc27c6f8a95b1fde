/*
Package transport allocates the shared daily transport cost across job sites.

PURPOSE:
  Vehicle-equipped workers incur a daily transport cost (truck, insurance,
  fuel, plus any custom components). For a given date, this package finds the
  job sites those workers were billably deployed at, splits each worker's
  amount evenly across that worker's distinct sites, and creates exactly one
  transport-fee charge per (site, date) pair.

IDEMPOTENCY:
  At most one transport-fee charge may exist per (site, date). Re-invocation
  for the same date skips sites that already carry the fee. Within one run,
  when several workers map to the same site, the first share wins and later
  shares are dropped: the dedup guarantee takes precedence over splitting
  precision. The in-memory checks here are an optimization; the store's
  uniqueness constraint on (site, fee date) is the source of truth, and a
  constraint rejection is counted as a skip.

FAILURE SEMANTICS:
  A failed creation for one site does not abort the run; the failure is
  recorded per site and allocation continues. The returned counts reflect
  actual outcomes.

SEE ALSO:
  - charging/store.go: FindAllocatedFee and the uniqueness contract
  - overhead/: The sibling daily allocation (overhead distribution)
  - api/scheduler.go: Daily trigger
*/
package transport

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
)

// FeeChargeName is the display name of allocator-created charges. Dedup is
// keyed on the fee date and kind markers, not on this label, so renaming it
// is safe.
const FeeChargeName = "Daily transport fee"

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator applies transport fees for a date.
type Allocator struct {
	Charges charging.ChargeStore
	Workers charging.WorkerStore
	Config  charging.TransportConfigStore
}

func NewAllocator(charges charging.ChargeStore, workers charging.WorkerStore, config charging.TransportConfigStore) *Allocator {
	return &Allocator{Charges: charges, Workers: workers, Config: config}
}

// SiteFailure records one site whose fee creation failed during a run.
type SiteFailure struct {
	SiteID charging.SiteID `json:"siteId"`
	Err    string          `json:"error"`
}

// Result reports the outcome of one allocation run.
type Result struct {
	Created  int               `json:"createdCount"`
	Skipped  int               `json:"skippedCount"`
	Failures []SiteFailure     `json:"failures,omitempty"`
	Amount   decimal.Decimal   `json:"amount"`
	Sites    []charging.SiteID `json:"sites,omitempty"` // sites credited this run
}

// Apply allocates the transport fee for one date.
//
// The amount is explicitAmount when positive, otherwise the sum of the
// configured components; a run with no positive amount fails validation.
// onlyWorker restricts the cohort to a single vehicle-equipped worker when
// non-zero.
func (a *Allocator) Apply(ctx context.Context, date string, explicitAmount decimal.Decimal, onlyWorker charging.WorkerID) (*Result, error) {
	if _, ok := charging.ParseDay(date); !ok {
		return nil, charging.NewValidationError("date", "expected YYYY-MM-DD")
	}

	amount, err := a.resolveAmount(ctx, explicitAmount)
	if err != nil {
		return nil, err
	}

	cohort, err := a.resolveCohort(ctx, onlyWorker)
	if err != nil {
		return nil, err
	}

	personnelCharges, err := a.Charges.ListPersonnelCharges(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning personnel charges: %v", charging.ErrStoreUnavailable, err)
	}

	// Each worker's amount splits evenly across that worker's distinct sites
	// for the date. Shares for a site already credited this run are dropped.
	shares := make(map[charging.SiteID]decimal.Decimal)
	var order []charging.SiteID
	for _, worker := range cohort {
		sites := billableSitesOn(personnelCharges, worker.ID, date)
		if len(sites) == 0 {
			continue
		}
		share := amount.Div(decimal.NewFromInt(int64(len(sites))))
		for _, siteID := range sites {
			if _, seen := shares[siteID]; seen {
				continue
			}
			shares[siteID] = share
			order = append(order, siteID)
		}
	}

	result := &Result{Amount: amount}
	for _, siteID := range order {
		created, err := a.createFee(ctx, siteID, date, shares[siteID])
		switch {
		case err == nil && created:
			result.Created++
			result.Sites = append(result.Sites, siteID)
		case err == nil:
			result.Skipped++
		case charging.IsConflict(err):
			// Lost the race to a concurrent run; the constraint held.
			result.Skipped++
		default:
			log.Printf("[transport] fee creation failed for site %d on %s: %v", siteID, date, err)
			result.Failures = append(result.Failures, SiteFailure{SiteID: siteID, Err: err.Error()})
		}
	}
	return result, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (a *Allocator) resolveAmount(ctx context.Context, explicit decimal.Decimal) (decimal.Decimal, error) {
	if explicit.IsPositive() {
		return explicit, nil
	}
	cfg, err := a.Config.GetTransportConfig(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: loading transport config: %v", charging.ErrStoreUnavailable, err)
	}
	total := cfg.Total()
	if !total.IsPositive() {
		return decimal.Zero, charging.NewValidationError("amount", "no positive transport amount configured")
	}
	return total, nil
}

func (a *Allocator) resolveCohort(ctx context.Context, onlyWorker charging.WorkerID) ([]charging.Worker, error) {
	if onlyWorker != 0 {
		w, err := a.Workers.GetWorker(ctx, onlyWorker)
		if err != nil {
			return nil, err
		}
		if !w.HasVehicle {
			return nil, charging.NewValidationError("workerId", "worker is not vehicle-equipped")
		}
		return []charging.Worker{*w}, nil
	}

	cohort, err := a.Workers.ListVehicleEquipped(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing vehicle-equipped workers: %v", charging.ErrStoreUnavailable, err)
	}
	return cohort, nil
}

// billableSitesOn returns the distinct job sites at which the worker has a
// billable work day on the date, in stable (sorted) order.
func billableSitesOn(charges []charging.Charge, worker charging.WorkerID, date string) []charging.SiteID {
	seen := make(map[charging.SiteID]bool)
	var sites []charging.SiteID
	for _, c := range charges {
		for _, assignment := range c.Personnel {
			if assignment.Passthrough || assignment.WorkerID != worker {
				continue
			}
			for _, day := range assignment.Days {
				if day.Date == date && day.Billable && !seen[c.SiteID] {
					seen[c.SiteID] = true
					sites = append(sites, c.SiteID)
				}
			}
		}
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })
	return sites
}

// createFee creates the fee charge unless one already exists for the pair.
// Returns (false, nil) when skipped.
func (a *Allocator) createFee(ctx context.Context, siteID charging.SiteID, date string, share decimal.Decimal) (bool, error) {
	existing, err := a.Charges.FindAllocatedFee(ctx, siteID, date, charging.FeeTransport)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	_, err = a.Charges.CreateCharge(ctx, &charging.Charge{
		SiteID:      siteID,
		Category:    charging.CategoryFixedCost,
		Name:        FeeChargeName,
		Amount:      share,
		FeeDate:     date,
		FeeKind:     charging.FeeTransport,
		Description: fmt.Sprintf("Transport fee allocation for %s", date),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
