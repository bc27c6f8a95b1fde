/*
Package overhead distributes the company's monthly overhead costs across
active job sites as daily fixed-cost charges.

PURPOSE:
  The overhead registry records monthly company-level costs (financial fees,
  loan repayments, accounting, rent, general expenses, social charges, plus
  custom entries). Every day, the registry's monthly total is spread over a
  flat 30 days and the resulting daily amount is split evenly across all
  active job sites, one fixed-cost charge per site.

IDEMPOTENCY:
  At most one overhead charge may exist per (site, date). Re-invocation for
  the same date skips sites that already carry the charge. The in-memory
  check here is an optimization; the store's uniqueness constraint on
  (site, fee date, fee kind) is the source of truth, and a constraint
  rejection is counted as a skip.

FAILURE SEMANTICS:
  A failed creation for one site does not abort the run; the failure is
  recorded per site and distribution continues. The returned counts reflect
  actual outcomes.

SEE ALSO:
  - charging/types.go: OverheadRegistry and its 30-day spread
  - transport/: The sibling daily allocation (transport fees)
  - api/scheduler.go: Daily trigger
*/
package overhead

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
)

// ChargeName is the display name of distributor-created charges. Dedup is
// keyed on the fee date and kind markers, not on this label, so renaming it
// is safe.
const ChargeName = "Daily overhead distribution"

// =============================================================================
// DISTRIBUTOR
// =============================================================================

// Distributor applies the daily overhead charges for a date.
type Distributor struct {
	Charges  charging.ChargeStore
	Sites    charging.JobSiteStore
	Registry charging.OverheadRegistryStore
}

func NewDistributor(charges charging.ChargeStore, sites charging.JobSiteStore, registry charging.OverheadRegistryStore) *Distributor {
	return &Distributor{Charges: charges, Sites: sites, Registry: registry}
}

// SiteFailure records one site whose charge creation failed during a run.
type SiteFailure struct {
	SiteID charging.SiteID `json:"siteId"`
	Err    string          `json:"error"`
}

// Result reports the outcome of one distribution run.
type Result struct {
	Created     int               `json:"createdCount"`
	Skipped     int               `json:"skippedCount"`
	Failures    []SiteFailure     `json:"failures,omitempty"`
	DailyAmount decimal.Decimal   `json:"dailyAmount"`
	Sites       []charging.SiteID `json:"sites,omitempty"` // sites credited this run
}

// Apply distributes the daily overhead amount for one date.
//
// The registry's monthly total spread over 30 days is the daily amount; a
// registry that resolves to no positive amount fails validation. The daily
// amount splits evenly across all active job sites; a day with no active
// sites is an empty run, not an error.
func (d *Distributor) Apply(ctx context.Context, date string) (*Result, error) {
	if _, ok := charging.ParseDay(date); !ok {
		return nil, charging.NewValidationError("date", "expected YYYY-MM-DD")
	}

	reg, err := d.Registry.GetOverheadRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading overhead registry: %v", charging.ErrStoreUnavailable, err)
	}
	daily := reg.DailyTotal()
	if !daily.IsPositive() {
		return nil, charging.NewValidationError("registry", "no positive overhead amount registered")
	}

	active, err := d.activeSites(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{DailyAmount: daily}
	if len(active) == 0 {
		return result, nil
	}

	share := daily.Div(decimal.NewFromInt(int64(len(active))))
	monthly := reg.MonthlyTotal()
	for _, siteID := range active {
		created, err := d.createCharge(ctx, siteID, date, share, monthly, len(active))
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
			log.Printf("[overhead] charge creation failed for site %d on %s: %v", siteID, date, err)
			result.Failures = append(result.Failures, SiteFailure{SiteID: siteID, Err: err.Error()})
		}
	}
	return result, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// activeSites returns the IDs of sites with active status, in store order.
func (d *Distributor) activeSites(ctx context.Context) ([]charging.SiteID, error) {
	sites, err := d.Sites.ListJobSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing job sites: %v", charging.ErrStoreUnavailable, err)
	}
	var active []charging.SiteID
	for _, s := range sites {
		if s.Status == charging.SiteActive {
			active = append(active, s.ID)
		}
	}
	return active, nil
}

// createCharge creates the overhead charge unless one already exists for the
// pair. Returns (false, nil) when skipped.
func (d *Distributor) createCharge(
	ctx context.Context,
	siteID charging.SiteID,
	date string,
	share, monthly decimal.Decimal,
	siteCount int,
) (bool, error) {
	existing, err := d.Charges.FindAllocatedFee(ctx, siteID, date, charging.FeeOverhead)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	_, err = d.Charges.CreateCharge(ctx, &charging.Charge{
		SiteID:   siteID,
		Category: charging.CategoryFixedCost,
		Name:     ChargeName,
		Amount:   share,
		FeeDate:  date,
		FeeKind:  charging.FeeOverhead,
		Description: fmt.Sprintf("Overhead distribution for %s (monthly total %s over %d site(s))",
			date, monthly.StringFixed(2), siteCount),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
