/*
Package charging provides the core types and contracts of the site-cost engine.

PURPOSE:
  This package contains the domain types shared by every other package: charges
  attached to job sites, personnel assignments with their work days, workers,
  and the transport-fee configuration. It also defines the working-day calendar
  (calendar.go), the persistence contracts (store.go), and the error taxonomy
  (errors.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Charge: A cost record attached to exactly one job site
  - PersonnelAssignment: One worker's deployment inside a personnel charge
  - WorkDay: One calendar day within an assignment, with optional hours
  - JobSite / Worker: The site and worker records the engine reads

DESIGN PRINCIPLES:
  1. Precision: All money uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing site/worker/charge IDs
  3. Derived state: The billable flag on a WorkDay is always computed by the
     engine, never taken from a client

SEE ALSO:
  - calendar.go: Working-day and public-holiday computation
  - store.go: Persistence contracts
  - personnel/: Billing engine built on these types
*/
package charging

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ChargeID is assigned by the store at creation and is strictly monotonic.
// Ownership precedence between personnel charges is defined by this ordering.
type ChargeID int64

type SiteID int64
type WorkerID int64

// =============================================================================
// CHARGE - Cost record attached to a job site
// =============================================================================

type Category string

const (
	CategoryPurchase        Category = "purchase"
	CategoryExternalService Category = "external-service"
	CategoryTempLabor       Category = "temp-labor"
	CategoryPersonnel       Category = "personnel"
	CategoryFixedCost       Category = "fixed-cost"
	CategoryOther           Category = "other"
)

// ValidCategory reports whether c is one of the known charge categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryPurchase, CategoryExternalService, CategoryTempLabor,
		CategoryPersonnel, CategoryFixedCost, CategoryOther:
		return true
	}
	return false
}

// FeeKind tags charges created by the daily allocation machinery. Together
// with FeeDate it forms the dedup key: at most one charge per
// (site, date, kind).
type FeeKind string

const (
	FeeTransport FeeKind = "transport"
	FeeOverhead  FeeKind = "overhead"
)

// Charge is a cost entry attached to exactly one job site.
//
// For Category == CategoryPersonnel, Personnel holds the ordered list of
// assignments and Amount always equals the sum of their totals (the amount is
// recomputed by the engine on every create/update, never trusted from a client).
//
// For allocator-created charges (CategoryFixedCost transport fees and
// overhead distributions), FeeDate carries the date the charge covers and
// FeeKind says which allocation produced it; (site, date, kind) is the dedup
// key for the one-charge-per-site-per-date invariant of each allocation.
type Charge struct {
	ID          ChargeID        `json:"id"`
	SiteID      SiteID          `json:"siteId"`
	Category    Category        `json:"category"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`

	// Category-specific payload.
	Personnel []PersonnelAssignment `json:"personnel,omitempty"`
	FeeDate   string                `json:"feeDate,omitempty"` // YYYY-MM-DD, allocated charges only
	FeeKind   FeeKind               `json:"feeKind,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsPersonnel reports whether the charge carries a personnel payload.
func (c *Charge) IsPersonnel() bool { return c.Category == CategoryPersonnel }

// =============================================================================
// PERSONNEL ASSIGNMENT - One worker's deployment within a personnel charge
// =============================================================================

// PersonnelAssignment records which worker was deployed, at what rate, on
// which days. The whole list is replaced on every update; days are never
// patched individually.
//
// Passthrough entries are fee lines not tied to a worker (e.g. a transport
// surcharge previously folded into the charge). They are carried through
// normalization unchanged and their Total is added to the aggregate.
type PersonnelAssignment struct {
	WorkerID   WorkerID        `json:"workerId,omitempty"`
	WorkerName string          `json:"workerName,omitempty"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`

	// Optional per-assignment engagement window, used only by the duration
	// heuristic when the job site carries no dates.
	PeriodStart string `json:"periodStart,omitempty"` // YYYY-MM-DD
	PeriodEnd   string `json:"periodEnd,omitempty"`   // YYYY-MM-DD

	Days []WorkDay `json:"days,omitempty"`

	// Computed by the engine.
	Total     decimal.Decimal `json:"total"`
	RealHours float64         `json:"realHours"`

	Passthrough bool `json:"passthrough,omitempty"`
}

// WorkDay is one calendar day within an assignment. StartHour/EndHour are
// fractional hours of day (e.g. 8 and 15.5); a day without a valid
// start < end pair contributes zero hours but may still be billable under
// long-duration mode.
type WorkDay struct {
	Date      string   `json:"date"` // YYYY-MM-DD, empty means never billable
	StartHour *float64 `json:"startHour,omitempty"`
	EndHour   *float64 `json:"endHour,omitempty"`

	// Billable is computed by ownership resolution; client values are ignored.
	Billable bool `json:"billable"`
}

// HasValidHours reports whether the day carries a usable start < end pair.
func (d WorkDay) HasValidHours() bool {
	return d.StartHour != nil && d.EndHour != nil && *d.StartHour < *d.EndHour
}

// Hours returns end - start for a valid pair, zero otherwise.
func (d WorkDay) Hours() float64 {
	if !d.HasValidHours() {
		return 0
	}
	return *d.EndHour - *d.StartHour
}

// =============================================================================
// JOB SITE
// =============================================================================

type SiteStatus string

const (
	SiteActive      SiteStatus = "active"
	SiteProvisional SiteStatus = "provisional"
	SiteClosed      SiteStatus = "closed"
	SiteCancelled   SiteStatus = "cancelled"
)

// JobSite identifies a construction site. The engine only reads the dates and
// status; everything else belongs to the site-management surface.
type JobSite struct {
	ID        SiteID     `json:"id"`
	Name      string     `json:"name"`
	Status    SiteStatus `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// =============================================================================
// WORKER
// =============================================================================

// Worker is the worker record the engine reads: the current hourly rate
// (copied onto assignments at normalization time) and the vehicle flag that
// makes a worker eligible to trigger transport-fee allocation.
type Worker struct {
	ID         WorkerID        `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	HasVehicle bool            `json:"hasVehicle"`
}

// =============================================================================
// TRANSPORT FEE CONFIGURATION
// =============================================================================

// CostComponent is one labelled slice of a configured amount.
type CostComponent struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// TransportConfig is the singleton configuration whose components sum to the
// default daily transport amount, used when no explicit amount is supplied
// to the allocator.
type TransportConfig struct {
	Truck     decimal.Decimal `json:"truck"`
	Insurance decimal.Decimal `json:"insurance"`
	Fuel      decimal.Decimal `json:"fuel"`
	Custom    []CostComponent `json:"custom,omitempty"`
}

// Total sums all configured components.
func (c TransportConfig) Total() decimal.Decimal {
	total := c.Truck.Add(c.Insurance).Add(c.Fuel)
	for _, comp := range c.Custom {
		total = total.Add(comp.Amount)
	}
	return total
}

// =============================================================================
// OVERHEAD REGISTRY
// =============================================================================

// overheadSpreadDays is the fixed divisor turning the monthly overhead total
// into a daily amount.
const overheadSpreadDays = 30

// OverheadRegistry is the singleton registry of the company's monthly
// overhead costs. Its monthly total, divided over a flat 30 days, is
// distributed every day in even parts across the active job sites as
// fixed-cost charges.
type OverheadRegistry struct {
	FinancialFees   decimal.Decimal `json:"financialFees"`
	Loan            decimal.Decimal `json:"loan"`
	Accounting      decimal.Decimal `json:"accounting"`
	Rent            decimal.Decimal `json:"rent"`
	GeneralExpenses decimal.Decimal `json:"generalExpenses"`
	SocialCharges   decimal.Decimal `json:"socialCharges"`
	Custom          []CostComponent `json:"custom,omitempty"`
}

// MonthlyTotal sums all registered components.
func (r OverheadRegistry) MonthlyTotal() decimal.Decimal {
	total := r.FinancialFees.Add(r.Loan).Add(r.Accounting).
		Add(r.Rent).Add(r.GeneralExpenses).Add(r.SocialCharges)
	for _, comp := range r.Custom {
		total = total.Add(comp.Amount)
	}
	return total
}

// DailyTotal spreads the monthly total over 30 days.
func (r OverheadRegistry) DailyTotal() decimal.Decimal {
	return r.MonthlyTotal().Div(decimal.NewFromInt(overheadSpreadDays))
}
