/*
pricing.go - Personnel cost computation

PURPOSE:
  Given assignments with resolved billable flags and the duration mode,
  computes per-assignment totals, the informational real-hours figure, and
  the aggregate charge amount. The aggregate is authoritative: it is the
  value persisted on the charge, never a client-submitted figure.

BILLING RULES:
  Short mode: total = hourly rate x billed days x 7. A billed day is a
  billable day with a valid start < end hour pair. The fixed 7-hour day is
  billed whatever the recorded hours; the recorded hours only feed the
  informational real-hours figure. This is a documented business rule, not
  a bug to fix.

  Long mode: total = flat daily rate x billable working days. The flat rate
  is independent of the worker's hourly rate. Real hours are reported as
  zero: hours are not tracked per day under flat-rate billing.

  Passthrough lines (fee entries not tied to a worker) are carried through
  unchanged and their stored total is added to the aggregate.

SEE ALSO:
  - ownership.go: Sets the billable flags consumed here
  - engine.go: Orchestrates resolution then pricing
*/
package personnel

import (
	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
)

// BilledHoursPerDay is the fixed number of hours billed per billable day
// under short-mode billing, independent of the hours actually recorded.
const BilledHoursPerDay = 7

// DefaultFlatDailyRate is the flat amount billed per billable working day
// under long-mode billing.
var DefaultFlatDailyRate = decimal.NewFromInt(145)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes personnel costs. The zero value uses the default flat
// daily rate and the standard working-day calendar.
type Calculator struct {
	Calendar      charging.WorkingDayCalendar
	FlatDailyRate decimal.Decimal
}

func (c Calculator) flatRate() decimal.Decimal {
	if c.FlatDailyRate.IsZero() {
		return DefaultFlatDailyRate
	}
	return c.FlatDailyRate
}

// Compute returns the normalized assignments (totals and real hours filled in)
// and the aggregate charge amount. The input slice is not mutated.
func (c Calculator) Compute(assignments []charging.PersonnelAssignment, mode Mode) ([]charging.PersonnelAssignment, decimal.Decimal) {
	normalized := make([]charging.PersonnelAssignment, len(assignments))
	aggregate := decimal.Zero

	for i, a := range assignments {
		normalized[i] = a
		if a.Passthrough {
			aggregate = aggregate.Add(a.Total)
			continue
		}

		switch mode {
		case ModeLong:
			normalized[i].Total = c.longTotal(a)
			normalized[i].RealHours = 0
		default:
			normalized[i].Total = c.shortTotal(a)
			normalized[i].RealHours = realHours(a)
		}
		aggregate = aggregate.Add(normalized[i].Total)
	}

	return normalized, aggregate
}

// shortTotal bills rate x 7 per billable day carrying a valid hour pair.
func (c Calculator) shortTotal(a charging.PersonnelAssignment) decimal.Decimal {
	billedDays := 0
	for _, day := range a.Days {
		if day.Billable && day.HasValidHours() {
			billedDays++
		}
	}
	if billedDays == 0 {
		return decimal.Zero
	}
	return a.HourlyRate.Mul(decimal.NewFromInt(int64(billedDays * BilledHoursPerDay)))
}

// longTotal bills the flat daily rate per billable working day.
func (c Calculator) longTotal(a charging.PersonnelAssignment) decimal.Decimal {
	days := 0
	for _, day := range a.Days {
		if day.Billable && c.Calendar.IsWorkingDayString(day.Date) {
			days++
		}
	}
	if days == 0 {
		return decimal.Zero
	}
	return c.flatRate().Mul(decimal.NewFromInt(int64(days)))
}

// realHours sums end - start over every day with a valid hour pair,
// billable or not. Reporting only; never used for billing.
func realHours(a charging.PersonnelAssignment) float64 {
	var total float64
	for _, day := range a.Days {
		total += day.Hours()
	}
	return total
}
