/*
Package personnel implements the personnel billing engine: duration-mode
resolution, work-day ownership, and cost computation for personnel charges.

PURPOSE:
  A personnel charge lists workers, their rates, and the days they were
  deployed on a job site. Before such a charge is persisted, this package
  (a) classifies the engagement as short or long (duration.go),
  (b) decides which work days this charge may bill, enforcing the
      at-most-one-biller-per-worker-per-date invariant (ownership.go),
  (c) computes per-assignment and aggregate totals (pricing.go).
  engine.go wires the three against the store contracts.

SEE ALSO:
  - charging/: Shared types, calendar, store contracts
  - transport/: Shared transport-fee allocation (reads this package's output)
*/
package personnel

import (
	"time"

	"github.com/batiflow/cost-engine/charging"
)

// =============================================================================
// DURATION MODE - Billing formula selector
// =============================================================================

type Mode string

const (
	// ModeShort bills a fixed 7-hour day at the worker's hourly rate per
	// billable day with recorded hours.
	ModeShort Mode = "short"

	// ModeLong bills a flat daily rate per billable working day, independent
	// of the worker's rate and of recorded hours.
	ModeLong Mode = "long"
)

// fallbackSpanDays is the inclusive span above which the date-scan heuristic
// classifies an engagement as long when the job site carries no dates.
const fallbackSpanDays = 7

// ResolveMode classifies a job site's personnel billing as short or long.
//
// When the site has both a start and an end date, the inclusive day count
// between them decides: more than one day is long. When site dates are
// unavailable, the span of dates referenced by the submitted assignments
// (work days plus any per-assignment period fields) is used instead, with a
// higher threshold. The fallback is a heuristic, not a guarantee: call sites
// without reliable site metadata get a best-effort classification.
// Unresolvable input defaults to short.
func ResolveMode(site *charging.JobSite, assignments []charging.PersonnelAssignment) Mode {
	if site != nil && site.StartDate != nil && site.EndDate != nil {
		if inclusiveDays(*site.StartDate, *site.EndDate) > 1 {
			return ModeLong
		}
		return ModeShort
	}

	min, max, found := assignmentDateSpan(assignments)
	if !found {
		return ModeShort
	}
	if inclusiveDays(min, max) > fallbackSpanDays {
		return ModeLong
	}
	return ModeShort
}

func inclusiveDays(start, end time.Time) int {
	s := midnightUTC(start)
	e := midnightUTC(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func assignmentDateSpan(assignments []charging.PersonnelAssignment) (min, max time.Time, found bool) {
	consider := func(s string) {
		d, ok := charging.ParseDay(s)
		if !ok {
			return
		}
		if !found {
			min, max, found = d, d, true
			return
		}
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}

	for _, a := range assignments {
		consider(a.PeriodStart)
		consider(a.PeriodEnd)
		for _, day := range a.Days {
			consider(day.Date)
		}
	}
	return min, max, found
}
