/*
ownership.go - Work-day ownership resolution

PURPOSE:
  Across all personnel charges in the system, at most one work-day entry per
  (worker, date) pair may be billable. Ownership is a derived property: it is
  recomputed here on every normalization pass from the full set of persisted
  personnel charges, never cached across calls.

PRECEDENCE:
  The charge with the lowest ID referencing a (worker, date) pair owns it.
  IDs are assigned monotonically at creation, so this is first-writer-wins.
  A charge being edited keeps the claims its stored copy already holds:
  re-saving a charge never strips its own ownership.

LONG-MODE OVERRIDE:
  Under long-duration billing, a day that is not a working day (weekend or
  public holiday) is never billable, regardless of ownership.

CONCURRENCY:
  Two concurrent creates for a never-before-seen pair can both see "no owner"
  and both insert; the one assigned the lower ID wins, and the other loses the
  claim only on its next normalization pass. This eventual-consistency window
  is accepted; the engine does not serialize writers.

SEE ALSO:
  - charging/store.go: ListPersonnelCharges, the scan source
  - pricing.go: Consumes the billable flags set here
*/
package personnel

import "github.com/batiflow/cost-engine/charging"

// =============================================================================
// OWNERSHIP INDEX - Built once per normalization call, then discarded
// =============================================================================

// DayKey identifies one worker's claim on one calendar date.
type DayKey struct {
	Worker charging.WorkerID
	Date   string // YYYY-MM-DD
}

// OwnershipIndex maps each referenced (worker, date) pair to the lowest
// charge ID referencing it.
type OwnershipIndex map[DayKey]charging.ChargeID

// BuildOwnershipIndex scans the given personnel charges and retains, for every
// (worker, date) pair they reference, the lowest charge ID. All referencing
// days count, billable or not: a charge that lost a claim earlier must not
// re-enter precedence below the record that outranked it.
func BuildOwnershipIndex(charges []charging.Charge) OwnershipIndex {
	index := make(OwnershipIndex)
	for _, c := range charges {
		if c.Category != charging.CategoryPersonnel {
			continue
		}
		for _, a := range c.Personnel {
			if a.Passthrough {
				continue
			}
			for _, day := range a.Days {
				if day.Date == "" {
					continue
				}
				k := DayKey{Worker: a.WorkerID, Date: day.Date}
				if owner, ok := index[k]; !ok || c.ID < owner {
					index[k] = c.ID
				}
			}
		}
	}
	return index
}

// Owner returns the owning charge ID for a pair, if any.
func (idx OwnershipIndex) Owner(worker charging.WorkerID, date string) (charging.ChargeID, bool) {
	id, ok := idx[DayKey{Worker: worker, Date: date}]
	return id, ok
}

// =============================================================================
// RESOLUTION
// =============================================================================

// ResolveOwnership annotates the submitted assignments with billable flags.
//
// A work day is billable when its (worker, date) pair has no owner in the
// index, or when the owner is the charge currently being edited
// (editingID != 0). Days without a date are never billable. Under ModeLong,
// days that fail the working-day check are forced non-billable whatever the
// ownership outcome.
//
// The input slice is not mutated; an annotated copy is returned.
func ResolveOwnership(
	assignments []charging.PersonnelAssignment,
	editingID charging.ChargeID,
	index OwnershipIndex,
	mode Mode,
	calendar charging.WorkingDayCalendar,
) []charging.PersonnelAssignment {
	resolved := make([]charging.PersonnelAssignment, len(assignments))
	for i, a := range assignments {
		resolved[i] = a
		if a.Passthrough {
			continue
		}

		days := make([]charging.WorkDay, len(a.Days))
		for j, day := range a.Days {
			days[j] = day
			days[j].Billable = dayBillable(a.WorkerID, day, editingID, index, mode, calendar)
		}
		resolved[i].Days = days
	}
	return resolved
}

func dayBillable(
	worker charging.WorkerID,
	day charging.WorkDay,
	editingID charging.ChargeID,
	index OwnershipIndex,
	mode Mode,
	calendar charging.WorkingDayCalendar,
) bool {
	if day.Date == "" {
		return false
	}
	if mode == ModeLong && !calendar.IsWorkingDayString(day.Date) {
		return false
	}

	owner, claimed := index.Owner(worker, day.Date)
	if !claimed {
		return true // first claim
	}
	return editingID != 0 && owner == editingID
}
