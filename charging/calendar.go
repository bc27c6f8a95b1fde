/*
calendar.go - Working-day calendar with French public holidays

PURPOSE:
  Decides whether a calendar date is a working day: not a weekend and not a
  public holiday. Long-engagement billing only charges working days, so this
  calendar sits on the hot path of cost normalization.

HOLIDAY RULES:
  Fixed dates every year:
    Jan 1, May 1, May 8, Jul 14, Aug 15, Nov 1, Nov 11, Dec 25
  Movable feasts, offsets from Easter Sunday:
    +1  Easter Monday
    +39 Ascension Thursday
    +50 Whit Monday
  Easter Sunday is computed with the Meeus/Jones/Butcher algorithm, which is
  purely integer arithmetic on the year and valid for all Gregorian years.

TIMEZONE:
  All date arithmetic is pinned to UTC. Weekday computation on a local-time
  value can shift by a day near midnight depending on the host timezone, which
  would silently flip billable flags.

SEE ALSO:
  - personnel/ownership.go: Long-mode working-day override
  - personnel/pricing.go: Long-mode billed-day counting
*/
package charging

import "time"

// DayFormat is the wire format for calendar dates throughout the engine.
const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD date string in UTC. ok is false for empty or
// malformed input; callers treat such dates as "not a working day".
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDay renders a time as YYYY-MM-DD in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// =============================================================================
// WORKING-DAY CALENDAR
// =============================================================================

// WorkingDayCalendar reports working days under the French public-holiday
// calendar with a Saturday/Sunday weekend. The zero value is ready to use.
type WorkingDayCalendar struct{}

// IsWorkingDay reports whether the date is neither a weekend day nor a
// public holiday.
func (WorkingDayCalendar) IsWorkingDay(date time.Time) bool {
	d := date.UTC()
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !isPublicHoliday(d)
}

// IsWorkingDayString is the string-keyed form used on WorkDay dates.
// Invalid or empty dates are never working days.
func (c WorkingDayCalendar) IsWorkingDayString(date string) bool {
	d, ok := ParseDay(date)
	if !ok {
		return false
	}
	return c.IsWorkingDay(d)
}

func isPublicHoliday(d time.Time) bool {
	month, day := d.Month(), d.Day()

	// Fixed-date holidays.
	switch {
	case month == time.January && day == 1,
		month == time.May && day == 1,
		month == time.May && day == 8,
		month == time.July && day == 14,
		month == time.August && day == 15,
		month == time.November && day == 1,
		month == time.November && day == 11,
		month == time.December && day == 25:
		return true
	}

	// Movable feasts relative to Easter Sunday.
	easter := EasterSunday(d.Year())
	for _, offset := range []int{1, 39, 50} {
		feast := easter.AddDate(0, 0, offset)
		if feast.Month() == month && feast.Day() == day {
			return true
		}
	}
	return false
}

// EasterSunday returns Easter Sunday for the given Gregorian year at
// midnight UTC, using the Meeus/Jones/Butcher algorithm.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
