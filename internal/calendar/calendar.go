// Package calendar holds the clinic's business-day and slot generation rules.
// Every function is pure: results depend only on the date and schedule given.
package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/julianstephens/clinichat/internal/config"
	"github.com/julianstephens/clinichat/internal/constants"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Slot is a half-open bookable interval rendered as "HH:MM - HH:MM".
type Slot struct {
	Start string
	End   string
}

func (s Slot) String() string {
	return s.Start + constants.SlotSeparator + s.End
}

// ParseSlot parses "HH:MM - HH:MM". Surrounding whitespace around either end
// is tolerated.
func ParseSlot(value string) (Slot, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("time range %q: expected HH:MM - HH:MM", value)
	}
	start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	for _, p := range []string{start, end} {
		if _, err := time.Parse(constants.TimeFormat, p); err != nil || len(p) != 5 {
			return Slot{}, fmt.Errorf("time range %q: %q is not HH:MM", value, p)
		}
	}
	return Slot{Start: start, End: end}, nil
}

// Day is a bookable date with its display label.
type Day struct {
	Date  time.Time
	ISO   string
	Label string
}

// ParseDate parses a strict YYYY-MM-DD date at local midnight.
func ParseDate(iso string) (time.Time, error) {
	if !isoDatePattern.MatchString(iso) {
		return time.Time{}, fmt.Errorf("date %q: expected YYYY-MM-DD", iso)
	}
	t, err := time.ParseInLocation(constants.DateFormat, iso, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", iso, err)
	}
	return t, nil
}

// IsNonWorkingDay reports whether date is a Sunday or a configured holiday.
func IsNonWorkingDay(date time.Time, sched config.Schedule) bool {
	if date.Weekday() == time.Sunday {
		return true
	}
	iso := date.Format(constants.DateFormat)
	for _, h := range sched.Holidays {
		if h == iso {
			return true
		}
	}
	return false
}

// SlotsForDate generates the day's slots in chronological order. Slots are
// contiguous: each one starts where the previous ended. The last slot starts
// before closing time but may end after it when the window is not a multiple
// of the slot length.
func SlotsForDate(date time.Time, sched config.Schedule) []Slot {
	if IsNonWorkingDay(date, sched) || sched.SlotMinutes <= 0 {
		return nil
	}

	window := sched.Work
	if date.Weekday() == time.Saturday {
		window = sched.Saturday
	}

	start, err := minutesOf(window.Start)
	if err != nil {
		return nil
	}
	end, err := minutesOf(window.End)
	if err != nil {
		return nil
	}

	var slots []Slot
	for cur := start; cur < end; cur += sched.SlotMinutes {
		slots = append(slots, Slot{
			Start: formatMinutes(cur),
			End:   formatMinutes(cur + sched.SlotMinutes),
		})
	}
	return slots
}

// SlotsForISO is SlotsForDate for a YYYY-MM-DD string.
func SlotsForISO(dateISO string, sched config.Schedule) ([]Slot, error) {
	date, err := ParseDate(dateISO)
	if err != nil {
		return nil, err
	}
	return SlotsForDate(date, sched), nil
}

// NextBusinessDays scans forward from today, inclusive, collecting up to n
// working days. The scan stops after a fixed number of calendar days, so
// fewer than n days may be returned.
func NextBusinessDays(today time.Time, n int, sched config.Schedule, locale string) []Day {
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var days []Day
	for i := 0; i < constants.BusinessDayScanLimit && len(days) < n; i++ {
		d := base.AddDate(0, 0, i)
		if IsNonWorkingDay(d, sched) {
			continue
		}
		days = append(days, Day{
			Date:  d,
			ISO:   d.Format(constants.DateFormat),
			Label: Label(d, locale),
		})
	}
	return days
}

var weekdayAbbrev = map[string][7]string{
	"en": {"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	"pt": {"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"},
}

// Label renders a date as a weekday abbreviation plus DD/MM, e.g. "Tue 14/10".
func Label(d time.Time, locale string) string {
	names, ok := weekdayAbbrev[locale]
	if !ok {
		names = weekdayAbbrev["en"]
	}
	return fmt.Sprintf("%s %02d/%02d", names[d.Weekday()], d.Day(), int(d.Month()))
}

func minutesOf(hhmm string) (int, error) {
	t, err := time.Parse(constants.TimeFormat, hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatMinutes renders minutes since midnight as HH:MM, wrapping past 24h.
func formatMinutes(m int) string {
	m = ((m % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
