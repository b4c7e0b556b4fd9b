// Package validation audits a set of stored appointments against the clinic
// schedule. It is used by the validate and doctor commands after data has
// been edited by hand or restored from a backup.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/config"
)

type ConflictType string

const (
	ConflictDoubleBooking  ConflictType = "double_booking"
	ConflictDuplicateID    ConflictType = "duplicate_id"
	ConflictNonWorkingDay  ConflictType = "non_working_day"
	ConflictOffSchedule    ConflictType = "off_schedule"
	ConflictMalformedField ConflictType = "malformed_field"
)

var phonePattern = regexp.MustCompile(`^\(\d{2}\) \d{4,5}-\d{4}$`)

// Conflict is one problem found in the stored appointments.
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string
	TimeRange   string
	IDs         []string
}

type Report struct {
	Conflicts []Conflict
}

func (r *Report) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Count returns how many conflicts of type ct were found.
func (r *Report) Count(ct ConflictType) int {
	n := 0
	for _, c := range r.Conflicts {
		if c.Type == ct {
			n++
		}
	}
	return n
}

func (r *Report) FormatReport() string {
	if !r.HasConflicts() {
		return "No conflicts detected."
	}
	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks appts against cfg. Conflicts are reported in a stable
// order: per-appointment problems first, then double bookings by date.
func (v *Validator) Validate(appts []appointments.Appointment, cfg config.Config) Report {
	report := Report{}
	sorted := appointments.Sorted(appts)

	seenIDs := map[string][]string{}
	for _, a := range sorted {
		seenIDs[a.ID] = append(seenIDs[a.ID], a.DateISO+" "+a.Time)
	}
	ids := make([]string, 0, len(seenIDs))
	for id := range seenIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if len(seenIDs[id]) > 1 {
			report.Conflicts = append(report.Conflicts, Conflict{
				Type:        ConflictDuplicateID,
				Description: fmt.Sprintf("Duplicate appointment id %q (%d records)", id, len(seenIDs[id])),
				IDs:         []string{id},
			})
		}
	}

	for _, a := range sorted {
		report.Conflicts = append(report.Conflicts, v.checkFields(a, cfg)...)
		report.Conflicts = append(report.Conflicts, v.checkSchedule(a, cfg.Schedule)...)
	}

	bySlot := map[string][]appointments.Appointment{}
	var keys []string
	for _, a := range sorted {
		slot, err := calendar.ParseSlot(a.Time)
		if err != nil {
			continue
		}
		key := a.DateISO + "|" + slot.String()
		if _, ok := bySlot[key]; !ok {
			keys = append(keys, key)
		}
		bySlot[key] = append(bySlot[key], a)
	}
	for _, key := range keys {
		group := bySlot[key]
		if len(group) < 2 {
			continue
		}
		var names, groupIDs []string
		for _, a := range group {
			names = append(names, a.Name)
			groupIDs = append(groupIDs, a.ID)
		}
		date, timeRange, _ := strings.Cut(key, "|")
		report.Conflicts = append(report.Conflicts, Conflict{
			Type:        ConflictDoubleBooking,
			Description: fmt.Sprintf("Slot %s on %s is booked %d times: %s", timeRange, date, len(group), strings.Join(names, ", ")),
			Date:        date,
			TimeRange:   timeRange,
			IDs:         groupIDs,
		})
	}

	return report
}

func (v *Validator) checkFields(a appointments.Appointment, cfg config.Config) []Conflict {
	var out []Conflict
	bad := func(field, value string) {
		out = append(out, Conflict{
			Type:        ConflictMalformedField,
			Description: fmt.Sprintf("Appointment %s has invalid %s: %q", a.ID, field, value),
			Date:        a.DateISO,
			TimeRange:   a.Time,
			IDs:         []string{a.ID},
		})
	}

	if a.ID == "" {
		bad("id", a.ID)
	}
	if len([]rune(strings.TrimSpace(a.Name))) < 2 {
		bad("name", a.Name)
	}
	if !phonePattern.MatchString(a.Phone) {
		bad("phone", a.Phone)
	}
	if a.Type != appointments.Consultation && a.Type != appointments.Exam {
		bad("type", string(a.Type))
	}
	if !knownSpecialty(cfg, a.Specialty) {
		bad("specialty", a.Specialty)
	} else if doctors := cfg.Doctors(a.Specialty); a.Doctor != "" && len(doctors) > 0 && !contains(doctors, a.Doctor) {
		bad("doctor", a.Doctor)
	}
	if _, err := calendar.ParseDate(a.DateISO); err != nil {
		bad("date", a.DateISO)
	}
	if _, err := calendar.ParseSlot(a.Time); err != nil {
		bad("time", a.Time)
	}
	if a.Created().IsZero() {
		bad("createdAt", a.CreatedAt)
	}
	return out
}

func (v *Validator) checkSchedule(a appointments.Appointment, sched config.Schedule) []Conflict {
	date, err := calendar.ParseDate(a.DateISO)
	if err != nil {
		return nil
	}
	slot, err := calendar.ParseSlot(a.Time)
	if err != nil {
		return nil
	}

	if calendar.IsNonWorkingDay(date, sched) {
		return []Conflict{{
			Type:        ConflictNonWorkingDay,
			Description: fmt.Sprintf("Appointment %s (%s) falls on non-working day %s", a.ID, a.Name, a.DateISO),
			Date:        a.DateISO,
			TimeRange:   a.Time,
			IDs:         []string{a.ID},
		}}
	}
	for _, s := range calendar.SlotsForDate(date, sched) {
		if s == slot {
			return nil
		}
	}
	return []Conflict{{
		Type:        ConflictOffSchedule,
		Description: fmt.Sprintf("Appointment %s (%s) at %s on %s is not a scheduled slot", a.ID, a.Name, a.Time, a.DateISO),
		Date:        a.DateISO,
		TimeRange:   a.Time,
		IDs:         []string{a.ID},
	}}
}

func knownSpecialty(cfg config.Config, name string) bool {
	for _, s := range cfg.Clinic.Specialties {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// FixAction records one change made by AutoFixDoubleBookings.
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// AutoFixDoubleBookings keeps the earliest-created booking of each double
// booked slot and removes the rest through remove.
func AutoFixDoubleBookings(report Report, appts []appointments.Appointment, remove func(id string) (bool, error)) ([]FixAction, error) {
	byID := map[string]appointments.Appointment{}
	for _, a := range appts {
		byID[a.ID] = a
	}

	var actions []FixAction
	for _, c := range report.Conflicts {
		if c.Type != ConflictDoubleBooking {
			continue
		}
		group := make([]appointments.Appointment, 0, len(c.IDs))
		for _, id := range c.IDs {
			group = append(group, byID[id])
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Created().Before(group[j].Created())
		})
		for _, a := range group[1:] {
			removed, err := remove(a.ID)
			if err != nil {
				return actions, fmt.Errorf("remove %s: %w", a.ID, err)
			}
			if removed {
				actions = append(actions, FixAction{
					Action:         fmt.Sprintf("Removed %s (%s) from %s %s; kept %s", a.ID, a.Name, c.Date, c.TimeRange, group[0].ID),
					SourceConflict: c,
				})
			}
		}
	}
	return actions, nil
}
