// Package availability decides which slots of a day can still be booked.
package availability

import (
	"time"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/config"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
)

// Lister is the read side of the appointment store.
type Lister interface {
	ByDate(dateISO string) ([]appointments.Appointment, error)
}

type Engine struct {
	store Lister
	sched config.Schedule
}

func New(store Lister, sched config.Schedule) *Engine {
	return &Engine{store: store, sched: sched}
}

// AvailableSlots returns the day's generated slots minus those already
// booked, in chronological order.
func (e *Engine) AvailableSlots(dateISO string) ([]calendar.Slot, error) {
	slots, err := e.slots(dateISO)
	if err != nil {
		return nil, err
	}
	taken, err := e.taken(dateISO)
	if err != nil {
		return nil, err
	}

	free := make([]calendar.Slot, 0, len(slots))
	for _, s := range slots {
		if !taken[s.String()] {
			free = append(free, s)
		}
	}
	return free, nil
}

// TakenSlots returns the booked time ranges on dateISO that belong to the
// day's schedule, in chronological order.
func (e *Engine) TakenSlots(dateISO string) ([]calendar.Slot, error) {
	slots, err := e.slots(dateISO)
	if err != nil {
		return nil, err
	}
	taken, err := e.taken(dateISO)
	if err != nil {
		return nil, err
	}

	var out []calendar.Slot
	for _, s := range slots {
		if taken[s.String()] {
			out = append(out, s)
		}
	}
	return out, nil
}

// IsSlotFree reports whether timeRange is one of the day's slots and no
// stored appointment holds it. Call it again right before committing a
// booking; the store may have changed since the slot was offered.
func (e *Engine) IsSlotFree(dateISO, timeRange string) (bool, error) {
	slots, err := e.slots(dateISO)
	if err != nil {
		return false, err
	}
	offered := false
	for _, s := range slots {
		if s.String() == timeRange {
			offered = true
			break
		}
	}
	if !offered {
		return false, nil
	}

	taken, err := e.taken(dateISO)
	if err != nil {
		return false, err
	}
	return !taken[timeRange], nil
}

// NextDays returns the bookable days starting at today.
func (e *Engine) NextDays(today time.Time, locale string) []calendar.Day {
	return calendar.NextBusinessDays(today, e.sched.FutureDays, e.sched, locale)
}

func (e *Engine) slots(dateISO string) ([]calendar.Slot, error) {
	slots, err := calendar.SlotsForISO(dateISO, e.sched)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "date", Value: dateISO, Reason: "expected YYYY-MM-DD"}
	}
	return slots, nil
}

func (e *Engine) taken(dateISO string) (map[string]bool, error) {
	booked, err := e.store.ByDate(dateISO)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		taken[a.Time] = true
	}
	return taken, nil
}
