package dialogue

import (
	"time"

	"github.com/julianstephens/clinichat/internal/appointments"
)

// Effect is an action the caller performs after a transition.
type Effect interface {
	effect()
}

// Prompt is a message to show, with the choices offered next.
type Prompt struct {
	Text    string
	Choices []Choice
}

// AppointmentSaved reports a booking that was just persisted.
type AppointmentSaved struct {
	Appointment appointments.Appointment
}

// AppointmentsChanged asks adapters to refresh any appointment listing.
type AppointmentsChanged struct{}

// InviteReady offers a calendar invite for a new booking.
type InviteReady struct {
	Appointment appointments.Appointment
}

// ScheduleReminder asks for Machine.Remind to be called after Delay.
type ScheduleReminder struct {
	Delay         time.Duration
	AppointmentID string
}

// CancelReminder drops any reminder pending for the session.
type CancelReminder struct{}

func (Prompt) effect()              {}
func (AppointmentSaved) effect()    {}
func (AppointmentsChanged) effect() {}
func (InviteReady) effect()         {}
func (ScheduleReminder) effect()    {}
func (CancelReminder) effect()      {}

// Result is the outcome of one transition. Err carries the recovered error
// that shaped the reply, if any; it is never fatal.
type Result struct {
	Session Session
	Effects []Effect
	Err     error
}

// Prompts returns the Prompt effects in order.
func (r Result) Prompts() []Prompt {
	var out []Prompt
	for _, e := range r.Effects {
		if p, ok := e.(Prompt); ok {
			out = append(out, p)
		}
	}
	return out
}
