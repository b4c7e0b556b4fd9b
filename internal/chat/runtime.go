// Package chat hosts dialogue sessions for the terminal and web adapters. It
// applies the effects a transition returns: reminders, invites and metrics.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/dialogue"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
	"github.com/julianstephens/clinichat/internal/ics"
	"github.com/julianstephens/clinichat/internal/logger"
	"github.com/julianstephens/clinichat/internal/metrics"
	"github.com/julianstephens/clinichat/internal/reminder"
)

// ErrUnknownSession is returned for an id that was never opened or is closed.
var ErrUnknownSession = errors.New("unknown session")

const eventBuffer = 64

// Notifier raises an out-of-band alert when a reminder fires.
type Notifier interface {
	Notify(ctx context.Context, title, text string) error
}

// Invite is a rendered calendar file for one appointment.
type Invite struct {
	Appointment appointments.Appointment
	FileName    string
	Data        []byte
}

// Reply is what an adapter renders after one transition.
type Reply struct {
	Session             dialogue.Session
	Prompts             []dialogue.Prompt
	Invite              *Invite
	AppointmentsChanged bool
	// Err is the recovered error behind the reply, if any.
	Err error
}

// Event is a reply that did not come from user input, such as a reminder.
type Event struct {
	SessionID string
	Reply     Reply
}

// Runtime owns every open session. All transitions run under one lock, so
// each session sees its inputs and reminders strictly in order.
type Runtime struct {
	mu        sync.Mutex
	machine   *dialogue.Machine
	sessions  map[string]dialogue.Session
	reminders *reminder.Scheduler
	// gens invalidates reminder callbacks that already left the scheduler
	// when their session is reset, closed or rebooked.
	gens     map[string]uint64
	encoder  *ics.Encoder
	metrics  *metrics.ChatMetrics
	notifier Notifier
	events   chan Event
	now      func() time.Time
	closed   bool
}

type Option func(*Runtime)

func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(r *Runtime) { r.notifier = n }
}

// WithClock sets the timestamp used for invite DTSTAMP values.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) { r.now = now }
}

func NewRuntime(machine *dialogue.Machine, encoder *ics.Encoder, opts ...Option) *Runtime {
	r := &Runtime{
		machine:   machine,
		sessions:  map[string]dialogue.Session{},
		reminders: reminder.NewScheduler(),
		gens:      map[string]uint64{},
		encoder:   encoder,
		events:    make(chan Event, eventBuffer),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events delivers reminder prompts. Events are dropped if nobody reads.
func (r *Runtime) Events() <-chan Event {
	return r.events
}

// Open starts a new session and returns its greeting.
func (r *Runtime) Open() Reply {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := dialogue.NewSession(uuid.NewString())
	res := r.machine.Start(s)
	r.sessions[s.ID] = res.Session
	r.metrics.SessionOpened()
	logger.Info("session opened", "session", s.ID)
	return r.apply(res)
}

// Session returns the current state of id.
func (r *Runtime) Session(id string) (dialogue.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return dialogue.Session{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

// HandleInput applies one user turn to session id.
func (r *Runtime) HandleInput(id string, in dialogue.Input) (Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	r.metrics.ObserveInput(string(s.Step))
	res := r.machine.Handle(s, in)
	r.sessions[id] = res.Session
	r.observe(s.Step, res)
	return r.apply(res), nil
}

// Reset restarts session id from the greeting.
func (r *Runtime) Reset(id string) (Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.resetLocked(id)
}

// resetLocked is Reset with r.mu already held.
func (r *Runtime) resetLocked(id string) (Reply, error) {
	s, ok := r.sessions[id]
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	r.gens[id]++
	res := r.machine.Reset(s)
	r.sessions[id] = res.Session
	return r.apply(res), nil
}

// Close forgets session id and drops its pending reminder.
func (r *Runtime) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	r.dropReminder(id)
	delete(r.sessions, id)
	delete(r.gens, id)
	r.metrics.SessionClosed()
	logger.Info("session closed", "session", id)
	return nil
}

// Shutdown stops every reminder and closes the event channel.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.reminders.Stop()
	for id := range r.sessions {
		delete(r.sessions, id)
		r.metrics.SessionClosed()
	}
	close(r.events)
}

// ReminderPending reports whether session id has a reminder waiting to fire.
func (r *Runtime) ReminderPending(id string) bool {
	return r.reminders.Pending(id)
}

// apply performs res's side effects and collects the parts adapters render.
// The caller holds r.mu.
func (r *Runtime) apply(res dialogue.Result) Reply {
	reply := Reply{Session: res.Session, Err: res.Err}
	id := res.Session.ID

	for _, e := range res.Effects {
		switch e := e.(type) {
		case dialogue.Prompt:
			reply.Prompts = append(reply.Prompts, e)
		case dialogue.AppointmentsChanged:
			reply.AppointmentsChanged = true
		case dialogue.AppointmentSaved:
			r.metrics.ObserveBooking("saved")
		case dialogue.InviteReady:
			data, err := r.encoder.EncodeOne(e.Appointment, r.now())
			if err != nil {
				logger.Warn("invite not rendered", "id", e.Appointment.ID, "error", err)
				continue
			}
			reply.Invite = &Invite{Appointment: e.Appointment, FileName: ics.FileName(e.Appointment), Data: data}
		case dialogue.ScheduleReminder:
			apptID := e.AppointmentID
			r.gens[id]++
			gen := r.gens[id]
			r.reminders.Schedule(id, e.Delay, func() { r.fire(id, apptID, gen) })
			r.metrics.ObserveReminder("scheduled")
		case dialogue.CancelReminder:
			if r.dropReminder(id) {
				r.metrics.ObserveReminder("cancelled")
			}
		}
	}
	return reply
}

// dropReminder cancels the pending reminder of id and invalidates one that
// is already waiting for r.mu. The caller holds r.mu.
func (r *Runtime) dropReminder(id string) bool {
	r.gens[id]++
	return r.reminders.Cancel(id)
}

func (r *Runtime) observe(from dialogue.Step, res dialogue.Result) {
	switch {
	case from == dialogue.StepConfirm && apperrors.IsSlotConflict(res.Err):
		r.metrics.ObserveBooking("conflict")
	case from == dialogue.StepConfirm && apperrors.IsPersistence(res.Err):
		r.metrics.ObserveBooking("error")
	case from == dialogue.StepReminder && res.Session.Step != dialogue.StepReminder:
		r.metrics.ObserveReminder("answered")
	}
}

// fire runs on the scheduler's goroutine when a reminder is due.
func (r *Runtime) fire(sessionID, appointmentID string, gen uint64) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok || r.closed || r.gens[sessionID] != gen {
		r.mu.Unlock()
		return
	}
	res := r.machine.Remind(s, appointmentID)
	r.sessions[sessionID] = res.Session
	reply := r.apply(res)
	if res.Session.Step == dialogue.StepReminder {
		r.metrics.ObserveReminder("fired")
	}

	if len(reply.Prompts) == 0 {
		r.mu.Unlock()
		return
	}
	select {
	case r.events <- Event{SessionID: sessionID, Reply: reply}:
	default:
		logger.Warn("reminder event dropped", "session", sessionID)
	}
	r.mu.Unlock()

	if r.notifier != nil {
		text := reply.Prompts[len(reply.Prompts)-1].Text
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.notifier.Notify(ctx, "Appointment reminder", text); err != nil {
			logger.Debug("desktop notification skipped", "error", err)
		}
	}
}
