package dialogue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/config"
	"github.com/julianstephens/clinichat/internal/constants"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
	"github.com/julianstephens/clinichat/internal/logger"
)

// Booker is the appointment store as seen by the dialogue.
type Booker interface {
	New(a appointments.Appointment) appointments.Appointment
	Add(a appointments.Appointment) error
	Get(id string) (appointments.Appointment, bool, error)
	List() ([]appointments.Appointment, error)
	RemoveByID(id string) (bool, error)
}

// Availability answers slot questions for the dialogue.
type Availability interface {
	AvailableSlots(dateISO string) ([]calendar.Slot, error)
	IsSlotFree(dateISO, timeRange string) (bool, error)
	NextDays(today time.Time, locale string) []calendar.Day
}

// Machine drives sessions through the booking conversation. It holds no
// session state of its own.
type Machine struct {
	store Booker
	avail Availability
	cfg   config.Config
	msg   messages
	now   func() time.Time
}

type Option func(*Machine)

// WithClock replaces time.Now for greetings and day offers.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func NewMachine(store Booker, avail Availability, cfg config.Config, opts ...Option) *Machine {
	m := &Machine{
		store: store,
		avail: avail,
		cfg:   cfg,
		msg:   catalogFor(cfg.Locale),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// turn accumulates the outcome of one transition.
type turn struct {
	s       Session
	effects []Effect
	err     error
}

func (t *turn) say(text string, choices ...Choice) {
	t.s.Choices = choices
	t.effects = append(t.effects, Prompt{Text: text, Choices: choices})
}

// note emits text while keeping the current choices on offer.
func (t *turn) note(text string) {
	t.effects = append(t.effects, Prompt{Text: text, Choices: t.s.Choices})
}

func (t *turn) emit(e Effect) {
	t.effects = append(t.effects, e)
}

func (t *turn) result() Result {
	return Result{Session: t.s, Effects: t.effects, Err: t.err}
}

// Start greets the user and shows the main menu.
func (m *Machine) Start(s Session) Result {
	t := &turn{s: s}
	m.greet(t)
	return t.result()
}

// Reset discards the session's progress, queue position and any pending
// reminder, then greets again.
func (m *Machine) Reset(s Session) Result {
	t := &turn{s: NewSession(s.ID)}
	t.emit(CancelReminder{})
	t.note(m.msg.restarted)
	m.greet(t)
	return t.result()
}

// Handle applies one user input to s.
func (m *Machine) Handle(s Session, in Input) Result {
	t := &turn{s: s}
	text := strings.TrimSpace(in.Text)
	from := s.Step

	if t.s.Step == StepWelcome {
		m.greet(t)
	}

	if text != "" && !(t.s.Step == StepReminder && m.handleReminderReply(t, text)) {
		if !m.handleGlobal(t, text) {
			m.dispatch(t, text)
		}
	}

	logger.Debug("dialogue transition",
		"session", s.ID, "from", from, "to", t.s.Step, "quick", in.QuickReply, "error", t.err)
	return t.result()
}

// Remind moves s into the reminder step for appointmentID. It does nothing
// if the appointment no longer exists.
func (m *Machine) Remind(s Session, appointmentID string) Result {
	t := &turn{s: s}
	a, found, err := m.store.Get(appointmentID)
	if err != nil {
		t.err = err
		return t.result()
	}
	if !found {
		return t.result()
	}

	t.s.Step = StepReminder
	t.s.ReminderFor = a.ID
	start := a.Time
	if slot, err := calendar.ParseSlot(a.Time); err == nil {
		start = slot.Start
	}
	t.say(fmt.Sprintf(m.msg.reminder, a.Name, m.subject(a), a.DateISO, start), m.reminderChoices()...)
	return t.result()
}

func (m *Machine) greet(t *turn) {
	h := m.now().Hour()
	salute := m.msg.evening
	switch {
	case h < 12:
		salute = m.msg.morning
	case h < 18:
		salute = m.msg.afternoon
	}
	t.s.Step = StepMenu
	t.say(fmt.Sprintf(m.msg.welcome, salute, m.cfg.Clinic.Name), m.menuChoices()...)
}

func (m *Machine) showMenu(t *turn, text string) {
	t.s.Step = StepMenu
	t.s.Draft = Draft{}
	t.s.ReminderFor = ""
	t.say(text, m.menuChoices()...)
}

func (m *Machine) handleGlobal(t *turn, text string) bool {
	switch parseCommand(text) {
	case cmdMenu:
		m.showMenu(t, m.msg.backToMenu)
	case cmdList:
		m.listAppointments(t)
	case cmdHours:
		w, sat := m.cfg.Schedule.Work, m.cfg.Schedule.Saturday
		t.note(fmt.Sprintf(m.msg.hours, w.Start, w.End, sat.Start, sat.End))
	case cmdHuman:
		t.s.Step = StepHandover
		t.s.Draft = Draft{}
		t.say(m.msg.handoverIntro, m.handoverChoices()...)
	case cmdRestart:
		r := m.Reset(t.s)
		t.s = r.Session
		t.effects = append(t.effects, r.Effects...)
	default:
		return false
	}
	return true
}

func (m *Machine) dispatch(t *turn, text string) {
	switch t.s.Step {
	case StepMenu:
		m.handleMenu(t, text)
	case StepCollectName:
		m.handleName(t, text)
	case StepCollectPhone:
		m.handlePhone(t, text)
	case StepCollectType:
		m.handleType(t, text)
	case StepCollectSpecialty:
		m.handleSpecialty(t, text)
	case StepSelectDoctor:
		m.handleDoctor(t, text)
	case StepSelectDay:
		m.handleDay(t, text)
	case StepSelectTime:
		m.handleTime(t, text)
	case StepConfirm:
		m.handleConfirm(t, text)
	case StepHandover:
		m.handleHandover(t, text)
	case StepReminder:
		t.err = &apperrors.UnknownInputError{Step: string(t.s.Step), Input: text}
		t.say(m.msg.reminderUnknown, m.reminderChoices()...)
	default:
		t.err = &apperrors.UnknownInputError{Step: string(t.s.Step), Input: text}
		m.showMenu(t, m.msg.notUnderstood)
	}
}

func (m *Machine) handleMenu(t *turn, text string) {
	if parseCommand(text) != cmdSchedule {
		t.err = &apperrors.UnknownInputError{Step: string(StepMenu), Input: text}
		t.say(m.msg.notUnderstood, m.menuChoices()...)
		return
	}
	t.s.Draft = Draft{}
	t.s.Step = StepCollectName
	t.say(m.msg.askName)
}

func (m *Machine) handleName(t *turn, text string) {
	name, err := CleanName(text)
	if err != nil {
		t.err = err
		t.say(m.msg.invalidName)
		return
	}
	t.s.Draft.Name = name
	t.s.Step = StepCollectPhone
	t.say(fmt.Sprintf(m.msg.askPhone, name))
}

func (m *Machine) handlePhone(t *turn, text string) {
	phone, err := FormatPhone(text)
	if err != nil {
		t.err = err
		t.say(m.msg.invalidPhone)
		return
	}
	t.s.Draft.Phone = phone
	t.s.Step = StepCollectType
	t.say(fmt.Sprintf(m.msg.askType, phone), m.typeChoices()...)
}

func (m *Machine) handleType(t *turn, text string) {
	st, err := MatchServiceType(text)
	if err != nil {
		t.err = err
		t.say(m.msg.invalidType, m.typeChoices()...)
		return
	}
	t.s.Draft.Type = st
	t.s.Step = StepCollectSpecialty
	t.say(m.msg.askSpecialty, m.specialtyChoices()...)
}

func (m *Machine) handleSpecialty(t *turn, text string) {
	names := make([]string, 0, len(m.cfg.Clinic.Specialties))
	for _, sp := range m.cfg.Clinic.Specialties {
		names = append(names, sp.Name)
	}
	specialty, ok := matchOffered(text, names)
	if !ok {
		t.err = &apperrors.ValidationError{Field: "specialty", Value: text, Reason: "not offered"}
		t.say(m.msg.invalidSpecialty, m.specialtyChoices()...)
		return
	}
	t.s.Draft.Specialty = specialty

	if doctors := m.cfg.Doctors(specialty); len(doctors) > 0 {
		t.s.Step = StepSelectDoctor
		t.say(m.msg.askDoctor, valueChoices(doctors)...)
		return
	}
	m.offerDays(t, m.msg.askDay)
}

func (m *Machine) handleDoctor(t *turn, text string) {
	doctors := m.cfg.Doctors(t.s.Draft.Specialty)
	doctor, ok := matchOffered(text, doctors)
	if !ok {
		t.err = &apperrors.ValidationError{Field: "doctor", Value: text, Reason: "not offered"}
		t.say(m.msg.invalidDoctor, valueChoices(doctors)...)
		return
	}
	t.s.Draft.Doctor = doctor
	m.offerDays(t, fmt.Sprintf(m.msg.doctorChosen, doctor))
}

func (m *Machine) offerDays(t *turn, text string) {
	t.s.Step = StepSelectDay
	t.s.Draft.DateISO = ""
	t.s.Draft.TimeRange = ""
	t.say(text, m.dayChoices()...)
}

func (m *Machine) handleDay(t *turn, text string) {
	date, err := calendar.ParseDate(text)
	if err != nil {
		t.err = &apperrors.ValidationError{Field: "date", Value: text, Reason: "expected YYYY-MM-DD"}
		t.say(m.msg.invalidDay, m.dayChoices()...)
		return
	}
	if calendar.IsNonWorkingDay(date, m.cfg.Schedule) {
		t.err = &apperrors.ValidationError{Field: "date", Value: text, Reason: "clinic closed"}
		t.say(m.msg.closedDay, m.dayChoices()...)
		return
	}

	dateISO := date.Format(constants.DateFormat)
	slots, err := m.avail.AvailableSlots(dateISO)
	if err != nil {
		t.err = err
		t.say(m.msg.persistenceNotice, m.dayChoices()...)
		return
	}
	if len(slots) == 0 {
		t.err = &apperrors.ValidationError{Field: "date", Value: text, Reason: "fully booked"}
		t.say(m.msg.noSlots, m.dayChoices()...)
		return
	}

	t.s.Draft.DateISO = dateISO
	m.offerTimes(t, fmt.Sprintf(m.msg.askTime, dateISO), slots)
}

func (m *Machine) offerTimes(t *turn, text string, slots []calendar.Slot) {
	t.s.Step = StepSelectTime
	t.s.Draft.TimeRange = ""
	t.say(text, slotChoices(slots)...)
}

func (m *Machine) handleTime(t *turn, text string) {
	dateISO := t.s.Draft.DateISO
	slots, err := m.avail.AvailableSlots(dateISO)
	if err != nil {
		t.err = err
		t.say(m.msg.persistenceNotice, t.s.Choices...)
		return
	}

	slot, err := calendar.ParseSlot(text)
	if err != nil {
		t.err = &apperrors.ValidationError{Field: "time", Value: text, Reason: "expected HH:MM - HH:MM"}
		t.say(m.msg.invalidTime, slotChoices(slots)...)
		return
	}
	timeRange := slot.String()

	for _, s := range slots {
		if s.String() == timeRange {
			t.s.Draft.TimeRange = timeRange
			t.s.Step = StepConfirm
			t.say(m.summary(t.s.Draft), m.confirmChoices()...)
			return
		}
	}

	if free, err := m.avail.IsSlotFree(dateISO, timeRange); err == nil && !free && onGrid(dateISO, timeRange, m.cfg.Schedule) {
		t.err = &apperrors.SlotConflictError{DateISO: dateISO, TimeRange: timeRange}
		t.say(fmt.Sprintf(m.msg.slotTaken, timeRange), slotChoices(slots)...)
		return
	}
	t.err = &apperrors.ValidationError{Field: "time", Value: text, Reason: "not offered"}
	t.say(m.msg.invalidTime, slotChoices(slots)...)
}

func (m *Machine) handleConfirm(t *turn, text string) {
	switch parseReply(text) {
	case replyConfirm:
		m.commit(t)
	case replyRedo:
		t.s.Draft = Draft{}
		t.s.Step = StepCollectName
		t.say(m.msg.askName)
	case replyCancel:
		m.showMenu(t, m.msg.draftCancelled)
	default:
		t.err = &apperrors.UnknownInputError{Step: string(StepConfirm), Input: text}
		t.say(m.msg.confirmUnknown, m.confirmChoices()...)
	}
}

// commit re-checks the slot against the store and persists the booking.
func (m *Machine) commit(t *turn) {
	d := t.s.Draft

	free, err := m.avail.IsSlotFree(d.DateISO, d.TimeRange)
	if err != nil {
		t.err = err
		t.say(m.msg.persistenceNotice, m.confirmChoices()...)
		return
	}
	if !free {
		t.err = &apperrors.SlotConflictError{DateISO: d.DateISO, TimeRange: d.TimeRange}
		slots, err := m.avail.AvailableSlots(d.DateISO)
		if err != nil {
			t.err = errors.Join(t.err, err)
			m.offerDays(t, m.msg.persistenceNotice)
			return
		}
		if len(slots) == 0 {
			m.offerDays(t, fmt.Sprintf(m.msg.conflictNoSlotsLeft, d.TimeRange))
			return
		}
		m.offerTimes(t, fmt.Sprintf(m.msg.conflictAtConfirm, d.TimeRange), slots)
		return
	}

	a := m.store.New(appointments.Appointment{
		Name:      d.Name,
		Phone:     d.Phone,
		Type:      d.Type,
		Specialty: d.Specialty,
		Doctor:    d.Doctor,
		DateISO:   d.DateISO,
		Time:      d.TimeRange,
	})
	if err := m.store.Add(a); err != nil {
		logger.Error("failed to save appointment", "session", t.s.ID, "error", err)
		t.err = err
		t.say(m.msg.persistenceNotice, m.confirmChoices()...)
		return
	}

	logger.Info("appointment booked", "session", t.s.ID, "id", a.ID, "date", a.DateISO, "time", a.Time)
	t.emit(AppointmentSaved{Appointment: a})
	t.emit(AppointmentsChanged{})
	t.note(fmt.Sprintf(m.msg.confirmed, a.Name, m.typeLabel(a.Type), a.Specialty, a.DateISO, a.Time, a.Phone))
	t.note(m.msg.inviteReady)
	t.emit(InviteReady{Appointment: a})
	t.emit(ScheduleReminder{Delay: m.cfg.Reminder.Delay, AppointmentID: a.ID})
	m.showMenu(t, m.msg.backToMenu)
}

func (m *Machine) handleReminderReply(t *turn, text string) bool {
	switch parseReminderReply(text) {
	case replyConfirm:
		m.showMenu(t, m.msg.attendanceConfirmed)
	case replyCancel:
		if _, err := m.store.RemoveByID(t.s.ReminderFor); err != nil {
			t.err = err
			t.say(m.msg.persistenceNotice, m.reminderChoices()...)
			return true
		}
		t.emit(AppointmentsChanged{})
		m.showMenu(t, m.msg.reminderCancelled)
	default:
		return false
	}
	return true
}

const queueValue = "queue"

func (m *Machine) handleHandover(t *turn, text string) {
	v := strings.ToLower(text)
	if v == queueValue || v == "fila" {
		t.s.QueueLength++
		m.showMenu(t, fmt.Sprintf(m.msg.queued, t.s.QueueLength))
		return
	}
	m.showMenu(t, m.msg.messageRecorded)
}

func (m *Machine) listAppointments(t *turn) {
	all, err := m.store.List()
	if err != nil {
		t.err = err
		t.note(m.msg.persistenceNotice)
		return
	}
	if len(all) == 0 {
		t.note(m.msg.listEmpty)
		return
	}
	lines := []string{m.msg.listHeader}
	for _, a := range appointments.Sorted(all) {
		lines = append(lines, fmt.Sprintf(m.msg.listLine, a.DateISO, a.Time, a.Name, a.Specialty, a.ID))
	}
	t.note(strings.Join(lines, "\n"))
}

func (m *Machine) summary(d Draft) string {
	doctor := d.Doctor
	if doctor == "" {
		doctor = m.msg.noDoctor
	}
	return fmt.Sprintf(m.msg.summary, d.Name, d.Phone, m.typeLabel(d.Type), d.Specialty, doctor, d.DateISO, d.TimeRange)
}

// subject names the visit in a reminder: the specialty, or the service type
// when no specialty was recorded.
func (m *Machine) subject(a appointments.Appointment) string {
	if a.Specialty == "" {
		return strings.ToLower(m.typeLabel(a.Type))
	}
	return a.Specialty
}

func (m *Machine) typeLabel(st appointments.ServiceType) string {
	if st == appointments.Exam {
		return m.msg.exam
	}
	return m.msg.consultation
}

func (m *Machine) menuChoices() []Choice {
	return []Choice{
		{Label: m.msg.menuSchedule, Value: "schedule"},
		{Label: m.msg.menuHours, Value: "hours"},
		{Label: m.msg.menuHuman, Value: "human"},
		{Label: m.msg.menuList, Value: "list"},
	}
}

func (m *Machine) typeChoices() []Choice {
	return []Choice{
		{Label: m.msg.consultation, Value: "consultation"},
		{Label: m.msg.exam, Value: "exam"},
	}
}

func (m *Machine) specialtyChoices() []Choice {
	names := make([]string, 0, len(m.cfg.Clinic.Specialties))
	for _, sp := range m.cfg.Clinic.Specialties {
		names = append(names, sp.Name)
	}
	return valueChoices(names)
}

func (m *Machine) dayChoices() []Choice {
	days := m.avail.NextDays(m.now(), m.cfg.Locale)
	out := make([]Choice, 0, len(days))
	for _, d := range days {
		out = append(out, Choice{Label: fmt.Sprintf(m.msg.dayLabel, d.Label, d.ISO), Value: d.ISO})
	}
	return out
}

func (m *Machine) confirmChoices() []Choice {
	return []Choice{
		{Label: m.msg.confirmYes, Value: "confirm"},
		{Label: m.msg.confirmRedo, Value: "redo"},
		{Label: m.msg.confirmCancel, Value: "cancel"},
	}
}

func (m *Machine) reminderChoices() []Choice {
	return []Choice{
		{Label: m.msg.reminderYes, Value: reminderConfirmValue},
		{Label: m.msg.reminderNo, Value: reminderCancelValue},
	}
}

func (m *Machine) handoverChoices() []Choice {
	return []Choice{
		{Label: m.msg.handoverQueue, Value: queueValue},
		{Label: m.msg.handoverMessage, Value: "message"},
		{Label: "Menu", Value: "menu"},
	}
}

func valueChoices(values []string) []Choice {
	out := make([]Choice, 0, len(values))
	for _, v := range values {
		out = append(out, Choice{Label: v, Value: v})
	}
	return out
}

func slotChoices(slots []calendar.Slot) []Choice {
	if len(slots) > constants.MaxSlotChoices {
		slots = slots[:constants.MaxSlotChoices]
	}
	out := make([]Choice, 0, len(slots))
	for _, s := range slots {
		out = append(out, Choice{Label: s.String(), Value: s.String()})
	}
	return out
}

func onGrid(dateISO, timeRange string, sched config.Schedule) bool {
	slots, err := calendar.SlotsForISO(dateISO, sched)
	if err != nil {
		return false
	}
	for _, s := range slots {
		if s.String() == timeRange {
			return true
		}
	}
	return false
}
