// Package dialogue is the booking conversation. Machine.Handle is a
// transition function: it takes a Session and one Input and returns the next
// Session plus the effects an adapter must perform.
package dialogue

import "github.com/julianstephens/clinichat/internal/appointments"

type Step string

const (
	StepWelcome          Step = "welcome"
	StepMenu             Step = "menu"
	StepCollectName      Step = "collect_name"
	StepCollectPhone     Step = "collect_phone"
	StepCollectType      Step = "collect_type"
	StepCollectSpecialty Step = "collect_specialty"
	StepSelectDoctor     Step = "select_doctor"
	StepSelectDay        Step = "select_day"
	StepSelectTime       Step = "select_time"
	StepConfirm          Step = "confirm"
	StepReminder         Step = "reminder"
	StepHandover         Step = "handover"
)

// Draft is the booking being assembled. Fields fill in step order.
type Draft struct {
	Name      string
	Phone     string
	Type      appointments.ServiceType
	Specialty string
	Doctor    string
	DateISO   string
	TimeRange string
}

// Choice is a quick reply offered to the user.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Input is one user turn. QuickReply marks a value taken from a Choice
// rather than typed text.
type Input struct {
	Text       string `json:"text"`
	QuickReply bool   `json:"quickReply"`
}

// Session is the full state of one conversation.
type Session struct {
	ID          string
	Step        Step
	Draft       Draft
	QueueLength int
	Choices     []Choice
	// ReminderFor is the appointment the current reminder step asks about.
	ReminderFor string
}

func NewSession(id string) Session {
	return Session{ID: id, Step: StepWelcome}
}
