package appointments

import "time"

// ServiceType is the kind of visit being booked.
type ServiceType string

const (
	Consultation ServiceType = "Consultation"
	Exam         ServiceType = "Exam"
)

// Appointment is a confirmed booking. It is never edited in place; a change
// is a removal followed by a new booking.
type Appointment struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Type      ServiceType `json:"type"`
	Specialty string      `json:"specialty"`
	Doctor    string      `json:"doctor"`
	DateISO   string      `json:"dateISO"`
	Time      string      `json:"time"`
	CreatedAt string      `json:"createdAt"`
}

// Created parses CreatedAt. The zero time is returned if it is malformed.
func (a Appointment) Created() time.Time {
	t, err := time.Parse(time.RFC3339Nano, a.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
