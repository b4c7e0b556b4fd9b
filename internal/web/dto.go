package web

import (
	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/dialogue"
)

type promptDTO struct {
	Text    string            `json:"text"`
	Choices []dialogue.Choice `json:"choices,omitempty"`
}

type inviteDTO struct {
	AppointmentID string `json:"appointmentId"`
	FileName      string `json:"fileName"`
	URL           string `json:"url"`
}

// replyDTO is the JSON shape of a chat.Reply.
type replyDTO struct {
	Type                string      `json:"type"`
	SessionID           string      `json:"sessionId"`
	Step                string      `json:"step"`
	Prompts             []promptDTO `json:"prompts"`
	Invite              *inviteDTO  `json:"invite,omitempty"`
	AppointmentsChanged bool        `json:"appointmentsChanged,omitempty"`
	Error               string      `json:"error,omitempty"`
}

func toReplyDTO(kind string, r chat.Reply) replyDTO {
	out := replyDTO{
		Type:                kind,
		SessionID:           r.Session.ID,
		Step:                string(r.Session.Step),
		Prompts:             make([]promptDTO, 0, len(r.Prompts)),
		AppointmentsChanged: r.AppointmentsChanged,
	}
	for _, p := range r.Prompts {
		out.Prompts = append(out.Prompts, promptDTO{Text: p.Text, Choices: p.Choices})
	}
	if r.Invite != nil {
		out.Invite = &inviteDTO{
			AppointmentID: r.Invite.Appointment.ID,
			FileName:      r.Invite.FileName,
			URL:           "/api/appointments/" + r.Invite.Appointment.ID + "/ics",
		}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

type inputDTO struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text"`
	QuickReply bool   `json:"quickReply"`
}

type dayDTO struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

func toDayDTOs(days []calendar.Day) []dayDTO {
	out := make([]dayDTO, len(days))
	for i, d := range days {
		out[i] = dayDTO{Date: d.ISO, Label: d.Label}
	}
	return out
}

type slotsDTO struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func slotStrings(slots []calendar.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

type appointmentsDTO struct {
	Appointments []appointments.Appointment `json:"appointments"`
}

type errorDTO struct {
	Error string `json:"error"`
}
