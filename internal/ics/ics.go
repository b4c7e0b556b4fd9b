// Package ics renders appointments as iCalendar documents.
package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/constants"
)

const (
	stampLayout = "20060102T150405Z"
	maxLine     = 75

	// AllFileName is the download name for an export of every appointment.
	AllFileName = "clinic-appointments.ics"
)

// textEscaper escapes one TEXT value. Line breaks inside a value become
// the literal \n sequence.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", "",
)

// FileName is the download name for one appointment's invite.
func FileName(a appointments.Appointment) string {
	return "appointment-" + a.ID + ".ics"
}

// Encoder writes calendars for one clinic. Output depends only on its
// inputs, so the same appointments and timestamp give identical bytes.
type Encoder struct {
	ProdID string
	// Location interprets appointment dates and times. Nil means time.Local.
	Location *time.Location
}

func NewEncoder(clinicName string) *Encoder {
	return &Encoder{ProdID: "-//" + clinicName + "//EN"}
}

// Encode renders one VEVENT per appointment, stamped with now.
func (e *Encoder) Encode(appts []appointments.Appointment, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	line := func(s string) { writeFolded(&buf, s) }

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + e.ProdID)
	line("CALSCALE:GREGORIAN")

	for _, a := range appts {
		start, end, err := e.span(a)
		if err != nil {
			return nil, err
		}
		line("BEGIN:VEVENT")
		line("UID:" + a.ID + "@clinic")
		line("DTSTAMP:" + now.UTC().Format(stampLayout))
		line("DTSTART:" + start.UTC().Format(stampLayout))
		line("DTEND:" + end.UTC().Format(stampLayout))
		line("SUMMARY:" + textEscaper.Replace(string(a.Type)+" - "+a.Name))
		line("DESCRIPTION:" + description(a))
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return buf.Bytes(), nil
}

// EncodeOne renders a single appointment's invite.
func (e *Encoder) EncodeOne(a appointments.Appointment, now time.Time) ([]byte, error) {
	return e.Encode([]appointments.Appointment{a}, now)
}

func (e *Encoder) span(a appointments.Appointment) (time.Time, time.Time, error) {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}
	slot, err := calendar.ParseSlot(a.Time)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	start, err := time.ParseInLocation(constants.DateFormat+" "+constants.TimeFormat, a.DateISO+" "+slot.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	end, err := time.ParseInLocation(constants.DateFormat+" "+constants.TimeFormat, a.DateISO+" "+slot.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	// A slot running past midnight ends on the next day.
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// description joins escaped fields with literal \n separators.
func description(a appointments.Appointment) string {
	esc := textEscaper.Replace
	kind := esc(string(a.Type))
	if a.Specialty != "" {
		kind += " (" + esc(a.Specialty) + ")"
	}
	d := `Type: ` + kind + `\nContact: ` + esc(a.Phone)
	if a.Doctor != "" {
		d += `\nProfessional: ` + esc(a.Doctor)
	}
	return d
}

// writeFolded writes s with CRLF, folding at 75 octets without splitting
// a UTF-8 sequence.
func writeFolded(buf *bytes.Buffer, s string) {
	limit := maxLine
	for len(s) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		buf.WriteString(s[:cut])
		buf.WriteString("\r\n ")
		s = s[cut:]
		limit = maxLine - 1
	}
	buf.WriteString(s)
	buf.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
