package dialogue

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/julianstephens/clinichat/internal/appointments"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
)

var (
	nonNameChars = regexp.MustCompile(`[^A-Za-z\x{00C0}-\x{00D6}\x{00D8}-\x{00F6}\x{00F8}-\x{00FF}\s'-]`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// CleanName strips characters that cannot appear in a person's name and
// requires at least two characters to remain.
func CleanName(text string) (string, error) {
	clean := strings.TrimSpace(nonNameChars.ReplaceAllString(text, ""))
	if utf8.RuneCountInString(clean) < 2 {
		return "", &apperrors.ValidationError{Field: "name", Value: text, Reason: "needs at least 2 letters"}
	}
	return clean, nil
}

// FormatPhone keeps the digits of text and renders 10 digits as
// (DD) DDDD-DDDD and 11 digits as (DD) DDDDD-DDDD.
func FormatPhone(text string) (string, error) {
	d := nonDigits.ReplaceAllString(text, "")
	switch len(d) {
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:]), nil
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:]), nil
	default:
		return "", &apperrors.ValidationError{Field: "phone", Value: text, Reason: "needs 10 or 11 digits"}
	}
}

// MatchServiceType recognizes consultation or exam in either language.
func MatchServiceType(text string) (appointments.ServiceType, error) {
	v := strings.ToLower(text)
	switch {
	case strings.Contains(v, "exam"):
		return appointments.Exam, nil
	case strings.Contains(v, "consult"):
		return appointments.Consultation, nil
	}
	return "", &apperrors.ValidationError{Field: "type", Value: text, Reason: "choose consultation or exam"}
}

type command int

const (
	cmdNone command = iota
	cmdMenu
	cmdList
	cmdHours
	cmdHuman
	cmdRestart
	cmdSchedule
)

var commandWords = map[string]command{
	"menu":      cmdMenu,
	"list":      cmdList,
	"listar":    cmdList,
	"hours":     cmdHours,
	"horario":   cmdHours,
	"horário":   cmdHours,
	"horarios":  cmdHours,
	"horários":  cmdHours,
	"human":     cmdHuman,
	"humano":    cmdHuman,
	"agent":     cmdHuman,
	"atendente": cmdHuman,
	"restart":   cmdRestart,
	"reiniciar": cmdRestart,
	"schedule":  cmdSchedule,
	"book":      cmdSchedule,
	"agendar":   cmdSchedule,
}

// parseCommand matches the whole input against a command word.
func parseCommand(text string) command {
	return commandWords[strings.ToLower(strings.TrimSpace(text))]
}

type reply int

const (
	replyNone reply = iota
	replyConfirm
	replyRedo
	replyCancel
)

var replyWords = map[string]reply{
	"confirm":   replyConfirm,
	"confirmar": replyConfirm,
	"confirmo":  replyConfirm,
	"yes":       replyConfirm,
	"sim":       replyConfirm,
	"ok":        replyConfirm,
	"redo":      replyRedo,
	"refazer":   replyRedo,
	"cancel":    replyCancel,
	"cancelar":  replyCancel,
	"no":        replyCancel,
	"não":       replyCancel,
	"nao":       replyCancel,
}

// parseReply returns the first confirm, redo or cancel word in text.
func parseReply(text string) reply {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if r, ok := replyWords[w]; ok {
			return r
		}
	}
	return replyNone
}

const (
	reminderConfirmValue = "reminder:confirm"
	reminderCancelValue  = "reminder:cancel"
)

// parseReminderReply recognizes answers to a reminder prompt.
func parseReminderReply(text string) reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case reminderConfirmValue:
		return replyConfirm
	case reminderCancelValue:
		return replyCancel
	}
	if r := parseReply(text); r == replyConfirm || r == replyCancel {
		return r
	}
	return replyNone
}

// matchOffered returns the offered value equal to text, ignoring case and
// surrounding space.
func matchOffered(text string, offered []string) (string, bool) {
	t := strings.TrimSpace(text)
	for _, o := range offered {
		if strings.EqualFold(o, t) {
			return o, true
		}
	}
	return "", false
}
