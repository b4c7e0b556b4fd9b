// Package tui is the terminal chat front end for the booking dialogue.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/dialogue"
)

// Appointments is the listing and cancellation the side panel needs.
type Appointments interface {
	List() ([]appointments.Appointment, error)
	RemoveByID(id string) (bool, error)
}

// Exporter renders calendar files for the side panel.
type Exporter interface {
	Export(appts []appointments.Appointment, fileName string) (string, error)
}

type speaker int

const (
	fromBot speaker = iota
	fromUser
)

type line struct {
	who  speaker
	text string
}

type cancelFormModel struct {
	Appointment appointments.Appointment
	Confirm     bool
}

type Model struct {
	runtime   *chat.Runtime
	store     Appointments
	exporter  Exporter
	title     string
	sessionID string

	keys     KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	panel    list.Model

	transcript []line
	choices    []dialogue.Choice
	selected   int
	panelOpen  bool
	form       *huh.Form
	cancelForm *cancelFormModel
	status     string
	statusErr  bool
	width      int
	height     int
	quitting   bool
}

// NewModel opens a chat session on rt and renders its greeting.
func NewModel(rt *chat.Runtime, store Appointments, exporter Exporter, title string) Model {
	in := textinput.New()
	in.Placeholder = "Type a message or pick a choice"
	in.Prompt = "› "
	in.CharLimit = 200
	in.Focus()

	panel := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	panel.Title = "Appointments"
	panel.SetShowHelp(false)
	panel.SetFilteringEnabled(false)

	m := Model{
		runtime:  rt,
		store:    store,
		exporter: exporter,
		title:    title,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		input:    in,
		viewport: viewport.New(80, 20),
		panel:    panel,
		selected: -1,
	}

	reply := rt.Open()
	m.sessionID = reply.Session.ID
	m.applyReply(reply)
	m.refreshAppointments()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.runtime.Events()))
}

// eventMsg carries a reminder or other runtime-originated reply.
type eventMsg chat.Event

// eventsClosedMsg means the runtime shut down.
type eventsClosedMsg struct{}

func waitForEvent(ch <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// applyReply appends prompts to the transcript and takes the last offered
// choices.
func (m *Model) applyReply(r chat.Reply) {
	for _, p := range r.Prompts {
		m.transcript = append(m.transcript, line{who: fromBot, text: p.Text})
	}
	if len(r.Prompts) > 0 {
		m.choices = r.Prompts[len(r.Prompts)-1].Choices
	} else {
		m.choices = r.Session.Choices
	}
	m.selected = -1

	if r.Invite != nil && m.exporter != nil {
		path, err := m.exporter.Export([]appointments.Appointment{r.Invite.Appointment}, r.Invite.FileName)
		if err != nil {
			m.setError(fmt.Sprintf("Invite not saved: %v", err))
		} else {
			m.setStatus("Invite saved to " + path)
		}
	}
	if r.AppointmentsChanged {
		m.refreshAppointments()
	}
	m.syncViewport()
}

func (m *Model) refreshAppointments() {
	all, err := m.store.List()
	if err != nil {
		m.setError(fmt.Sprintf("Could not load appointments: %v", err))
		return
	}
	sorted := appointments.Sorted(all)
	items := make([]list.Item, len(sorted))
	for i, a := range sorted {
		items[i] = item{a}
	}
	m.panel.SetItems(items)
}

func (m *Model) selectedAppointment() (appointments.Appointment, bool) {
	it, ok := m.panel.SelectedItem().(item)
	if !ok {
		return appointments.Appointment{}, false
	}
	return it.Appointment, true
}

// item adapts an appointment to the list component.
type item struct {
	appointments.Appointment
}

func (i item) Title() string {
	return fmt.Sprintf("%s %s  %s", i.DateISO, i.Time, i.Name)
}

func (i item) Description() string {
	return fmt.Sprintf("%s · %s · %s", i.Type, i.Specialty, i.ID)
}

func (i item) FilterValue() string {
	return i.Name
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}
