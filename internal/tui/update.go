package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/dialogue"
	"github.com/julianstephens/clinichat/internal/ics"
)

const panelWidth = 44

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case eventMsg:
		if msg.SessionID == m.sessionID {
			m.applyReply(msg.Reply)
		}
		return m, waitForEvent(m.runtime.Events())

	case eventsClosedMsg:
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			_ = m.runtime.Close(m.sessionID)
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
			return m, nil

		case key.Matches(msg, m.keys.TogglePanel):
			m.panelOpen = !m.panelOpen
			m.layout()
			return m, nil

		case key.Matches(msg, m.keys.Restart):
			reply, err := m.runtime.Reset(m.sessionID)
			if err != nil {
				m.setError(err.Error())
				return m, nil
			}
			m.transcript = nil
			m.setStatus("")
			m.input.SetValue("")
			m.applyReply(reply)
			return m, nil

		case m.panelOpen && key.Matches(msg, m.keys.Up, m.keys.Down):
			var cmd tea.Cmd
			m.panel, cmd = m.panel.Update(msg)
			return m, cmd

		case m.panelOpen && key.Matches(msg, m.keys.Cancel):
			return m.startCancel()

		case m.panelOpen && key.Matches(msg, m.keys.Export):
			m.exportAll()
			return m, nil

		case key.Matches(msg, m.keys.NextChoice):
			m.cycleChoice(1)
			return m, nil

		case key.Matches(msg, m.keys.PrevChoice):
			m.cycleChoice(-1)
			return m, nil

		case key.Matches(msg, m.keys.Send):
			m.send()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// send submits typed text, or the highlighted choice when nothing is typed.
func (m *Model) send() {
	text := strings.TrimSpace(m.input.Value())
	in := dialogue.Input{Text: text}
	display := text
	if text == "" {
		if m.selected < 0 || m.selected >= len(m.choices) {
			return
		}
		c := m.choices[m.selected]
		in = dialogue.Input{Text: c.Value, QuickReply: true}
		display = c.Label
	}

	m.transcript = append(m.transcript, line{who: fromUser, text: display})
	m.input.SetValue("")
	m.setStatus("")

	reply, err := m.runtime.HandleInput(m.sessionID, in)
	if err != nil {
		m.setError(err.Error())
		m.syncViewport()
		return
	}
	m.applyReply(reply)
}

func (m *Model) cycleChoice(step int) {
	if len(m.choices) == 0 {
		return
	}
	m.selected = (m.selected + step + len(m.choices)) % len(m.choices)
}

func (m Model) startCancel() (tea.Model, tea.Cmd) {
	a, ok := m.selectedAppointment()
	if !ok {
		m.setError("No appointment selected.")
		return m, nil
	}
	m.cancelForm = &cancelFormModel{Appointment: a}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Cancel %s on %s at %s?", a.Name, a.DateISO, a.Time)).
				Affirmative("Cancel it").
				Negative("Keep").
				Value(&m.cancelForm.Confirm),
		),
	)
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.form, m.cancelForm = nil, nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.cancelForm != nil && m.cancelForm.Confirm {
			m.cancel(m.cancelForm.Appointment)
		}
		m.form, m.cancelForm = nil, nil
		return m, nil
	case huh.StateAborted:
		m.form, m.cancelForm = nil, nil
		return m, nil
	}
	return m, cmd
}

func (m *Model) cancel(a appointments.Appointment) {
	removed, err := m.store.RemoveByID(a.ID)
	switch {
	case err != nil:
		m.setError(fmt.Sprintf("Cancel failed: %v", err))
	case !removed:
		m.setStatus("Appointment was already removed.")
	default:
		m.setStatus(fmt.Sprintf("Cancelled %s on %s at %s.", a.Name, a.DateISO, a.Time))
	}
	m.refreshAppointments()
}

func (m *Model) exportAll() {
	if m.exporter == nil {
		return
	}
	all, err := m.store.List()
	if err != nil {
		m.setError(fmt.Sprintf("Export failed: %v", err))
		return
	}
	path, err := m.exporter.Export(appointments.Sorted(all), ics.AllFileName)
	if err != nil {
		m.setError(fmt.Sprintf("Export failed: %v", err))
		return
	}
	m.setStatus(fmt.Sprintf("Exported %d appointment(s) to %s", len(all), path))
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	chatWidth := m.width - 2
	if m.panelOpen {
		chatWidth -= panelWidth + 2
		m.panel.SetSize(panelWidth, m.height-4)
	}
	m.input.Width = chatWidth - 4
	// header, chips, input, status and help
	reserved := 8
	if m.help.ShowAll {
		reserved += 4
	}
	m.viewport.Width = chatWidth
	m.viewport.Height = max(m.height-reserved, 3)
	m.syncViewport()
}

func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
