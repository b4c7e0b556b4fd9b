package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.form != nil {
		return docStyle.Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if chips := m.renderChoices(); chips != "" {
		b.WriteString(chips)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = dangerStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m))

	main := docStyle.Render(b.String())
	if !m.panelOpen {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, main, panelStyle.Render(m.panelView()))
}

func (m Model) panelView() string {
	if len(m.panel.Items()) == 0 {
		return "Appointments\n\nNo appointments yet."
	}
	return m.panel.View()
}

func (m Model) renderTranscript() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width)

	var parts []string
	for _, l := range m.transcript {
		switch l.who {
		case fromUser:
			parts = append(parts, wrap.Render(userStyle.Render("You: ")+l.text))
		default:
			parts = append(parts, wrap.Render(botStyle.Render(l.text)))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderChoices() string {
	if len(m.choices) == 0 {
		return ""
	}
	chips := make([]string, len(m.choices))
	for i, c := range m.choices {
		style := chipStyle
		if i == m.selected {
			style = selectedChipStyle
		}
		chips[i] = style.Render(c.Label)
	}

	// Wrap chips onto rows that fit the chat width.
	limit := m.viewport.Width
	if limit <= 0 {
		limit = 80
	}
	var rows []string
	var row []string
	rowWidth := 0
	for _, c := range chips {
		w := lipgloss.Width(c)
		if rowWidth+w > limit && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, c)
		rowWidth += w
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
