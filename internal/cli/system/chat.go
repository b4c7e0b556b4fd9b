package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/ics"
	"github.com/julianstephens/clinichat/internal/notifier"
	"github.com/julianstephens/clinichat/internal/tui"
)

type ChatCmd struct {
	ExportDir string `help:"Directory for calendar files written by the chat." type:"path" default:"."`
}

func (c *ChatCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()

	var opts []chat.Option
	if ctx.Config.Reminder.Notify {
		opts = append(opts, chat.WithNotifier(notifier.New()))
	}
	rt := ctx.NewRuntime(opts...)
	defer rt.Shutdown()

	exporter := &ics.DirExporter{Dir: c.ExportDir, Encoder: ctx.Encoder(), Now: ctx.Now}
	model := tui.NewModel(rt, ctx.Appointments, exporter, ctx.Config.Clinic.Name)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat exited with error: %w", err)
	}
	return nil
}
