package appts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/ics"
)

type ExportCmd struct {
	ID     string `help:"Export only this appointment."`
	Output string `short:"o" help:"Output file, or - for stdout. Defaults to the standard file name in the current directory." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	var (
		list     []appointments.Appointment
		fileName = ics.AllFileName
	)
	if c.ID != "" {
		a, found, err := ctx.Appointments.Get(c.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("appointment not found: %s", c.ID)
		}
		list = []appointments.Appointment{a}
		fileName = ics.FileName(a)
	} else {
		all, err := ctx.Appointments.List()
		if err != nil {
			return err
		}
		list = appointments.Sorted(all)
	}

	data, err := ctx.Encoder().Encode(list, ctx.Clock())
	if err != nil {
		return err
	}

	if c.Output == "-" {
		_, err := ctx.Writer().Write(data)
		return err
	}

	path := c.Output
	if path == "" {
		path = fileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	ctx.Printf("✓ Exported %d appointment(s) to %s\n", len(list), path)
	return nil
}
