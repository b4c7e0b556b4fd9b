package appts

import (
	"fmt"

	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/logger"
)

type CancelCmd struct {
	ID  string `arg:"" help:"ID of the appointment to cancel."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CancelCmd) Run(ctx *cli.Context) error {
	a, found, err := ctx.Appointments.Get(c.ID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("appointment not found: %s", c.ID)
	}

	if !c.Yes {
		desc := fmt.Sprintf("%s %s · %s · %s", a.DateISO, a.Time, a.Name, a.Type)
		confirmed, err := cli.Confirm("Cancel this appointment?", desc, "Cancel appointment")
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Appointment kept.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	removed, err := ctx.Appointments.RemoveByID(c.ID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("appointment not found: %s", c.ID)
	}
	logger.Info("appointment cancelled", "id", c.ID, "date", a.DateISO, "time", a.Time)
	ctx.Printf("✓ Cancelled %s on %s %s\n", a.Name, a.DateISO, a.Time)
	return nil
}
