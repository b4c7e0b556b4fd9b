package system

import (
	"fmt"
	"strings"

	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Cancel the later booking of every double-booked slot."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	appts, err := ctx.Appointments.List()
	if err != nil {
		return err
	}

	report := validation.New().Validate(appts, ctx.Config)
	ctx.Println(strings.TrimSuffix(report.FormatReport(), "\n"))
	if !report.HasConflicts() {
		return nil
	}

	if !c.Fix {
		ctx.Println("\nRun with --fix to cancel duplicate bookings automatically.")
		return fmt.Errorf("%d conflict(s) found", len(report.Conflicts))
	}

	ctx.PerformAutomaticBackup()
	actions, err := validation.AutoFixDoubleBookings(report, appts, ctx.Appointments.RemoveByID)
	if err != nil {
		return fmt.Errorf("auto-fix failed: %w", err)
	}
	if len(actions) == 0 {
		ctx.Println("\nNo conflicts could be fixed automatically.")
		return fmt.Errorf("%d conflict(s) need manual attention", len(report.Conflicts))
	}
	ctx.Printf("\nApplied %d fix(es):\n", len(actions))
	for _, a := range actions {
		ctx.Printf("  - %s\n", a.Action)
	}
	if rest := len(report.Conflicts) - report.Count(validation.ConflictDoubleBooking); rest > 0 {
		return fmt.Errorf("%d conflict(s) need manual attention", rest)
	}
	return nil
}
