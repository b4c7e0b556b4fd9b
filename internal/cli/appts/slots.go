package appts

import (
	"strings"

	"github.com/julianstephens/clinichat/internal/cli"
)

type SlotsCmd struct {
	Date string `arg:"" help:"Day to inspect (YYYY-MM-DD)."`
}

func (c *SlotsCmd) Run(ctx *cli.Context) error {
	avail := ctx.Availability()
	free, err := avail.AvailableSlots(c.Date)
	if err != nil {
		return err
	}
	taken, err := avail.TakenSlots(c.Date)
	if err != nil {
		return err
	}

	if len(free) == 0 && len(taken) == 0 {
		ctx.Printf("%s is not a working day.\n", c.Date)
		return nil
	}

	ctx.Printf("Free on %s (%d):\n", c.Date, len(free))
	for _, s := range free {
		ctx.Printf("  %s\n", s)
	}
	if len(taken) > 0 {
		names := make([]string, len(taken))
		for i, s := range taken {
			names[i] = s.String()
		}
		ctx.Printf("Booked: %s\n", strings.Join(names, ", "))
	}
	return nil
}

type DaysCmd struct{}

func (c *DaysCmd) Run(ctx *cli.Context) error {
	days := ctx.Availability().NextDays(ctx.Clock(), ctx.Config.Locale)
	if len(days) == 0 {
		ctx.Println("No bookable days ahead.")
		return nil
	}
	for _, d := range days {
		ctx.Printf("%s  %s\n", d.ISO, d.Label)
	}
	return nil
}
