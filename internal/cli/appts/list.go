// Package appts holds the commands that read and change stored appointments.
package appts

import (
	"fmt"
	"text/tabwriter"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/cli"
)

type ListCmd struct {
	Date string `help:"Only show appointments on this day (YYYY-MM-DD)."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	var (
		list []appointments.Appointment
		err  error
	)
	if c.Date != "" {
		if _, err := calendar.ParseDate(c.Date); err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", c.Date)
		}
		list, err = ctx.Appointments.ByDate(c.Date)
	} else {
		list, err = ctx.Appointments.List()
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		ctx.Println("No appointments.")
		return nil
	}

	w := tabwriter.NewWriter(ctx.Writer(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tNAME\tPHONE\tTYPE\tSPECIALTY\tPROFESSIONAL\tID")
	for _, a := range appointments.Sorted(list) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.DateISO, a.Time, a.Name, a.Phone, a.Type, a.Specialty, a.Doctor, a.ID)
	}
	return w.Flush()
}
