package system

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/constants"
)

type InitCmd struct {
	Force bool `help:"Discard all stored appointments before initializing."`
	Yes   bool `short:"y" help:"Skip the confirmation prompt for --force."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if !c.Yes {
			confirmed, err := cli.Confirm("Discard every stored appointment?", maskPassword(ctx.Store.GetConfigPath()), "Discard")
			if err != nil {
				return err
			}
			if !confirmed {
				ctx.Println("Init cancelled.")
				return nil
			}
		}
		cleared, err := c.reset(ctx)
		if err != nil {
			return err
		}
		if cleared {
			// Remote stores keep their schema; only the entry is gone.
			return nil
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized clinichat storage at: %s\n", maskPassword(ctx.Store.GetConfigPath()))
	return nil
}

// reset deletes a file store outright. For a remote store it clears the
// appointment entry and reports cleared=true.
func (c *InitCmd) reset(ctx *cli.Context) (cleared bool, err error) {
	path := ctx.Store.GetConfigPath()
	if isRemote(path) {
		if err := ctx.Store.Load(); err != nil {
			// Never initialized, so there is nothing to clear.
			return false, nil
		}
		if err := ctx.Store.Delete(constants.AppointmentsKey); err != nil {
			return false, fmt.Errorf("failed to clear appointments: %w", err)
		}
		ctx.Printf("Cleared appointments in: %s\n", maskPassword(path))
		return true, nil
	}

	if _, err := os.Stat(path); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return false, fmt.Errorf("failed to close existing store: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("failed to delete existing store: %w", err)
		}
		ctx.Printf("Deleted existing store at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to access existing store: %w", err)
	}
	return false, nil
}

func isRemote(path string) bool {
	return strings.Contains(path, "://") || strings.Contains(path, "host=")
}
