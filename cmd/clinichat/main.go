package main

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/cli/appts"
	"github.com/julianstephens/clinichat/internal/cli/backups"
	"github.com/julianstephens/clinichat/internal/cli/system"
	"github.com/julianstephens/clinichat/internal/config"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
	"github.com/julianstephens/clinichat/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Directory holding config.yaml, logs and the default store." type:"path" default:"~/.config/clinichat"`
	Source    string `help:"Appointment store: a JSON or SQLite file path, or a postgres:// or redis:// URL. Overrides storage.source. For PostgreSQL, passwords must NOT be embedded; use 'clinichat keyring set' instead."`
	Debug     bool   `help:"Log at debug level and echo logs to stderr (except in chat)."`

	Init     system.InitCmd     `cmd:"" help:"Initialize appointment storage."`
	Chat     system.ChatCmd     `cmd:"" help:"Open the booking chat in the terminal." default:"1"`
	Serve    system.ServeCmd    `cmd:"" help:"Serve the booking chat over HTTP and websockets."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd `cmd:"" help:"Check stored appointments for conflicts."`
	List     appts.ListCmd      `cmd:"" help:"List appointments."`
	Cancel   appts.CancelCmd    `cmd:"" help:"Cancel an appointment."`
	Export   appts.ExportCmd    `cmd:"" help:"Export appointments as an iCalendar file."`
	Slots    appts.SlotsCmd     `cmd:"" help:"Show free and booked slots for a day."`
	Days     appts.DaysCmd      `cmd:"" help:"Show the upcoming bookable days."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage backend credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("clinichat"),
		kong.Description("Conversational appointment booking for a small clinic"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	command := strings.Fields(ctx.Command())[0]

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: CLI.ConfigDir,
		Echo:      CLI.Debug && command != "chat",
	}); err != nil {
		apperrors.Fatal(err)
	}

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		apperrors.Fatal(err)
	}

	// Keyring commands manage the credentials a store would need, so they
	// run without one.
	if command == "keyring" {
		apperrors.Fatal(ctx.Run(&cli.Context{Config: cfg, ConfigDir: CLI.ConfigDir}))
		return
	}

	source := CLI.Source
	if source == "" {
		source = cfg.Storage.Source
	}
	store, err := cli.OpenStore(source)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	appCtx := cli.NewContext(cfg, CLI.ConfigDir, store)

	// Init creates the store and doctor reports on a broken one.
	if command != "init" && command != "doctor" {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		_ = store.Close()
		apperrors.Fatal(err)
	}
}
