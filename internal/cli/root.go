// Package cli holds the state shared by every clinichat command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/availability"
	"github.com/julianstephens/clinichat/internal/backup"
	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/config"
	"github.com/julianstephens/clinichat/internal/constants"
	"github.com/julianstephens/clinichat/internal/dialogue"
	"github.com/julianstephens/clinichat/internal/ics"
	"github.com/julianstephens/clinichat/internal/keyring"
	"github.com/julianstephens/clinichat/internal/logger"
	"github.com/julianstephens/clinichat/internal/storage"
	"github.com/julianstephens/clinichat/internal/storage/postgres"
	"github.com/julianstephens/clinichat/internal/storage/redis"
	"github.com/julianstephens/clinichat/internal/storage/sqlite"
)

type Context struct {
	Config       config.Config
	ConfigDir    string
	Store        storage.Provider
	Appointments *appointments.Store
	// Out receives command output; nil means stdout.
	Out io.Writer
	// Now is the clock used for day listings and exports; nil means time.Now.
	Now func() time.Time
}

// NewContext wires the appointment store over provider.
func NewContext(cfg config.Config, configDir string, provider storage.Provider) *Context {
	return &Context{
		Config:       cfg,
		ConfigDir:    configDir,
		Store:        provider,
		Appointments: appointments.NewStore(provider),
	}
}

func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Writer(), args...)
}

func (c *Context) Clock() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Context) Availability() *availability.Engine {
	return availability.New(c.Appointments, c.Config.Schedule)
}

func (c *Context) Encoder() *ics.Encoder {
	return ics.NewEncoder(c.Config.Clinic.Name)
}

// NewRuntime builds a chat runtime over the context's store and config.
func (c *Context) NewRuntime(opts ...chat.Option) *chat.Runtime {
	var dopts []dialogue.Option
	if c.Now != nil {
		dopts = append(dopts, dialogue.WithClock(c.Now))
		opts = append(opts, chat.WithClock(c.Now))
	}
	machine := dialogue.NewMachine(c.Appointments, c.Availability(), c.Config, dopts...)
	return chat.NewRuntime(machine, c.Encoder(), opts...)
}

// PerformAutomaticBackup creates a backup of file stores. Failures are
// logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := backup.NewManager(c.Store.GetConfigPath())
	if err != nil {
		if !errors.Is(err, backup.ErrUnsupportedStore) {
			logger.Warn("Automatic backup unavailable", "error", err)
		}
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ErrEmbeddedPassword rejects Postgres URLs that carry a password.
var ErrEmbeddedPassword = errors.New("PostgreSQL connection strings with embedded credentials are not allowed; store them with 'clinichat keyring set postgres <url>'")

// OpenStore picks a storage backend from source:
//
//	postgres:// or postgresql://   PostgreSQL (bare scheme reads the keyring)
//	redis://                       Redis (bare scheme reads the keyring)
//	sqlite://path, *.db, *.sqlite  SQLite
//	anything else                  JSON file
func OpenStore(source string) (storage.Provider, error) {
	lower := strings.ToLower(source)
	switch {
	case lower == "postgres://" || lower == "postgresql://":
		connStr, err := keyring.Get(constants.KeyringUserPostgres)
		if err != nil {
			return nil, fmt.Errorf("no PostgreSQL connection string given: %w", err)
		}
		return postgres.New(connStr), nil
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		if err := postgres.ValidateConnString(source); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, ErrEmbeddedPassword
			}
			return nil, err
		}
		return postgres.New(source), nil
	case lower == "redis://":
		url, err := keyring.Get(constants.KeyringUserRedis)
		if err != nil {
			return nil, fmt.Errorf("no Redis URL given: %w", err)
		}
		return redis.New(url), nil
	case strings.HasPrefix(lower, "redis://") || strings.HasPrefix(lower, "rediss://"):
		return redis.New(source), nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqlite.NewStore(source[len("sqlite://"):]), nil
	case strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite"):
		return sqlite.NewStore(source), nil
	default:
		return storage.NewJSONStore(source), nil
	}
}

// Confirm asks a yes/no question on the terminal. Negative answers and an
// aborted prompt both return false.
func Confirm(title, description, affirmative string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return confirmed, err
}
