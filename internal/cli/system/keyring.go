package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/constants"
	"github.com/julianstephens/clinichat/internal/keyring"
	"github.com/julianstephens/clinichat/internal/storage/postgres"
)

// KeyringSetCmd stores a backend connection string in the OS keyring.
type KeyringSetCmd struct {
	Backend          string `arg:"" enum:"postgres,redis" help:"Backend the connection string belongs to (postgres or redis)."`
	ConnectionString string `arg:"" help:"Connection string to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	switch cmd.Backend {
	case constants.KeyringUserPostgres:
		if !strings.HasPrefix(cmd.ConnectionString, "postgres://") &&
			!strings.HasPrefix(cmd.ConnectionString, "postgresql://") &&
			!strings.Contains(cmd.ConnectionString, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	case constants.KeyringUserRedis:
		if !strings.HasPrefix(cmd.ConnectionString, "redis://") && !strings.HasPrefix(cmd.ConnectionString, "rediss://") {
			return errors.New("connection string must be a redis:// or rediss:// URL")
		}
	}

	if err := keyring.Set(cmd.Backend, cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Println("✓ Connection string stored successfully in OS keyring")
	ctx.Printf("  Use --source %s:// to connect with it\n", cmd.Backend)
	return nil
}

// KeyringGetCmd prints a stored connection string with its password masked.
type KeyringGetCmd struct {
	Backend string `arg:"" enum:"postgres,redis" help:"Backend to look up."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.Get(cmd.Backend)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s connection string found in keyring. Use 'clinichat keyring set %s' to store one", cmd.Backend, cmd.Backend)
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	ctx.Println("Connection string retrieved from keyring:")
	ctx.Println(maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes a stored connection string.
type KeyringDeleteCmd struct {
	Backend string `arg:"" enum:"postgres,redis" help:"Backend to forget."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(cmd.Backend); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			ctx.Println("No connection string found in keyring.")
			return nil
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	ctx.Println("✓ Connection string removed from OS keyring")
	return nil
}

// KeyringStatusCmd reports whether the OS keyring can be used.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available")
		return nil
	}
	ctx.Println("✓ OS keyring is available")
	for _, b := range keyring.Backends {
		if _, err := keyring.Get(b); err == nil {
			ctx.Printf("  %s: stored\n", b)
		} else {
			ctx.Printf("  %s: not set\n", b)
		}
	}
	return nil
}

// maskPassword hides the password of a URL or key=value connection string.
func maskPassword(connStr string) string {
	if idx := strings.Index(connStr, "://"); idx != -1 {
		remaining := connStr[idx+3:]
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
			}
		}
		return connStr
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
