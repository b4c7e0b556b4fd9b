package backups

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/config"
	"github.com/julianstephens/clinichat/internal/storage"
)

func setup(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	provider := storage.NewJSONStore(filepath.Join(t.TempDir(), "appointments.json"))
	if err := provider.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	ctx := cli.NewContext(config.Default(), t.TempDir(), provider)
	var out bytes.Buffer
	ctx.Out = &out
	return ctx, &out
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out := setup(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: clinichat-") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Available backups (1 total") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBackupRestore(t *testing.T) {
	ctx, out := setup(t)
	a := appointments.Appointment{
		ID: "a1", Name: "Ana Souza", Phone: "(11) 98765-4321", Type: appointments.Consultation,
		Specialty: "Cardiologia", Doctor: "Dr. Pedro Andrade",
		DateISO: "2025-03-04", Time: "10:00 - 10:30", CreatedAt: "2025-03-03T12:00:00Z",
	}
	if err := ctx.Appointments.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	name := strings.TrimSpace(strings.TrimPrefix(out.String(), "✓ Backup created: "))

	if _, err := ctx.Appointments.RemoveByID("a1"); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: name, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Previous store saved as") {
		t.Errorf("output = %q", out.String())
	}

	list, err := ctx.Appointments.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "a1" {
		t.Errorf("restored appointments = %+v", list)
	}
}

func TestBackupRestoreUnknownFile(t *testing.T) {
	ctx, _ := setup(t)
	if err := (&BackupRestoreCmd{BackupFile: "clinichat-19990101-000000.json", Yes: true}).Run(ctx); err == nil {
		t.Error("restoring a missing backup should fail")
	}
}

func TestBackupUnsupportedStore(t *testing.T) {
	ctx := cli.NewContext(config.Default(), t.TempDir(), storage.NewMemoryStore())
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("backup of an in-memory store should fail")
	}
}
