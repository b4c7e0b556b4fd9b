package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/clinichat/internal/constants"
	"github.com/julianstephens/clinichat/internal/storage"
	"github.com/julianstephens/clinichat/internal/storage/sqlite"
)

func jsonStore(t *testing.T, value string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appointments.json")
	s := storage.NewJSONStore(path)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(constants.AppointmentsKey, []byte(value)); err != nil {
		t.Fatal(err)
	}
	return path
}

func readKey(t *testing.T, p storage.Provider) string {
	t.Helper()
	if err := p.Load(); err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	v, err := p.Get(constants.AppointmentsKey)
	if err != nil {
		t.Fatal(err)
	}
	return string(v)
}

func steppingClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Minute)
		return cur
	}
}

func TestNewManagerRejectsRemoteStores(t *testing.T) {
	for _, src := range []string{"postgres://h/db", "redis://localhost:6379/0", "/tmp/store.txt"} {
		if _, err := NewManager(src); !errors.Is(err, ErrUnsupportedStore) {
			t.Errorf("NewManager(%q) error = %v, want ErrUnsupportedStore", src, err)
		}
	}
}

func TestCreateAndRestoreJSON(t *testing.T) {
	path := jsonStore(t, `[{"id":"a"}]`)
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	mgr.now = steppingClock(time.Date(2025, 3, 3, 9, 0, 0, 0, time.Local))

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if filepath.Dir(backupPath) != mgr.Dir() {
		t.Errorf("backup written to %s, want %s", filepath.Dir(backupPath), mgr.Dir())
	}

	s := storage.NewJSONStore(path)
	if err := s.Set(constants.AppointmentsKey, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}

	safety, err := mgr.Restore(backupPath)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if safety == "" {
		t.Error("no safety backup taken before restore")
	}
	if got := readKey(t, storage.NewJSONStore(path)); got != `[{"id":"a"}]` {
		t.Errorf("restored value = %q", got)
	}
}

func TestRestoreRejectsCorruptBackup(t *testing.T) {
	path := jsonStore(t, `[]`)
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(t.TempDir(), "clinichat-20250303-090000.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Restore(bad); err == nil {
		t.Error("Restore() accepted a corrupt backup")
	}
	if got := readKey(t, storage.NewJSONStore(path)); got != `[]` {
		t.Errorf("store changed after failed restore: %q", got)
	}
}

func TestRotationKeepsNewest(t *testing.T) {
	path := jsonStore(t, `[]`)
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	mgr.now = steppingClock(time.Date(2025, 3, 3, 9, 0, 0, 0, time.Local))

	var last string
	for i := 0; i < constants.MaxBackups+3; i++ {
		if last, err = mgr.Create(); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("kept %d backups, want %d", len(backups), constants.MaxBackups)
	}
	if backups[0].Path != last {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, last)
	}
}

func TestSameSecondBackupsGetCounters(t *testing.T) {
	path := jsonStore(t, `[]`)
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2025, 3, 3, 9, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	first, err := mgr.Create()
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.Create()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("second backup overwrote the first")
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 || backups[0].Path != second {
		t.Errorf("List() = %+v, want %s first", backups, second)
	}
}

func TestCreateAndRestoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.db")
	s := sqlite.NewStore(path)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(constants.AppointmentsKey, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	mgr.now = steppingClock(time.Date(2025, 3, 3, 9, 0, 0, 0, time.Local))

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s = sqlite.NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(constants.AppointmentsKey, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := mgr.Restore(backupPath); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := readKey(t, sqlite.NewStore(path)); got != `[{"id":"a"}]` {
		t.Errorf("restored value = %q", got)
	}
}

func TestResolve(t *testing.T) {
	path := jsonStore(t, `[]`)
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	created, err := mgr.Create()
	if err != nil {
		t.Fatal(err)
	}

	got, err := mgr.Resolve(filepath.Base(created))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != created {
		t.Errorf("Resolve() = %s, want %s", got, created)
	}
	if _, err := mgr.Resolve("missing.json"); err == nil {
		t.Error("Resolve() found a missing backup")
	}
}
