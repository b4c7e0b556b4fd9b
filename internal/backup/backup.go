// Package backup keeps rotating copies of file-backed appointment stores.
// JSON stores are copied byte for byte; SQLite stores go through VACUUM INTO.
package backup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/clinichat/internal/constants"
	"github.com/julianstephens/clinichat/internal/logger"
)

const (
	DirName         = "backups"
	FilePrefix      = "clinichat-"
	timestampLayout = "20060102-150405"
	maxNameAttempts = 100
)

// ErrUnsupportedStore is returned for stores that are not local files.
var ErrUnsupportedStore = errors.New("backups are only supported for JSON and SQLite stores")

type kind int

const (
	kindJSON kind = iota
	kindSQLite
)

// Info describes one backup file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	storePath string
	backupDir string
	kind      kind
	suffix    string
	now       func() time.Time
}

// NewManager returns a manager for the store file at storePath. Backups live
// in a sibling "backups" directory.
func NewManager(storePath string) (*Manager, error) {
	ext := strings.ToLower(filepath.Ext(storePath))
	m := &Manager{
		storePath: storePath,
		backupDir: filepath.Join(filepath.Dir(storePath), DirName),
		suffix:    ext,
		now:       time.Now,
	}
	switch ext {
	case ".json":
		m.kind = kindJSON
	case ".db", ".sqlite":
		m.kind = kindSQLite
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStore, storePath)
	}
	return m, nil
}

func (m *Manager) Dir() string {
	return m.backupDir
}

// Create snapshots the store and prunes all but the newest MaxBackups.
func (m *Manager) Create() (string, error) {
	path, err := m.create()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) create() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.storePath); err != nil {
		return "", fmt.Errorf("store does not exist: %s", m.storePath)
	}

	dest, err := m.nextName()
	if err != nil {
		return "", err
	}

	switch m.kind {
	case kindSQLite:
		err = vacuumInto(m.storePath, dest)
	default:
		err = copyFile(m.storePath, dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up store: %w", err)
	}
	logger.Info("backup created", "path", dest)
	return dest, nil
}

func (m *Manager) nextName() (string, error) {
	stamp := m.now().Format(timestampLayout)
	path := filepath.Join(m.backupDir, FilePrefix+stamp+m.suffix)
	for i := 1; i <= maxNameAttempts; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", FilePrefix, stamp, i, m.suffix))
	}
	return "", errors.New("failed to generate unique backup filename")
}

// List returns backups newest first. Files that do not look like backups of
// this store are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, m.suffix) {
			continue
		}
		stamp, seq := parseName(strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), m.suffix))
		ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		// Same-second backups are ordered by their counter.
		out = append(out, Info{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: ts.Add(time.Duration(seq) * time.Nanosecond),
			Size:      info.Size(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func parseName(s string) (string, int) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || len(s)-i-1 == 6 {
		return s, 0
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0
	}
	return s[:i], n
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore verifies path, snapshots the current store, then atomically
// replaces the store with the backup. The store must not be open elsewhere.
func (m *Manager) Restore(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := m.verify(path); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var safety string
	if _, err := os.Stat(m.storePath); err == nil {
		safety, err = m.create()
		if err != nil {
			return "", fmt.Errorf("failed to back up current store before restore: %w", err)
		}
	}

	tmp := m.storePath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.storePath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to restore store: %w", err)
	}
	logger.Info("store restored", "from", path, "safety_backup", safety)
	return safety, nil
}

// Resolve finds a backup given a path or a bare file name in the backup dir.
func (m *Manager) Resolve(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(m.backupDir, filepath.Base(name))
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried %s and %s", name, m.backupDir)
}

func (m *Manager) verify(path string) error {
	if m.kind == kindJSON {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var doc struct {
			Version int               `json:"version"`
			Entries map[string]string `json:"entries"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		if doc.Entries == nil {
			return errors.New("not a clinichat store")
		}
		return nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n)
}

func vacuumInto(src, dest string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		db.Close()
		return copyFile(src, dest)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
