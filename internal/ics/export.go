package ics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/clinichat/internal/appointments"
)

// DirExporter writes calendar files into a directory.
type DirExporter struct {
	Dir     string
	Encoder *Encoder
	Now     func() time.Time
}

// Export encodes appts into Dir/fileName and returns the written path.
func (e *DirExporter) Export(appts []appointments.Appointment, fileName string) (string, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	data, err := e.Encoder.Encode(appts, now())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(e.Dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
