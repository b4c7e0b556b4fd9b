package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetGetDelete(t *testing.T) {
	gokeyring.MockInit()

	tests := []struct {
		backend string
		connStr string
	}{
		{"postgres", "postgres://clinic@localhost:5432/clinic?sslmode=disable"},
		{"redis", "redis://:secret@localhost:6379/0"},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			if err := Set(tt.backend, tt.connStr); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := Get(tt.backend)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.connStr {
				t.Errorf("Get() = %q, want %q", got, tt.connStr)
			}
			if err := Delete(tt.backend); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := Get(tt.backend); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestBackendsAreSeparate(t *testing.T) {
	gokeyring.MockInit()

	if err := Set("postgres", "postgres://a@h/db"); err != nil {
		t.Fatal(err)
	}
	if _, err := Get("redis"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(redis) error = %v, want ErrNotFound", err)
	}
}

func TestRejectsBadInput(t *testing.T) {
	gokeyring.MockInit()

	if err := Set("postgres", ""); err == nil {
		t.Error("Set() accepted an empty connection string")
	}
	if err := Set("mysql", "x"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Set(mysql) error = %v, want ErrUnknownBackend", err)
	}
	if err := Delete("postgres"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() of missing entry error = %v, want ErrNotFound", err)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()
	if !IsAvailable() {
		t.Error("mock keyring reported unavailable")
	}
}
