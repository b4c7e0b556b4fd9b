package redis

import (
	"errors"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/julianstephens/clinichat/internal/storage"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := New("redis://" + mr.Addr())
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestStoreImplementsProvider(t *testing.T) {
	var _ storage.Provider = New("redis://localhost:6379")
}

func TestInitAndLoad(t *testing.T) {
	store, mr := setupStore(t)

	if err := store.Init(); err == nil || !strings.Contains(err.Error(), "already initialized") {
		t.Errorf("second Init() error = %v, want already initialized", err)
	}

	other := New(store.GetConfigPath())
	defer other.Close()
	if err := other.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}

	mr.FlushAll()
	if err := other.Load(); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("Load() on flushed server error = %v, want not initialized", err)
	}
}

func TestEntriesArePrefixed(t *testing.T) {
	store, mr := setupStore(t)

	if _, err := store.Get("clinic_appts"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if err := store.Set("clinic_appts", []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	raw, err := mr.Get("clinichat:clinic_appts")
	if err != nil || raw != "[]" {
		t.Errorf("raw key = %q, %v; want []", raw, err)
	}

	got, err := store.Get("clinic_appts")
	if err != nil || string(got) != "[]" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	if err := store.Delete("clinic_appts"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("clinichat:clinic_appts") {
		t.Error("key still present after Delete")
	}
}

func TestServerDown(t *testing.T) {
	store, mr := setupStore(t)
	mr.Close()

	err := store.Set("clinic_appts", []byte("[]"))
	if err == nil {
		t.Fatal("Set() succeeded against a stopped server")
	}
	if errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Set() error = %v, should not be ErrNotFound", err)
	}
}

func TestInvalidURL(t *testing.T) {
	store := New("not-a-url")
	if err := store.Load(); err == nil || !strings.Contains(err.Error(), "invalid redis url") {
		t.Errorf("Load() error = %v, want invalid url", err)
	}
}
