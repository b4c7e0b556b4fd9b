package appointments

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/clinichat/internal/constants"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
	"github.com/julianstephens/clinichat/internal/storage"
)

type failingProvider struct {
	*storage.MemoryStore
	failGet bool
	failSet bool
}

func (p *failingProvider) Get(key string) ([]byte, error) {
	if p.failGet {
		return nil, errors.New("disk unavailable")
	}
	return p.MemoryStore.Get(key)
}

func (p *failingProvider) Set(key string, value []byte) error {
	if p.failSet {
		return errors.New("disk full")
	}
	return p.MemoryStore.Set(key, value)
}

func sample(id, date, slot string) Appointment {
	return Appointment{
		ID:        id,
		Name:      "Ana Souza",
		Phone:     "(11) 98765-4321",
		Type:      Consultation,
		Specialty: "Cardiologia",
		Doctor:    "Dr. Pedro Andrade",
		DateISO:   date,
		Time:      slot,
		CreatedAt: "2025-03-03T12:00:00Z",
	}
}

func TestStoreRoundTripJSONFile(t *testing.T) {
	provider := storage.NewJSONStore(filepath.Join(t.TempDir(), "appointments.json"))
	if err := provider.Init(); err != nil {
		t.Fatal(err)
	}
	store := NewStore(provider)

	want := sample("a1", "2025-03-04", "10:00 - 11:00")
	if err := store.Add(want); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reopened := storage.NewJSONStore(provider.GetConfigPath())
	if err := reopened.Load(); err != nil {
		t.Fatal(err)
	}
	all, err := NewStore(reopened).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 || !reflect.DeepEqual(all[0], want) {
		t.Errorf("List() = %+v, want [%+v]", all, want)
	}

	byDate, err := store.ByDate("2025-03-04")
	if err != nil || len(byDate) != 1 || !reflect.DeepEqual(byDate[0], want) {
		t.Errorf("ByDate() = %+v, %v", byDate, err)
	}
}

func TestStoredRecordLayout(t *testing.T) {
	provider := storage.NewMemoryStore()
	store := NewStore(provider)
	if err := store.Add(sample("a1", "2025-03-04", "10:00 - 11:00")); err != nil {
		t.Fatal(err)
	}

	raw, err := provider.Get(constants.AppointmentsKey)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"id":"a1","name":"Ana Souza","phone":"(11) 98765-4321","type":"Consultation",` +
		`"specialty":"Cardiologia","doctor":"Dr. Pedro Andrade","dateISO":"2025-03-04",` +
		`"time":"10:00 - 11:00","createdAt":"2025-03-03T12:00:00Z"}]`
	if string(raw) != want {
		t.Errorf("stored value =\n%s\nwant\n%s", raw, want)
	}
}

func TestAddRejectsDuplicateAndEmptyID(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	if err := store.Add(sample("a1", "2025-03-04", "10:00 - 11:00")); err != nil {
		t.Fatal(err)
	}

	for _, a := range []Appointment{sample("a1", "2025-03-05", "09:00 - 10:00"), sample("", "2025-03-05", "09:00 - 10:00")} {
		if err := store.Add(a); !apperrors.IsValidation(err) {
			t.Errorf("Add(id=%q) error = %v, want ValidationError", a.ID, err)
		}
	}
}

func TestRemoveByID(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	for _, a := range []Appointment{
		sample("a1", "2025-03-04", "09:00 - 10:00"),
		sample("a2", "2025-03-04", "10:00 - 11:00"),
	} {
		if err := store.Add(a); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.RemoveByID("a1")
	if err != nil || !removed {
		t.Fatalf("RemoveByID(a1) = %v, %v", removed, err)
	}
	removed, err = store.RemoveByID("missing")
	if err != nil || removed {
		t.Errorf("RemoveByID(missing) = %v, %v; want false, nil", removed, err)
	}

	all, _ := store.List()
	if len(all) != 1 || all[0].ID != "a2" {
		t.Errorf("List() after removal = %+v", all)
	}
	if _, found, _ := store.Get("a1"); found {
		t.Error("Get(a1) found a removed appointment")
	}
}

func TestRemoveByIDWriteFailure(t *testing.T) {
	provider := &failingProvider{MemoryStore: storage.NewMemoryStore()}
	store := NewStore(provider)
	if err := store.Add(sample("a1", "2025-03-04", "09:00 - 10:00")); err != nil {
		t.Fatal(err)
	}

	provider.failSet = true
	removed, err := store.RemoveByID("a1")
	if removed {
		t.Error("RemoveByID() reported removal that was not persisted")
	}
	if !apperrors.IsPersistence(err) {
		t.Errorf("error = %v, want PersistenceError", err)
	}

	provider.failSet = false
	if _, found, _ := store.Get("a1"); !found {
		t.Error("appointment lost after failed removal")
	}
}

func TestPersistenceErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider *failingProvider
		op       func(*Store) error
	}{
		{"list read failure", &failingProvider{MemoryStore: storage.NewMemoryStore(), failGet: true}, func(s *Store) error {
			_, err := s.List()
			return err
		}},
		{"add write failure", &failingProvider{MemoryStore: storage.NewMemoryStore(), failSet: true}, func(s *Store) error {
			return s.Add(sample("a1", "2025-03-04", "09:00 - 10:00"))
		}},
		{"by date read failure", &failingProvider{MemoryStore: storage.NewMemoryStore(), failGet: true}, func(s *Store) error {
			_, err := s.ByDate("2025-03-04")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(NewStore(tt.provider)); !apperrors.IsPersistence(err) {
				t.Errorf("error = %v, want PersistenceError", err)
			}
		})
	}
}

func TestCorruptEntryIsPersistenceError(t *testing.T) {
	provider := storage.NewMemoryStore()
	_ = provider.Set(constants.AppointmentsKey, []byte("{broken"))

	if _, err := NewStore(provider).List(); !apperrors.IsPersistence(err) {
		t.Errorf("List() error = %v, want PersistenceError", err)
	}
}

func TestNewAssignsIdentity(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	store.now = func() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) }

	a := store.New(Appointment{Name: "Ana"})
	b := store.New(Appointment{Name: "Ana"})
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids not unique: %q %q", a.ID, b.ID)
	}
	if a.CreatedAt != "2025-03-03T09:00:00Z" {
		t.Errorf("CreatedAt = %q", a.CreatedAt)
	}
	if !a.Created().Equal(store.now()) {
		t.Errorf("Created() = %v", a.Created())
	}
}

func TestSorted(t *testing.T) {
	in := []Appointment{
		sample("c", "2025-03-05", "09:00 - 10:00"),
		sample("b", "2025-03-04", "11:00 - 12:00"),
		sample("a", "2025-03-04", "09:00 - 10:00"),
	}
	got := Sorted(in)
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("Sorted() order = %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if in[0].ID != "c" {
		t.Error("Sorted() modified its input")
	}
}
