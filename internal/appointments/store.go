// Package appointments persists confirmed bookings as a single JSON array
// under one key of a storage.Provider.
package appointments

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/clinichat/internal/constants"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
	"github.com/julianstephens/clinichat/internal/storage"
)

// Store reads and writes the appointment list. Every call goes through the
// provider, so writes made elsewhere are visible on the next read.
type Store struct {
	mu       sync.Mutex
	provider storage.Provider
	now      func() time.Time
}

func NewStore(provider storage.Provider) *Store {
	return &Store{provider: provider, now: time.Now}
}

// New builds an appointment with a fresh id and creation timestamp.
func (s *Store) New(a Appointment) Appointment {
	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC().Format(time.RFC3339Nano)
	return a
}

// List returns every stored appointment in storage order.
func (s *Store) List() ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Add appends a. The id must not already be stored.
func (s *Store) Add(a Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		return &apperrors.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	all, err := s.read()
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == a.ID {
			return &apperrors.ValidationError{Field: "id", Value: a.ID, Reason: "already stored"}
		}
	}
	return s.write(append(all, a))
}

// RemoveByID deletes the appointment with id. It reports whether one was
// removed; an absent id is not an error.
func (s *Store) RemoveByID(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return false, err
	}
	kept := all[:0]
	removed := false
	for _, a := range all {
		if a.ID == id {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return false, nil
	}
	if err := s.write(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the appointment with id.
func (s *Store) Get(id string) (Appointment, bool, error) {
	all, err := s.List()
	if err != nil {
		return Appointment{}, false, err
	}
	for _, a := range all {
		if a.ID == id {
			return a, true, nil
		}
	}
	return Appointment{}, false, nil
}

// ByDate returns the appointments on dateISO.
func (s *Store) ByDate(dateISO string) ([]Appointment, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []Appointment
	for _, a := range all {
		if a.DateISO == dateISO {
			out = append(out, a)
		}
	}
	return out, nil
}

// Sorted orders appointments by date, then time.
func Sorted(appts []Appointment) []Appointment {
	out := append([]Appointment(nil), appts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateISO != out[j].DateISO {
			return out[i].DateISO < out[j].DateISO
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func (s *Store) read() ([]Appointment, error) {
	data, err := s.provider.Get(constants.AppointmentsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []Appointment{}, nil
	}
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "read", Err: err}
	}

	var all []Appointment
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, &apperrors.PersistenceError{Op: "decode", Err: err}
	}
	if all == nil {
		all = []Appointment{}
	}
	return all, nil
}

func (s *Store) write(all []Appointment) error {
	data, err := json.Marshal(all)
	if err != nil {
		return &apperrors.PersistenceError{Op: "encode", Err: err}
	}
	if err := s.provider.Set(constants.AppointmentsKey, data); err != nil {
		return &apperrors.PersistenceError{Op: "write", Err: err}
	}
	return nil
}
