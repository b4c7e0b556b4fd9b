package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/dialogue"
	apperrors "github.com/julianstephens/clinichat/internal/errors"
	"github.com/julianstephens/clinichat/internal/ics"
	"github.com/julianstephens/clinichat/internal/logger"
)

const icsContentType = "text/calendar; charset=utf-8"

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) openSession(w http.ResponseWriter, r *http.Request) {
	reply := s.cfg.Runtime.Open()
	writeJSON(w, http.StatusCreated, toReplyDTO("reply", reply))
}

func (s *server) sessionInput(w http.ResponseWriter, r *http.Request) {
	var in inputDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := s.cfg.Runtime.HandleInput(chi.URLParam(r, "id"), dialogue.Input{Text: in.Text, QuickReply: in.QuickReply})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReplyDTO("reply", reply))
}

func (s *server) resetSession(w http.ResponseWriter, r *http.Request) {
	reply, err := s.cfg.Runtime.Reset(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReplyDTO("reply", reply))
}

func (s *server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Runtime.Close(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stream upgrades to a websocket that carries replies to typed messages and
// reminder events for one session.
func (s *server) stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.cfg.Runtime.Session(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	log := logger.With("session", id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := s.hub.subscribe(id)
	defer s.hub.unsubscribe(id, events)

	out := make(chan replyDTO, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// A failed write unblocks the reader below.
		defer conn.Close()
		for {
			select {
			case msg, ok := <-out:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(toReplyDTO("event", ev.Reply)); err != nil {
					return
				}
			}
		}
	}()

	send := func(msg replyDTO) bool {
		select {
		case out <- msg:
			return true
		case <-done:
			return false
		}
	}

	send(replyDTO{Type: "session", SessionID: sess.ID, Step: string(sess.Step), Prompts: []promptDTO{}})
	log.Info("websocket connected")

	for {
		var in inputDTO
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket closed", "error", err)
			}
			break
		}
		switch in.Type {
		case "ping":
			send(replyDTO{Type: "pong", SessionID: id})
			continue
		case "", "message":
		default:
			continue
		}
		if strings.TrimSpace(in.Text) == "" {
			continue
		}
		reply, err := s.cfg.Runtime.HandleInput(id, dialogue.Input{Text: in.Text, QuickReply: in.QuickReply})
		if err != nil {
			send(replyDTO{Type: "error", SessionID: id, Error: err.Error()})
			break
		}
		if !send(toReplyDTO("reply", reply)) {
			break
		}
	}
	close(out)
	<-done
}

func (s *server) listAppointments(w http.ResponseWriter, r *http.Request) {
	var (
		list []appointments.Appointment
		err  error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		list, err = s.cfg.Appointments.ByDate(date)
	} else {
		list, err = s.cfg.Appointments.List()
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentsDTO{Appointments: appointments.Sorted(list)})
}

func (s *server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	removed, err := s.cfg.Appointments.RemoveByID(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) exportOne(w http.ResponseWriter, r *http.Request) {
	a, found, err := s.cfg.Appointments.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	data, err := s.cfg.Encoder.EncodeOne(a, s.cfg.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeICS(w, ics.FileName(a), data)
}

func (s *server) exportAll(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Appointments.List()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	data, err := s.cfg.Encoder.Encode(appointments.Sorted(list), s.cfg.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeICS(w, ics.AllFileName, data)
}

func writeICS(w http.ResponseWriter, fileName string, data []byte) {
	w.Header().Set("Content-Type", icsContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *server) days(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDayDTOs(s.cfg.Availability.NextDays(s.cfg.Now(), s.cfg.Locale)))
}

func (s *server) slots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	slots, err := s.cfg.Availability.AvailableSlots(date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slotsDTO{Date: date, Slots: slotStrings(slots)})
}

func writeStoreError(w http.ResponseWriter, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsPersistence(err):
		logger.Error("store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "appointment store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
