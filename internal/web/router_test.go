package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/availability"
	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/config"
	"github.com/julianstephens/clinichat/internal/dialogue"
	"github.com/julianstephens/clinichat/internal/ics"
	"github.com/julianstephens/clinichat/internal/metrics"
	"github.com/julianstephens/clinichat/internal/storage"
)

var booking = []string{"schedule", "Ana Souza", "11912345678", "exam", "Cardiologia", "Dr. Pedro Andrade", "2025-03-04", "10:00 - 11:00", "confirm"}

type fixture struct {
	handler http.Handler
	rt      *chat.Runtime
	store   *appointments.Store
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Schedule.SlotMinutes = 60
	cfg.Reminder.Delay = delay

	store := appointments.NewStore(storage.NewMemoryStore())
	clock := func() time.Time { return time.Date(2025, 3, 3, 10, 0, 0, 0, time.Local) }
	avail := availability.New(store, cfg.Schedule)
	machine := dialogue.NewMachine(store, avail, cfg, dialogue.WithClock(clock))
	encoder := ics.NewEncoder(cfg.Clinic.Name)
	m := metrics.NewChatMetrics()
	rt := chat.NewRuntime(machine, encoder, chat.WithMetrics(m), chat.WithClock(clock))
	t.Cleanup(rt.Shutdown)

	h := New(Config{
		Runtime:      rt,
		Appointments: store,
		Availability: avail,
		Encoder:      encoder,
		Metrics:      m,
		Locale:       cfg.Locale,
		Now:          clock,
	})
	return &fixture{handler: h, rt: rt, store: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (f *fixture) book(t *testing.T) replyDTO {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/sessions", nil)
	id := decode[replyDTO](t, rec).SessionID
	var last replyDTO
	for _, in := range booking {
		rec := f.do(t, http.MethodPost, "/api/sessions/"+id+"/input", inputDTO{Text: in, QuickReply: true})
		if rec.Code != http.StatusOK {
			t.Fatalf("input %q status = %d, body %s", in, rec.Code, rec.Body.String())
		}
		last = decode[replyDTO](t, rec)
	}
	return last
}

func TestHealth(t *testing.T) {
	f := newFixture(t, time.Hour)
	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec)["status"]; got != "ok" {
		t.Errorf("status field = %q", got)
	}
}

func TestOpenSession(t *testing.T) {
	f := newFixture(t, time.Hour)
	rec := f.do(t, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	r := decode[replyDTO](t, rec)
	if r.SessionID == "" || r.Step != string(dialogue.StepMenu) {
		t.Errorf("reply = %+v", r)
	}
	if len(r.Prompts) == 0 || len(r.Prompts[len(r.Prompts)-1].Choices) == 0 {
		t.Errorf("greeting should end with menu choices, got %+v", r.Prompts)
	}
}

func TestBookingOverHTTP(t *testing.T) {
	f := newFixture(t, time.Hour)
	last := f.book(t)

	if last.Invite == nil {
		t.Fatal("confirm reply has no invite")
	}
	if !last.AppointmentsChanged {
		t.Error("confirm reply should flag appointment changes")
	}
	if !strings.HasSuffix(last.Invite.URL, "/ics") {
		t.Errorf("invite url = %q", last.Invite.URL)
	}

	rec := f.do(t, http.MethodGet, last.Invite.URL, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ics status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "BEGIN:VEVENT") {
		t.Errorf("ics body missing event:\n%s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/appointments?date=2025-03-04", nil)
	list := decode[appointmentsDTO](t, rec).Appointments
	if len(list) != 1 || list[0].Name != "Ana Souza" {
		t.Fatalf("appointments = %+v", list)
	}

	rec = f.do(t, http.MethodGet, "/api/slots?date=2025-03-04", nil)
	slots := decode[slotsDTO](t, rec).Slots
	for _, s := range slots {
		if s == "10:00 - 11:00" {
			t.Errorf("booked slot still offered: %v", slots)
		}
	}
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t, time.Hour)
	last := f.book(t)
	id := last.Invite.AppointmentID

	if rec := f.do(t, http.MethodDelete, "/api/appointments/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, "/api/appointments/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/appointments/"+id+"/ics", nil); rec.Code != http.StatusNotFound {
		t.Errorf("ics after delete status = %d, want 404", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t, time.Hour)
	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/sessions/nope/input"},
		{http.MethodPost, "/api/sessions/nope/reset"},
		{http.MethodDelete, "/api/sessions/nope"},
		{http.MethodGet, "/api/sessions/nope/stream"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, inputDTO{Text: "hi"})
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
		})
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := decode[replyDTO](t, f.do(t, http.MethodPost, "/api/sessions", nil)).SessionID

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/input", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}

	if rec := f.do(t, http.MethodGet, "/api/slots", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing date status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/slots?date=04/03/2025", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date status = %d", rec.Code)
	}
}

func TestDays(t *testing.T) {
	f := newFixture(t, time.Hour)
	days := decode[[]dayDTO](t, f.do(t, http.MethodGet, "/api/days", nil))
	if len(days) == 0 {
		t.Fatal("no days offered")
	}
	for _, d := range days {
		if d.Date == "2025-03-08" || d.Date == "2025-03-09" {
			t.Errorf("weekend offered: %+v", d)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := decode[replyDTO](t, f.do(t, http.MethodPost, "/api/sessions", nil)).SessionID

	f.do(t, http.MethodPost, "/api/sessions/"+id+"/input", inputDTO{Text: "schedule", QuickReply: true})
	rec := f.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", nil)
	if got := decode[replyDTO](t, rec).Step; got != string(dialogue.StepMenu) {
		t.Errorf("step after reset = %s", got)
	}
	if rec := f.do(t, http.MethodDelete, "/api/sessions/"+id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("close status = %d", rec.Code)
	}
	if _, err := f.rt.Session(id); err == nil {
		t.Error("session survived close")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.do(t, http.MethodPost, "/api/sessions", nil)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "clinichat_active_sessions 1") {
		t.Errorf("metrics missing active sessions gauge:\n%s", rec.Body.String())
	}
}

func TestStreamRepliesAndReminders(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	id := f.rt.Open().Session.ID
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() replyDTO {
		t.Helper()
		var msg replyDTO
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != "session" || msg.SessionID != id {
		t.Fatalf("first message = %+v", msg)
	}

	if err := conn.WriteJSON(inputDTO{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := read(); msg.Type != "pong" {
		t.Fatalf("ping reply = %+v", msg)
	}

	for _, in := range booking {
		if err := conn.WriteJSON(inputDTO{Type: "message", Text: in, QuickReply: true}); err != nil {
			t.Fatalf("write %q: %v", in, err)
		}
		if msg := read(); msg.Type != "reply" || msg.Error != "" {
			t.Fatalf("reply to %q = %+v", in, msg)
		}
	}

	msg := read()
	if msg.Type != "event" || msg.Step != string(dialogue.StepReminder) {
		t.Fatalf("reminder event = %+v", msg)
	}
}
