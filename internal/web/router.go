// Package web serves the booking chat over HTTP and websockets.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/julianstephens/clinichat/internal/appointments"
	"github.com/julianstephens/clinichat/internal/calendar"
	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/ics"
	"github.com/julianstephens/clinichat/internal/logger"
	"github.com/julianstephens/clinichat/internal/metrics"
)

// Appointments is the store surface the HTTP API needs.
type Appointments interface {
	List() ([]appointments.Appointment, error)
	Get(id string) (appointments.Appointment, bool, error)
	ByDate(dateISO string) ([]appointments.Appointment, error)
	RemoveByID(id string) (bool, error)
}

// Availability answers the day and slot listing endpoints.
type Availability interface {
	AvailableSlots(dateISO string) ([]calendar.Slot, error)
	NextDays(today time.Time, locale string) []calendar.Day
}

// Config holds router dependencies.
type Config struct {
	Runtime      *chat.Runtime
	Appointments Appointments
	Availability Availability
	Encoder      *ics.Encoder
	Metrics      *metrics.ChatMetrics
	Locale       string
	Now          func() time.Time
}

type server struct {
	cfg      Config
	hub      *hub
	upgrader websocket.Upgrader
}

// New builds the router. It starts a goroutine that relays runtime events
// to websocket clients until the runtime shuts down.
func New(cfg Config) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &server{
		cfg: cfg,
		hub: newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	go s.hub.run(cfg.Runtime.Events())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/input", s.sessionInput)
			r.Post("/reset", s.resetSession)
			r.Delete("/", s.closeSession)
			r.Get("/stream", s.stream)
		})
		r.Get("/appointments", s.listAppointments)
		r.Get("/appointments.ics", s.exportAll)
		r.Delete("/appointments/{id}", s.cancelAppointment)
		r.Get("/appointments/{id}/ics", s.exportOne)
		r.Get("/days", s.days)
		r.Get("/slots", s.slots)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorDTO{Error: msg})
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrUnknownSession) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// Serve runs handler on addr until ctx is cancelled, then drains
// connections for up to five seconds.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
