// Package metrics exposes Prometheus counters for the chat runtime.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatMetrics counts dialogue traffic, bookings and reminders.
type ChatMetrics struct {
	reg            *prometheus.Registry
	inputsTotal    *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewChatMetrics registers the collectors on a fresh registry, so several
// runtimes in one process do not collide.
func NewChatMetrics() *ChatMetrics {
	m := &ChatMetrics{
		reg: prometheus.NewRegistry(),
		inputsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinichat",
			Subsystem: "dialogue",
			Name:      "inputs_total",
			Help:      "Inputs handled, by the step they arrived in",
		}, []string{"step"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinichat",
			Name:      "bookings_total",
			Help:      "Booking attempts at confirmation, by result",
		}, []string{"result"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinichat",
			Name:      "reminders_total",
			Help:      "Reminder lifecycle events, by outcome",
		}, []string{"outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinichat",
			Name:      "active_sessions",
			Help:      "Open chat sessions",
		}),
	}
	m.reg.MustRegister(m.inputsTotal, m.bookingsTotal, m.remindersTotal, m.activeSessions)
	return m
}

func (m *ChatMetrics) ObserveInput(step string) {
	if m == nil {
		return
	}
	m.inputsTotal.WithLabelValues(step).Inc()
}

// ObserveBooking records a confirmation outcome: saved, conflict or error.
func (m *ChatMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

// ObserveReminder records scheduled, fired, confirmed or cancelled.
func (m *ChatMetrics) ObserveReminder(outcome string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *ChatMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// Handler serves the registry in the Prometheus text format.
func (m *ChatMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (m *ChatMetrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.reg
}
