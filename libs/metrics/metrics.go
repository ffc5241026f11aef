package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salonbook"

// Registry is a per-service registry with the Go runtime and process collectors attached.
func Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Booking counts appointment writes and their best-effort side effects.
// A nil *Booking is valid and records nothing.
type Booking struct {
	appointments *prometheus.CounterVec
	sideEffects  *prometheus.CounterVec
}

func NewBooking(reg prometheus.Registerer) *Booking {
	m := &Booking{
		appointments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Appointment create attempts by result",
		}, []string{"result"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "side_effects_total",
			Help:      "Post-booking notification and reminder side effects by outcome",
		}, []string{"effect", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointments, m.sideEffects)
	return m
}

func (m *Booking) ObserveAppointment(result string) {
	if m == nil {
		return
	}
	m.appointments.WithLabelValues(result).Inc()
}

func (m *Booking) ObserveSideEffect(effect string, err error) {
	if m == nil {
		return
	}
	m.sideEffects.WithLabelValues(effect, statusLabel(err)).Inc()
}

// Messaging counts LINE pushes, webhook actions and reminder dispatch outcomes.
type Messaging struct {
	pushes   *prometheus.CounterVec
	actions  *prometheus.CounterVec
	dispatch *prometheus.CounterVec
}

func NewMessaging(reg prometheus.Registerer) *Messaging {
	m := &Messaging{
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "line",
			Name:      "push_total",
			Help:      "LINE push messages by kind and status",
		}, []string{"kind", "status"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "line",
			Name:      "webhook_actions_total",
			Help:      "Webhook postback actions by action and outcome",
		}, []string{"action", "outcome"}),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "dispatched_total",
			Help:      "Reminder tasks handled per dispatch run by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.pushes, m.actions, m.dispatch)
	return m
}

func (m *Messaging) ObservePush(kind string, err error) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(kind, statusLabel(err)).Inc()
}

func (m *Messaging) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

func (m *Messaging) ObserveDispatch(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dispatch.WithLabelValues(result).Add(float64(n))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
