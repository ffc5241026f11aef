package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hanguang-studio/salonbook/libs/validation"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/availability"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/booking"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/customers"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

type stubCatalog struct {
	services map[string]model.Service
	err      error
}

func (s *stubCatalog) ListCourses(context.Context) ([]model.Service, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	return out, nil
}

func (s *stubCatalog) GetService(_ context.Context, id string) (model.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return model.Service{}, storage.ErrNotFound
	}
	return svc, nil
}

type stubBookings struct {
	byDate map[string][]model.Appointment
}

func (s *stubBookings) ListByDate(_ context.Context, date string) ([]model.Appointment, error) {
	return s.byDate[date], nil
}

type stubRegistry struct {
	created   bool
	err       error
	profile   customers.Profile
	lastReg   customers.Registration
	lastPhone string
}

func (s *stubRegistry) Register(_ context.Context, reg customers.Registration) (model.Customer, bool, error) {
	s.lastReg = reg
	if s.err != nil {
		return model.Customer{}, false, s.err
	}
	return model.Customer{Phone: reg.Phone, Name: reg.Name}, s.created, nil
}

func (s *stubRegistry) Lookup(_ context.Context, phone string, _ time.Time) (customers.Profile, error) {
	s.lastPhone = phone
	if s.err != nil {
		return customers.Profile{}, s.err
	}
	return s.profile, nil
}

type stubWriter struct {
	req booking.Request
	err error
}

func (s *stubWriter) CreateAppointment(_ context.Context, req booking.Request) (booking.Result, error) {
	s.req = req
	if s.err != nil {
		return booking.Result{}, s.err
	}
	return booking.Result{
		Appointment: model.Appointment{ID: "appt-1", Date: req.Date.Format(time.DateOnly), StartTime: req.Start.String(), Status: model.StatusPending},
		Warnings:    []string{"notification not sent: boom"},
	}, nil
}

type fixture struct {
	catalog  *stubCatalog
	bookings *stubBookings
	registry *stubRegistry
	writer   *stubWriter
	router   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		catalog: &stubCatalog{services: map[string]model.Service{
			"cut": {ID: "cut", Name: "剪髮", Category: model.CategoryCourse, DurationMinutes: 60, IsActive: true},
		}},
		bookings: &stubBookings{byDate: map[string][]model.Appointment{}},
		registry: &stubRegistry{},
		writer:   &stubWriter{},
	}
	h := NewPublicHandler(f.catalog, f.bookings, f.registry, f.writer, availability.DefaultPolicy(taipei), validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, taipei) }
	r := chi.NewRouter()
	h.Routes(r)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSlotsEndpoint(t *testing.T) {
	f := newFixture()
	f.bookings.byDate["2026-03-05"] = []model.Appointment{
		{ID: "a", Date: "2026-03-05", StartTime: "13:00", Status: model.StatusPending, DurationMinutes: 60},
	}

	rec := f.do(t, http.MethodGet, "/api/v1/public/slots?service_id=cut&date=2026-03-05", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Date      string   `json:"date"`
		ServiceID string   `json:"service_id"`
		Slots     []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-03-05", body.Date)
	assert.Equal(t, "cut", body.ServiceID)
	assert.Len(t, body.Slots, 11)
	assert.Contains(t, body.Slots, "11:30")
	assert.NotContains(t, body.Slots, "12:00")
	assert.NotContains(t, body.Slots, "14:00")
	assert.Contains(t, body.Slots, "14:30")
}

func TestSlotsEndpointErrors(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/public/slots?service_id=cut", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/public/slots?service_id=cut&date=03-05-2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/public/slots?service_id=nope&date=2026-03-05", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListServices(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/v1/public/services", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"剪髮"`)

	f.catalog.err = errors.New("db down")
	rec = f.do(t, http.MethodGet, "/api/v1/public/services", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRegisterCustomer(t *testing.T) {
	f := newFixture()
	f.registry.created = true

	rec := f.do(t, http.MethodPost, "/api/v1/public/customers", `{"phone":"0912345678","name":"林小姐","birthday":"1990-04-01","line_id":"lin"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "0912345678", f.registry.lastReg.Phone)

	f.registry.created = false
	rec = f.do(t, http.MethodPost, "/api/v1/public/customers", `{"phone":"0912345678","name":"林小姐","birthday":"1990-04-01","line_id":"lin"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.registry.err = &customers.ValidationError{Fields: map[string]string{"phone": "phone"}}
	rec = f.do(t, http.MethodPost, "/api/v1/public/customers", `{"phone":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone":"phone"`)

	f.registry.err = customers.ErrAlreadyRegistered
	rec = f.do(t, http.MethodPost, "/api/v1/public/customers", `{"phone":"0912345678"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/public/customers", `{"phone":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupCustomer(t *testing.T) {
	f := newFixture()
	f.registry.profile = customers.Profile{Customer: model.Customer{Phone: "0912345678"}}

	rec := f.do(t, http.MethodGet, "/api/v1/public/customers/0912345678", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0912345678", f.registry.lastPhone)
	assert.Contains(t, rec.Body.String(), `"upcoming_appointments":[]`)

	f.registry.err = customers.ErrNotFound
	rec = f.do(t, http.MethodGet, "/api/v1/public/customers/0900000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/public/appointments",
		`{"service_id":"cut","date":"2026-03-05","start_time":"10:00","customer_phone":"0912345678","customer_name":"林小姐","line_user_id":"U123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "cut", f.writer.req.Service.ID)
	assert.Equal(t, "U123", f.writer.req.LineUserID)
	assert.Equal(t, "10:00", f.writer.req.Start.String())
	assert.Equal(t, "2026-03-05", f.writer.req.Date.Format(time.DateOnly))
	assert.Equal(t, taipei, f.writer.req.Date.Location())

	var res booking.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "appt-1", res.Appointment.ID)
	assert.Equal(t, []string{"notification not sent: boom"}, res.Warnings)
}

func TestCreateAppointmentErrors(t *testing.T) {
	valid := `{"service_id":"cut","date":"2026-03-05","start_time":"10:00","customer_phone":"0912345678"}`

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "validation", body: `{"service_id":"cut","date":"2026/03/05","start_time":"25:00","customer_phone":"12"}`, status: http.StatusBadRequest},
		{name: "unknown service", body: `{"service_id":"perm","date":"2026-03-05","start_time":"10:00","customer_phone":"0912345678"}`, status: http.StatusNotFound},
		{name: "slot taken", body: valid, err: booking.ErrSlotTaken, status: http.StatusConflict},
		{name: "persist failure", body: valid, err: booking.ErrPersist, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.writer.err = tt.err
			rec := f.do(t, http.MethodPost, "/api/v1/public/appointments", tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCreateAppointmentValidationDetails(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/v1/public/appointments", `{"service_id":"cut","date":"2026/03/05","start_time":"10:00","customer_phone":"0912345678"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"date"`)
}
