package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hanguang-studio/salonbook/libs/httpx"
	"github.com/hanguang-studio/salonbook/libs/validation"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/availability"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/booking"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/customers"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/storage"
)

type Catalog interface {
	ListCourses(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
}

type DayBookings interface {
	ListByDate(ctx context.Context, date string) ([]model.Appointment, error)
}

type Registry interface {
	Register(ctx context.Context, reg customers.Registration) (model.Customer, bool, error)
	Lookup(ctx context.Context, phone string, now time.Time) (customers.Profile, error)
}

type AppointmentWriter interface {
	CreateAppointment(ctx context.Context, req booking.Request) (booking.Result, error)
}

type PublicHandler struct {
	catalog  Catalog
	bookings DayBookings
	registry Registry
	writer   AppointmentWriter
	policy   availability.Policy
	validate *validation.Validator
	logger   *slog.Logger
	now      func() time.Time
}

func NewPublicHandler(catalog Catalog, bookings DayBookings, registry Registry, writer AppointmentWriter, policy availability.Policy, v *validation.Validator, logger *slog.Logger) *PublicHandler {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &PublicHandler{
		catalog:  catalog,
		bookings: bookings,
		registry: registry,
		writer:   writer,
		policy:   policy,
		validate: v,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes mounts the customer-facing API under /api/v1/public.
func (h *PublicHandler) Routes(r chi.Router) {
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/services", h.ListServices)
		r.Get("/slots", h.Slots)
		r.Post("/customers", h.RegisterCustomer)
		r.Get("/customers/{phone}", h.LookupCustomer)
		r.Post("/appointments", h.CreateAppointment)
	})
}

func (h *PublicHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		h.logger.Error("list services failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load services", nil)
		return
	}
	if services == nil {
		services = []model.Service{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}

type slotsResponse struct {
	Date      string               `json:"date"`
	ServiceID string               `json:"service_id"`
	Slots     []availability.Clock `json:"slots"`
}

func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	rawDate := strings.TrimSpace(r.URL.Query().Get("date"))
	if serviceID == "" || rawDate == "" {
		httpx.WriteError(w, http.StatusBadRequest, "service_id and date are required", nil)
		return
	}
	day, err := time.ParseInLocation(time.DateOnly, rawDate, h.policy.Location)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid date", map[string]string{"date": "date"})
		return
	}

	ctx := r.Context()
	svc, ok := h.service(ctx, w, serviceID)
	if !ok {
		return
	}
	appts, err := h.bookings.ListByDate(ctx, rawDate)
	if err != nil {
		h.logger.Error("list appointments failed", "date", rawDate, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load appointments", nil)
		return
	}

	slots := h.policy.Slots(day, &svc, availability.FromAppointments(appts), h.now())
	if slots == nil {
		slots = []availability.Clock{}
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Date: rawDate, ServiceID: serviceID, Slots: slots})
}

func (h *PublicHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req customers.Registration
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	c, created, err := h.registry.Register(r.Context(), req)
	if err != nil {
		var verr *customers.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.WriteError(w, http.StatusBadRequest, "validation error", verr.Fields)
		case errors.Is(err, customers.ErrAlreadyRegistered):
			httpx.WriteError(w, http.StatusConflict, "此手機號碼已被註冊", nil)
		default:
			h.logger.Error("register customer failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to save customer", nil)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, map[string]any{"customer": c, "created": created})
}

func (h *PublicHandler) LookupCustomer(w http.ResponseWriter, r *http.Request) {
	profile, err := h.registry.Lookup(r.Context(), chi.URLParam(r, "phone"), h.now())
	if err != nil {
		var verr *customers.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.WriteError(w, http.StatusBadRequest, "請輸入有效的手機號碼", verr.Fields)
		case errors.Is(err, customers.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "customer not found", nil)
		default:
			h.logger.Error("lookup customer failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to load customer", nil)
		}
		return
	}
	if profile.Appointments == nil {
		profile.Appointments = []model.Appointment{}
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

type createAppointmentRequest struct {
	ServiceID     string `json:"service_id" validate:"required"`
	Date          string `json:"date" validate:"required,date"`
	StartTime     string `json:"start_time" validate:"required,clock"`
	CustomerPhone string `json:"customer_phone" validate:"required,phone"`
	CustomerName  string `json:"customer_name" validate:"max=50"`
	LineUserID    string `json:"line_user_id" validate:"max=64"`
}

func (h *PublicHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.LineUserID = strings.TrimSpace(req.LineUserID)
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation error", validation.Details(err))
		return
	}

	day, err := time.ParseInLocation(time.DateOnly, req.Date, h.policy.Location)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid date", nil)
		return
	}
	start, err := availability.ParseClock(req.StartTime)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid start_time", nil)
		return
	}

	ctx := r.Context()
	svc, ok := h.service(ctx, w, req.ServiceID)
	if !ok {
		return
	}

	res, err := h.writer.CreateAppointment(ctx, booking.Request{
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		LineUserID:    req.LineUserID,
		Service:       svc,
		Date:          day,
		Start:         start,
	})
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		httpx.WriteError(w, http.StatusConflict, "此時段已被預約，請選擇其他時段", nil)
		return
	case err != nil:
		h.logger.Error("create appointment failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "預約失敗，請稍後再試", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *PublicHandler) service(ctx context.Context, w http.ResponseWriter, id string) (model.Service, bool) {
	svc, err := h.catalog.GetService(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "service not found", nil)
		return model.Service{}, false
	case err != nil:
		h.logger.Error("get service failed", "service_id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load service", nil)
		return model.Service{}, false
	}
	return svc, true
}
