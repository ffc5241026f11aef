package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hanguang-studio/salonbook/libs/httpx"
	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/push"
)

const maxWebhookBody = 1 << 20

type ConfirmationSender interface {
	SendBookingConfirmation(ctx context.Context, b push.Booking) error
}

type EventHandler interface {
	HandleEvents(ctx context.Context, evs []line.Event)
}

type LineHandler struct {
	sender        ConfirmationSender
	events        EventHandler
	configured    bool
	channelSecret string
	skipVerify    bool
	logger        *slog.Logger
}

type LineConfig struct {
	// Configured reports whether a channel access token is present.
	Configured    bool
	ChannelSecret string
	SkipVerify    bool
}

func NewLineHandler(sender ConfirmationSender, events EventHandler, cfg LineConfig, logger *slog.Logger) *LineHandler {
	return &LineHandler{
		sender:        sender,
		events:        events,
		configured:    cfg.Configured,
		channelSecret: cfg.ChannelSecret,
		skipVerify:    cfg.SkipVerify,
		logger:        logger,
	}
}

func (h *LineHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/line/notify", h.Notify)
	mux.HandleFunc("/api/v1/line/webhook", h.Webhook)
}

type notifyRequest struct {
	UserID          string `json:"userId"`
	AppointmentID   string `json:"appointmentId"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	ServiceName     string `json:"serviceName"`
	CustomerName    string `json:"customerName"`
}

func (h *LineHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	if !h.configured {
		h.logger.Error("notify called without LINE_ACCESS_TOKEN")
		httpx.WriteError(w, http.StatusInternalServerError, "LINE_ACCESS_TOKEN not configured", nil)
		return
	}

	var req notifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	missing := map[string]string{}
	for field, v := range map[string]string{
		"userId":          req.UserID,
		"appointmentDate": req.AppointmentDate,
		"appointmentTime": req.AppointmentTime,
		"serviceName":     req.ServiceName,
	} {
		if strings.TrimSpace(v) == "" {
			missing[field] = "required"
		}
	}
	if len(missing) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "missing required fields", missing)
		return
	}

	err := h.sender.SendBookingConfirmation(r.Context(), push.Booking{
		AppointmentID: req.AppointmentID,
		UserID:        req.UserID,
		Details: line.BookingDetails{
			CustomerName: req.CustomerName,
			Date:         req.AppointmentDate,
			Time:         req.AppointmentTime,
			ServiceName:  req.ServiceName,
		},
	})
	if err != nil {
		var apiErr *line.APIError
		if errors.As(err, &apiErr) {
			httpx.WriteError(w, apiErr.StatusCode, "Failed to send LINE message", map[string]string{"line": apiErr.Body})
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to send LINE message", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification sent successfully"})
}

func (h *LineHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Webhook is active"})
		return
	case http.MethodPost:
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read body", nil)
		return
	}
	if !h.skipVerify {
		if err := line.VerifySignature(h.channelSecret, body, r.Header.Get(line.SignatureHeader)); err != nil {
			h.logger.Warn("webhook signature rejected")
			httpx.WriteError(w, http.StatusUnauthorized, "invalid signature", nil)
			return
		}
	}

	if !h.configured {
		h.logger.Error("webhook called without LINE_ACCESS_TOKEN")
		httpx.WriteError(w, http.StatusInternalServerError, "LINE_ACCESS_TOKEN not configured", nil)
		return
	}

	wb, err := line.ParseWebhook(body)
	if err != nil {
		h.logger.Warn("webhook body rejected", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid webhook body", nil)
		return
	}
	h.events.HandleEvents(r.Context(), wb.Events)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
