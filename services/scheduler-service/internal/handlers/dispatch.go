package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hanguang-studio/salonbook/libs/httpx"
	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/services/scheduler-service/internal/reminders"
)

type Dispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (reminders.Summary, error)
}

type DispatchHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewDispatchHandler(d Dispatcher, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{dispatcher: d, logger: logger, now: time.Now}
}

// Register mounts the dispatch endpoint behind the shared bearer secret.
func (h *DispatchHandler) Register(mux *http.ServeMux, secret string) {
	mux.Handle("/api/v1/reminders/dispatch", httpx.RequireBearer(secret)(http.HandlerFunc(h.Dispatch)))
}

type dispatchResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	QueryDate string            `json:"query_date"`
	Results   reminders.Summary `json:"results"`
}

func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	sum, err := h.dispatcher.DispatchDue(r.Context(), h.now())
	if err != nil {
		h.logger.Error("reminder dispatch failed", "date", sum.Date, "err", err)
		msg := "Failed to query reminders"
		if errors.Is(err, line.ErrNotConfigured) {
			msg = "LINE_ACCESS_TOKEN not configured"
		}
		httpx.WriteError(w, http.StatusInternalServerError, msg, map[string]string{"details": err.Error()})
		return
	}

	msg := "No reminders to send"
	if sum.Total > 0 {
		msg = fmt.Sprintf("Processed %d reminders", sum.Total)
	}
	httpx.WriteJSON(w, http.StatusOK, dispatchResponse{
		Success:   true,
		Message:   msg,
		QueryDate: sum.Date,
		Results:   sum,
	})
}
