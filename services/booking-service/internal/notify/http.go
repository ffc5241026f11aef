package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hanguang-studio/salonbook/libs/events"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPNotifier calls notification-service's push endpoint directly. It is used when
// Kafka is not configured.
type HTTPNotifier struct {
	url  string
	http *http.Client
}

func NewHTTPNotifier(baseURL string) *HTTPNotifier {
	return &HTTPNotifier{
		url: strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/v1/line/notify",
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type notifyRequest struct {
	UserID          string `json:"userId"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	ServiceName     string `json:"serviceName"`
	CustomerName    string `json:"customerName,omitempty"`
}

func (n *HTTPNotifier) NotifyBooked(ctx context.Context, e events.AppointmentBooked) error {
	if e.LineUserID == "" {
		return errors.New("customer has no line user id")
	}
	raw, err := json.Marshal(notifyRequest{
		UserID:          e.LineUserID,
		AppointmentDate: e.Date,
		AppointmentTime: e.StartTime,
		ServiceName:     e.ServiceName,
		CustomerName:    e.CustomerName,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("notify endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
