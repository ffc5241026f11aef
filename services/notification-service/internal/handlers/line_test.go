package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "channel-secret"

type fakeSender struct {
	got []push.Booking
	err error
}

func (f *fakeSender) SendBookingConfirmation(_ context.Context, b push.Booking) error {
	f.got = append(f.got, b)
	return f.err
}

type fakeEvents struct {
	got []line.Event
}

func (f *fakeEvents) HandleEvents(_ context.Context, evs []line.Event) {
	f.got = append(f.got, evs...)
}

func newMux(sender *fakeSender, evs *fakeEvents, cfg LineConfig) *http.ServeMux {
	mux := http.NewServeMux()
	NewLineHandler(sender, evs, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	return mux
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestNotify(t *testing.T) {
	sender := &fakeSender{}
	mux := newMux(sender, &fakeEvents{}, LineConfig{Configured: true})

	body := `{"userId":"U1","appointmentDate":"2026-03-05","appointmentTime":"10:00","serviceName":"剪髮"}`
	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/line/notify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Notification sent successfully"}`, rec.Body.String())
	require.Len(t, sender.got, 1)
	assert.Equal(t, "U1", sender.got[0].UserID)
	assert.Equal(t, "10:00", sender.got[0].Details.Time)
}

func TestNotifyErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		mux := newMux(&fakeSender{}, &fakeEvents{}, LineConfig{})
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/line/notify", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "LINE_ACCESS_TOKEN not configured")
	})
	t.Run("missing fields", func(t *testing.T) {
		mux := newMux(&fakeSender{}, &fakeEvents{}, LineConfig{Configured: true})
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/line/notify", strings.NewReader(`{"userId":"U1"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"serviceName":"required"`)
	})
	t.Run("upstream status", func(t *testing.T) {
		sender := &fakeSender{err: &line.APIError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"}}
		mux := newMux(sender, &fakeEvents{}, LineConfig{Configured: true})
		body := `{"userId":"U1","appointmentDate":"2026-03-05","appointmentTime":"10:00","serviceName":"剪髮"}`
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/line/notify", strings.NewReader(body)))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "rate limited")
	})
	t.Run("method", func(t *testing.T) {
		mux := newMux(&fakeSender{}, &fakeEvents{}, LineConfig{Configured: true})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/line/notify", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestWebhookSignature(t *testing.T) {
	evs := &fakeEvents{}
	mux := newMux(&fakeSender{}, evs, LineConfig{Configured: true, ChannelSecret: secret})
	body := `{"destination":"x","events":[{"type":"postback","replyToken":"r","source":{"type":"user","userId":"U1"},"postback":{"data":"action=confirm&appointment_id=a-1"}}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/line/webhook", strings.NewReader(body))
	req.Header.Set(line.SignatureHeader, line.Sign(secret, []byte(body)))
	rec := serve(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Len(t, evs.got, 1)
	assert.Equal(t, "U1", evs.got[0].Source.UserID)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/line/webhook", strings.NewReader(body))
	req.Header.Set(line.SignatureHeader, line.Sign("other", []byte(body)))
	rec = serve(mux, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, evs.got, 1)
}

func TestWebhookSkipVerifyAndMethods(t *testing.T) {
	evs := &fakeEvents{}
	mux := newMux(&fakeSender{}, evs, LineConfig{Configured: true, SkipVerify: true})

	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/line/webhook", strings.NewReader(`{"events":[]}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/line/webhook", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Webhook is active"}`, rec.Body.String())

	rec = serve(mux, httptest.NewRequest(http.MethodPut, "/api/v1/line/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/line/webhook", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookNotConfigured(t *testing.T) {
	evs := &fakeEvents{}
	mux := newMux(&fakeSender{}, evs, LineConfig{ChannelSecret: secret})
	body := `{"events":[{"type":"postback","replyToken":"r","source":{"type":"user","userId":"U1"},"postback":{"data":"action=cancel&appointment_id=a-1"}}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/line/webhook", strings.NewReader(body))
	req.Header.Set(line.SignatureHeader, line.Sign(secret, []byte(body)))
	rec := serve(mux, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "LINE_ACCESS_TOKEN not configured")
	assert.Empty(t, evs.got)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/line/webhook", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
