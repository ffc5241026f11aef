package main

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/hanguang-studio/salonbook/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// upstreams are the base URLs of the services behind the gateway.
type upstreams struct {
	Booking      string
	Notification string
	Scheduler    string
}

func registerRoutes(mux *http.ServeMux, up upstreams, logger *slog.Logger) error {
	routes := []struct {
		prefix string
		target string
	}{
		{"/api/v1/public", up.Booking},
		{"/api/v1/line", up.Notification},
		{"/api/v1/reminders", up.Scheduler},
	}
	transport := otelhttp.NewTransport(http.DefaultTransport)
	for _, rt := range routes {
		u, err := url.Parse(rt.target)
		if err != nil {
			return err
		}
		proxy := httputil.NewSingleHostReverseProxy(u)
		proxy.Transport = transport
		proxy.ErrorHandler = proxyErrorHandler(logger, rt.prefix)
		registerProxy(mux, rt.prefix, proxy)
	}
	return nil
}

func proxyErrorHandler(logger *slog.Logger, prefix string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream unavailable", "prefix", prefix, "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "upstream unavailable", nil)
	}
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}
