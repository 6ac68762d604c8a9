package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jzucker2/ziggy/internal/conntrack"
	"github.com/jzucker2/ziggy/internal/version"
)

// Deps are the collaborators the HTTP surface reads from. Everything
// here is a read-only view; the server mutates nothing.
type Deps struct {
	Registry    *prometheus.Registry
	Environment string
	Ready       func(context.Context) bool
	Connection  func() conntrack.Snapshot
}

// Handler builds the full route table.
func Handler(deps Deps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if deps.Ready != nil && !deps.Ready(ctx) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		snapshot := deps.Connection()
		writeJSON(w, map[string]any{
			"status":      "healthy",
			"timestamp":   float64(time.Now().UnixNano()) / float64(time.Second),
			"environment": deps.Environment,
			"app": map[string]any{
				"name":    version.Name,
				"version": version.Version,
			},
			"mqtt": map[string]any{
				"connected": snapshot.Connected,
			},
		})
	})
	mux.HandleFunc("/mqtt/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"enabled":         true,
			"connected":       deps.Connection().Connected,
			"connection_info": deps.Connection(),
		})
	})
	return mux
}

// Start serves the route table in the background.
func Start(addr string, deps Deps) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: Handler(deps),
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
