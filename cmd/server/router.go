package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/underwriter/internal/infrastructure"
	"github.com/JaimeStill/underwriter/pkg/module"
)

// buildRouter registers the probes and metrics that live outside the API
// module. /readyz fails until startup hooks finish and both stores answer.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	}))

	router.Handle("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		if err := infra.Database.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		if err := infra.Broker.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	}))

	prometheus.MustRegister(collectors.NewDBStatsCollector(infra.Database.Connection(), "underwriter"))
	router.Handle("GET /metrics", promhttp.Handler())

	return router
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
