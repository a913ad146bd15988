// Package metrics exposes prometheus counters for bot activity. The
// listener is optional; without METRICS_ADDR the counters still accumulate
// but nothing serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telebox/telebox/internal/logger"
)

var (
	UpdatesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telebox_updates_received_total",
		Help: "Telegram updates received from the long-poll loop",
	})

	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telebox_commands_handled_total",
		Help: "Commands dispatched to feature handlers, labeled by rule name",
	}, []string{"rule"})

	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telebox_handler_errors_total",
		Help: "Handler failures surfaced to users as retry guidance",
	}, []string{"rule"})

	RejectedUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telebox_rejected_updates_total",
		Help: "Updates rejected before dispatch, labeled by reason",
	}, []string{"reason"})
)

// Serve starts the metrics listener when addr is non-empty. Runs until the
// process exits; call it from a goroutine.
func Serve(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("metrics listener starting", map[string]interface{}{"addr": addr})
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener stopped", map[string]interface{}{"error": err.Error()})
	}
}
