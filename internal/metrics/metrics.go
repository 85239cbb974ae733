// Package metrics exposes Prometheus counters for the alert pipeline.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/fall-guard/internal/logger"
)

var (
	// AlertsRaised counts raise calls accepted by the mailbox.
	AlertsRaised = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fallguard_alerts_raised_total",
		Help: "Alerts written to the mailbox",
	})

	// AlertsReinforced counts raises that overwrote an unconsumed alert.
	AlertsReinforced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fallguard_alerts_reinforced_total",
		Help: "Alerts that replaced an unconsumed alert in the mailbox",
	})

	// DeliveriesDropped counts raises that could not reach the mailbox.
	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fallguard_deliveries_dropped_total",
		Help: "Alerts dropped because the mailbox was unavailable",
	})

	// DuplicatesSuppressed counts deliveries ignored while an alert was pending.
	DuplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fallguard_duplicates_suppressed_total",
		Help: "Alerts ignored because an equivalent alert was pending",
	})

	// Resolutions counts resolved alerts.
	// Labels: outcome ("CONFIRMED", "DISMISSED"), reason ("user", "timeout").
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fallguard_alert_resolutions_total",
		Help: "Resolved alerts by outcome and reason",
	}, []string{"outcome", "reason"})

	// PermissionResults counts OS answers per permission kind.
	PermissionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fallguard_permission_results_total",
		Help: "Permission answers by kind and result",
	}, []string{"kind", "result"})

	// StoreErrors counts failed record store operations.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fallguard_store_errors_total",
		Help: "Failed record store operations by collection and operation",
	}, []string{"collection", "operation"})
)

// shutdownTimeout bounds the graceful stop of the metrics listener.
const shutdownTimeout = 3 * time.Second

// Serve exposes /metrics on address until ctx is canceled.
func Serve(ctx context.Context, address string) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	logger.InfoKV(ctx, "Metrics listening", "metrics_address", lis.Addr().String())

	if err = server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
