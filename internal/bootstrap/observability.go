package bootstrap

import (
	"log/slog"

	"github.com/target/mmk-routeguard/config"
	"github.com/target/mmk-routeguard/internal/observability/metrics"
	"github.com/target/mmk-routeguard/internal/observability/statsd"
)

// ObservabilityContainer holds the metrics plumbing.
type ObservabilityContainer struct {
	Navigation  *metrics.NavigationMetrics
	MetricsSink *statsd.Client
}

// Close flushes and closes the metrics sink.
func (o ObservabilityContainer) Close() error {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink.Close()
}

func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	if !cfg.Metrics.IsEnabled() {
		return ObservabilityContainer{}
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		Logger:     obsLogger,
		GlobalTags: cfg.Metrics.GlobalTags(),
	})
	if err != nil {
		obsLogger.Error("failed to initialise statsd client", "error", err)
		return ObservabilityContainer{}
	}

	return ObservabilityContainer{
		Navigation:  metrics.NewNavigationMetrics(client),
		MetricsSink: client,
	}
}
