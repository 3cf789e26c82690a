// Package metrics provides Prometheus metrics collection for DittoDrive.
//
// All metrics are optional. If InitRegistry is never called, constructors
// return nil and the nil-safe helpers in this package become no-ops, so the
// drive services run with zero metrics overhead.
//
// Usage:
//
//	metrics.InitRegistry()
//	driveMetrics := metrics.NewDriveMetrics()
//	svc := content.NewService(store, cfg, driveMetrics)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all DittoDrive metrics.
	// Written once under registryOnce.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Safe to call multiple times; subsequent calls are ignored. The Go runtime
// and process collectors are registered alongside the drive metrics.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
