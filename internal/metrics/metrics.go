package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors for harness activity. Registered via
// Register; every helper no-ops until then.
var (
	regOK atomic.Bool

	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halcheck",
			Subsystem: "checks",
			Name:      "total",
			Help:      "Conformance checks executed, by check name and result.",
		}, []string{"check", "result"},
	)
	creationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halcheck",
			Subsystem: "registry",
			Name:      "creations_total",
			Help:      "Registry create operations observed, by operation and returned status.",
		}, []string{"op", "status"},
	)
	registryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halcheck",
			Subsystem: "registry",
			Name:      "requests_total",
			Help:      "Requests served by the reference registry, by endpoint.",
		}, []string{"endpoint"},
	)
	patchInserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halcheck",
			Subsystem: "vintf",
			Name:      "inserts_total",
			Help:      "Manifest entries inserted, by file base name.",
		}, []string{"file"},
	)
	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halcheck",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Service-under-test launches.",
		}, []string{"name"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halcheck",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Service-under-test stops (including teardown no-ops).",
		}, []string{"name"},
	)
)

// Register registers all metrics with the provided registerer. Safe to call
// multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{checksTotal, creationsTotal, registryRequests, patchInserts, serviceStarts, serviceStops}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

func IncCheck(check string, passed bool) {
	if regOK.Load() {
		result := "fail"
		if passed {
			result = "pass"
		}
		checksTotal.WithLabelValues(check, result).Inc()
	}
}

func IncCreation(op, status string) {
	if regOK.Load() {
		creationsTotal.WithLabelValues(op, status).Inc()
	}
}

func IncRegistryRequest(endpoint string) {
	if regOK.Load() {
		registryRequests.WithLabelValues(endpoint).Inc()
	}
}

func IncPatchInsert(file string) {
	if regOK.Load() {
		patchInserts.WithLabelValues(file).Inc()
	}
}

func IncServiceStart(name string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(name).Inc()
	}
}

func IncServiceStop(name string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(name).Inc()
	}
}
