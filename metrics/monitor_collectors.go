package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MonitorMetrics struct {
	runningMonitors        prometheus.Gauge
	forksDetected          prometheus.Counter
	headersObserved        *prometheus.CounterVec
	recoveryFailures       *prometheus.CounterVec
	unknownSigners         *prometheus.CounterVec
	lastObservedHeight     *prometheus.GaugeVec
	secondsSinceLastHeader *prometheus.GaugeVec
	// time keeper
	mu                 sync.Mutex
	lastHeaderByClient map[string]*time.Time
}

// Declare a package-level variable for sync.Once to ensure metrics are registered only once
var monitorMetricsRegisterOnce sync.Once

// Declare a variable to hold the instance of MonitorMetrics
var monitorMetricsInstance *MonitorMetrics

// NewMonitorMetrics initializes and registers the metrics, using sync.Once to ensure it's done only once
func NewMonitorMetrics() *MonitorMetrics {
	monitorMetricsRegisterOnce.Do(func() {
		monitorMetricsInstance = &MonitorMetrics{
			runningMonitors: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "monitor_running_total",
				Help: "Current number of node monitors that are running",
			}),
			forksDetected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "monitor_forks_detected_total",
				Help: "Distinct block hashes reported at an already observed height",
			}),
			headersObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "monitor_headers_observed_total",
				Help: "Headers received from a node",
			}, []string{"client"}),
			recoveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "monitor_signer_recovery_failures_total",
				Help: "Headers whose signer could not be recovered",
			}, []string{"client"}),
			unknownSigners: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "monitor_unknown_signers_total",
				Help: "Headers signed by an account outside the validator list",
			}, []string{"client"}),
			lastObservedHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "monitor_last_observed_height",
				Help: "The most recent block height reported by a node",
			}, []string{"client"}),
			secondsSinceLastHeader: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "monitor_seconds_since_last_header",
				Help: "Seconds since a node last delivered a header",
			}, []string{"client"}),
		}

		prometheus.MustRegister(monitorMetricsInstance.runningMonitors)
		prometheus.MustRegister(monitorMetricsInstance.forksDetected)
		prometheus.MustRegister(monitorMetricsInstance.headersObserved)
		prometheus.MustRegister(monitorMetricsInstance.recoveryFailures)
		prometheus.MustRegister(monitorMetricsInstance.unknownSigners)
		prometheus.MustRegister(monitorMetricsInstance.lastObservedHeight)
		prometheus.MustRegister(monitorMetricsInstance.secondsSinceLastHeader)
	})
	return monitorMetricsInstance
}

func (mm *MonitorMetrics) IncrementRunningMonitors() {
	mm.runningMonitors.Inc()
}

func (mm *MonitorMetrics) DecrementRunningMonitors() {
	mm.runningMonitors.Dec()
}

func (mm *MonitorMetrics) IncrementForksDetected() {
	mm.forksDetected.Inc()
}

// RecordHeader records a header delivered by a node
func (mm *MonitorMetrics) RecordHeader(client string, height uint64) {
	mm.headersObserved.WithLabelValues(client).Inc()
	mm.lastObservedHeight.WithLabelValues(client).Set(float64(height))

	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()

	if mm.lastHeaderByClient == nil {
		mm.lastHeaderByClient = make(map[string]*time.Time)
	}
	mm.lastHeaderByClient[client] = &now
}

func (mm *MonitorMetrics) IncrementRecoveryFailures(client string) {
	mm.recoveryFailures.WithLabelValues(client).Inc()
}

func (mm *MonitorMetrics) IncrementUnknownSigners(client string) {
	mm.unknownSigners.WithLabelValues(client).Inc()
}

// UpdateMonitorMetrics refreshes the header staleness of every client seen so far
func (mm *MonitorMetrics) UpdateMonitorMetrics() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	for client, last := range mm.lastHeaderByClient {
		mm.secondsSinceLastHeader.WithLabelValues(client).Set(time.Since(*last).Seconds())
	}
}
