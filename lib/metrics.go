package lib

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/* This file implements dev-ops telemetry for the pool node in the form of prometheus metrics */

const metricsPattern = "/metrics"

// Metrics represents a server that exposes Prometheus metrics
type Metrics struct {
	server   *http.Server         // the http prometheus server
	config   MetricsConfig        // the configuration
	registry *prometheus.Registry // the registry the collectors are registered to
	log      LoggerI              // the logger

	PoolMetrics       // reserve and supply telemetry
	DelegationMetrics // delegation and commit telemetry
	DispatchMetrics   // follow-up delivery telemetry
}

// PoolMetrics represents the telemetry of the pool state machine
type PoolMetrics struct {
	ReserveA    *prometheus.GaugeVec   // what's the token a reserve of each pool?
	ReserveB    *prometheus.GaugeVec   // what's the token b reserve of each pool?
	LpSupply    *prometheus.GaugeVec   // what's the lp token supply of each pool?
	Deposits    *prometheus.CounterVec // how many deposits moved through each phase?
	Withdrawals *prometheus.CounterVec // how many withdrawals moved through each phase?
	Failures    *prometheus.CounterVec // how many instructions failed, by error code?
}

// DelegationMetrics represents the telemetry of the delegation controller
type DelegationMetrics struct {
	DelegatedAccounts prometheus.Gauge   // how many accounts are currently delegated?
	Commits           prometheus.Counter // how many account commits happened?
	Undelegations     prometheus.Counter // how many accounts were released back to the base context?
}

// DispatchMetrics represents the telemetry of the follow-up outbox and worker
type DispatchMetrics struct {
	OutboxDepth       prometheus.Gauge   // how many intents are waiting for delivery?
	DeliverySuccesses prometheus.Counter // how many intents were delivered?
	DeliveryFailures  prometheus.Counter // how many deliveries gave up after their retries?
	DeliveryRetries   prometheus.Counter // how many delivery attempts were retried?
}

// NewMetricsServer() creates a new telemetry server
func NewMetricsServer(config MetricsConfig, log LoggerI) *Metrics {
	// each server owns its registry so several nodes (or tests) may live in one process
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	mux := http.NewServeMux()
	mux.Handle(metricsPattern, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Metrics{
		server:   &http.Server{Addr: config.PrometheusAddress, Handler: mux},
		config:   config,
		registry: registry,
		log:      log,
		PoolMetrics: PoolMetrics{
			ReserveA: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pool_reserve_a",
				Help: "Token a reserve of the pool",
			}, []string{"pool", "context"}),
			ReserveB: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pool_reserve_b",
				Help: "Token b reserve of the pool",
			}, []string{"pool", "context"}),
			LpSupply: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pool_lp_supply",
				Help: "LP token supply of the pool",
			}, []string{"pool", "context"}),
			Deposits: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "pool_deposits_total",
				Help: "Deposits by phase (escrow, apply, settle)",
			}, []string{"phase"}),
			Withdrawals: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "pool_withdrawals_total",
				Help: "Withdrawals by phase (escrow, apply, settle)",
			}, []string{"phase"}),
			Failures: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "pool_instruction_failures_total",
				Help: "Failed instructions by module and code",
			}, []string{"module", "code"}),
		},
		DelegationMetrics: DelegationMetrics{
			DelegatedAccounts: factory.NewGauge(prometheus.GaugeOpts{
				Name: "delegation_delegated_accounts",
				Help: "Number of accounts currently delegated",
			}),
			Commits: factory.NewCounter(prometheus.CounterOpts{
				Name: "delegation_commits_total",
				Help: "Number of account commits to the base context",
			}),
			Undelegations: factory.NewCounter(prometheus.CounterOpts{
				Name: "delegation_undelegations_total",
				Help: "Number of accounts released back to the base context",
			}),
		},
		DispatchMetrics: DispatchMetrics{
			OutboxDepth: factory.NewGauge(prometheus.GaugeOpts{
				Name: "dispatch_outbox_depth",
				Help: "Number of follow-up intents waiting for delivery",
			}),
			DeliverySuccesses: factory.NewCounter(prometheus.CounterOpts{
				Name: "dispatch_delivery_success_total",
				Help: "Number of delivered follow-up intents",
			}),
			DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
				Name: "dispatch_delivery_failure_total",
				Help: "Number of deliveries that exhausted their retries",
			}),
			DeliveryRetries: factory.NewCounter(prometheus.CounterOpts{
				Name: "dispatch_delivery_retry_total",
				Help: "Number of retried delivery attempts",
			}),
		},
	}
}

// Start() starts the telemetry server
func (m *Metrics) Start() {
	// exit if empty
	if m == nil {
		return
	}
	// if the metrics server is enabled
	if m.config.Enabled {
		go func() {
			m.log.Infof("Starting metrics server on %s", m.config.PrometheusAddress)
			// run the server
			if err := m.server.ListenAndServe(); err != nil {
				if err != http.ErrServerClosed {
					m.log.Errorf("Metrics server failed with err: %s", err.Error())
				}
			}
		}()
	}
}

// Stop() gracefully stops the telemetry server
func (m *Metrics) Stop() {
	// exit if empty
	if m == nil {
		return
	}
	// if the metrics server isn't enabled
	if m.config.Enabled {
		// shutdown the server
		if err := m.server.Shutdown(context.Background()); err != nil {
			m.log.Error(err.Error())
		}
	}
}

// Registry() exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// UpdatePool() is a setter for the reserve and supply gauges of a pool in a context
func (m *Metrics) UpdatePool(pool, context string, reserveA, reserveB, supply uint64) {
	// exit if empty
	if m == nil {
		return
	}
	m.ReserveA.WithLabelValues(pool, context).Set(float64(reserveA))
	m.ReserveB.WithLabelValues(pool, context).Set(float64(reserveB))
	m.LpSupply.WithLabelValues(pool, context).Set(float64(supply))
}

// IncDeposit() counts a deposit reaching a phase
func (m *Metrics) IncDeposit(phase string) {
	// exit if empty
	if m == nil {
		return
	}
	m.Deposits.WithLabelValues(phase).Inc()
}

// IncWithdraw() counts a withdrawal reaching a phase
func (m *Metrics) IncWithdraw(phase string) {
	// exit if empty
	if m == nil {
		return
	}
	m.Withdrawals.WithLabelValues(phase).Inc()
}

// IncFailure() counts a failed instruction by its error
func (m *Metrics) IncFailure(err ErrorI) {
	// exit if empty
	if m == nil || err == nil {
		return
	}
	m.Failures.WithLabelValues(string(err.Module()), FormatCode(err.Code())).Inc()
}

// UpdateDelegation() records commits, undelegations and the current number of delegated accounts
func (m *Metrics) UpdateDelegation(delegated int, commits, undelegations int) {
	// exit if empty
	if m == nil {
		return
	}
	m.DelegatedAccounts.Set(float64(delegated))
	m.Commits.Add(float64(commits))
	m.Undelegations.Add(float64(undelegations))
}

// UpdateOutbox() sets the number of intents waiting for delivery
func (m *Metrics) UpdateOutbox(depth int) {
	// exit if empty
	if m == nil {
		return
	}
	m.OutboxDepth.Set(float64(depth))
}

// UpdateDelivery() records the outcome of a single intent delivery
func (m *Metrics) UpdateDelivery(success bool, retries int) {
	// exit if empty
	if m == nil {
		return
	}
	if success {
		m.DeliverySuccesses.Inc()
	} else {
		m.DeliveryFailures.Inc()
	}
	m.DeliveryRetries.Add(float64(retries))
}
