// Package metrics exposes Prometheus instruments for funding, proof of work,
// watched balances and the development faucet.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
)

const Namespace = "web3j"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	solveDuration   *prometheus.HistogramVec
	solveAttempts   *prometheus.CounterVec
	fundings        *prometheus.CounterVec
	fundingDuration *prometheus.HistogramVec
	balance         *prometheus.GaugeVec
	health          *prometheus.GaugeVec
	grants          *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "faucet",
			Name:      "requests_total",
			Help:      "Faucet HTTP requests by operation and status code (0 for transport failures).",
		}, []string{"network", "op", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "faucet",
			Name:      "request_duration_seconds",
			Help:      "Faucet HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network", "op"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "pow",
			Name:      "solve_duration_seconds",
			Help:      "Time spent searching for a proof of work nonce.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"network", "outcome"}),
		solveAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pow",
			Name:      "attempts_total",
			Help:      "Nonces hashed while solving proof of work challenges.",
		}, []string{"network"}),
		fundings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "faucet",
			Name:      "fundings_total",
			Help:      "Funding requests by method and outcome.",
		}, []string{"network", "method", "outcome"}),
		fundingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "faucet",
			Name:      "funding_duration_seconds",
			Help:      "End to end duration of a funding request.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}, []string{"network", "method"}),
		balance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "watch",
			Name:      "balance",
			Help:      "Last observed balance of a watched account in its display unit.",
		}, []string{"network", "account", "unit"}),
		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "watch",
			Name:      "health",
			Help:      "1 when the last check of a watched account succeeded, 0 otherwise.",
		}, []string{"network", "account"}),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "devfaucet",
			Name:      "grants_total",
			Help:      "Requests handled by the development faucet.",
		}, []string{"method", "outcome"}),
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.solveDuration,
		m.solveAttempts,
		m.fundings,
		m.fundingDuration,
		m.balance,
		m.health,
		m.grants,
	)
	return m
}

func (m *Metrics) ObserveRequest(network, op string, statusCode int, d time.Duration) {
	m.requests.WithLabelValues(network, op, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(network, op).Observe(d.Seconds())
}

func (m *Metrics) ObserveSolve(network string, attempts uint64, d time.Duration, err error) {
	m.solveAttempts.WithLabelValues(network).Add(float64(attempts))
	m.solveDuration.WithLabelValues(network, outcome(err)).Observe(d.Seconds())
}

func (m *Metrics) ObserveFunding(network, method string, d time.Duration, err error) {
	m.fundings.WithLabelValues(network, method, outcome(err)).Inc()
	m.fundingDuration.WithLabelValues(network, method).Observe(d.Seconds())
}

func (m *Metrics) SetBalance(network, account, unit string, value float64) {
	m.balance.WithLabelValues(network, account, unit).Set(value)
	m.health.WithLabelValues(network, account).Set(1)
}

func (m *Metrics) SetUnhealthy(network, account string) {
	m.health.WithLabelValues(network, account).Set(0)
}

func (m *Metrics) ObserveGrant(method string, err error) {
	m.grants.WithLabelValues(method, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, pow.ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeFailure
	}
}
