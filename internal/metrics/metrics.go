// Package metrics exposes Prometheus collectors fed by lifecycle hooks.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/aretw0/seee/pkg/domain"
)

// Metrics groups the service collectors.
type Metrics struct {
	turns       *prometheus.CounterVec
	crises      prometheus.Counter
	commissions *prometheus.CounterVec
	paid        prometheus.Counter
	payments    *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seee_dialogue_turns_total",
			Help: "Dialogue engine calls by action and outcome.",
		}, []string{"action", "outcome"}),
		crises: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seee_crisis_interceptions_total",
			Help: "Messages intercepted by the crisis lexicon.",
		}),
		commissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seee_commissions_total",
			Help: "Commission credits by up-line level.",
		}, []string{"level"}),
		paid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seee_commission_amount_total",
			Help: "Sum of credited commissions.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seee_payments_total",
			Help: "Processed payments by result.",
		}, []string{"result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seee_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.turns, m.crises, m.commissions, m.paid, m.payments, m.requests)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(e.Action, string(e.Outcome)).Inc()
		},
		OnCrisis: func(context.Context, *domain.CrisisEvent) {
			m.crises.Inc()
		},
		OnCommission: func(_ context.Context, e *domain.CommissionEvent) {
			m.commissions.WithLabelValues(strconv.Itoa(e.Level)).Inc()
			if amount, err := decimal.NewFromString(e.Amount); err == nil {
				m.paid.Add(amount.InexactFloat64())
			}
		},
		OnPayment: func(_ context.Context, e *domain.PaymentEvent) {
			result := "ok"
			if e.Err != nil {
				result = "rolled_back"
			}
			m.payments.WithLabelValues(result).Inc()
		},
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
