package game

import (
	metrics "github.com/rcrowley/go-metrics"
)

// Metrics are the engine counters, registered under "bingo.".
type Metrics struct {
	registry         metrics.Registry
	Draws            metrics.Counter
	Purchases        metrics.Counter
	PurchaseFailures metrics.Counter
	CardsSold        metrics.Counter
	Winners          metrics.Counter
	Payouts          metrics.Counter
	PayoutFailures   metrics.Counter
	Refunds          metrics.Counter
	RefundFailures   metrics.Counter
	Lobbies          metrics.Gauge
	PurchaseTime     metrics.Timer
}

// NewMetrics registers the engine counters in r, or in a fresh registry
// when r is nil.
func NewMetrics(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &Metrics{
		registry:         r,
		Draws:            metrics.NewRegisteredCounter("bingo.draws", r),
		Purchases:        metrics.NewRegisteredCounter("bingo.purchases", r),
		PurchaseFailures: metrics.NewRegisteredCounter("bingo.purchase.failures", r),
		CardsSold:        metrics.NewRegisteredCounter("bingo.cards.sold", r),
		Winners:          metrics.NewRegisteredCounter("bingo.winners", r),
		Payouts:          metrics.NewRegisteredCounter("bingo.payouts", r),
		PayoutFailures:   metrics.NewRegisteredCounter("bingo.payout.failures", r),
		Refunds:          metrics.NewRegisteredCounter("bingo.refunds", r),
		RefundFailures:   metrics.NewRegisteredCounter("bingo.refund.failures", r),
		Lobbies:          metrics.NewRegisteredGauge("bingo.lobbies", r),
		PurchaseTime:     metrics.NewRegisteredTimer("bingo.purchase.time", r),
	}
}

// Registry is where the counters live, for exporting.
func (m *Metrics) Registry() metrics.Registry {
	return m.registry
}
