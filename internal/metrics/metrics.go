// Package metrics declares the prometheus collectors exported at
// /metrics.  Counters are registered on the default registry via
// promauto so services can increment them without wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckIns counts successful check-ins by method (QR, MANUAL) and
	// resulting status.
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_checkins_total",
		Help: "Successful check-ins by method and status.",
	}, []string{"method", "status"})

	// TokensIssued counts issued (and refreshed) check-in tokens.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_tokens_issued_total",
		Help: "Check-in tokens issued, including refreshes.",
	})

	// Settlements counts deposit settlements by terminal outcome.
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_settlements_total",
		Help: "Deposit settlements by outcome.",
	}, []string{"outcome"})
)
