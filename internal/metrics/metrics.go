package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbasket_order_transitions_total",
		Help: "Order status transitions applied, by resulting status.",
	}, []string{"status"})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbasket_orders_created_total",
		Help: "Orders accepted at checkout.",
	})

	OTPAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbasket_otp_attempts_total",
		Help: "OTP challenges forwarded to the auth provider.",
	})

	OTPRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbasket_otp_rejected_total",
		Help: "OTP challenges rejected locally by the daily limiter.",
	})

	ServiceabilityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbasket_serviceability_checks_total",
		Help: "Serviceability lookups, by outcome.",
	}, []string{"outcome"})
)
