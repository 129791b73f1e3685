package sealevel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Metrics = prometheus.NewRegistry()

var (
	nativeInvocations = promauto.With(Metrics).NewCounterVec(prometheus.CounterOpts{
		Namespace: "extmint",
		Name:      "native_invocations_total",
		Help:      "Native program invocations by program and result",
	}, []string{"program", "result"})

	transactionComputeUnits = promauto.With(Metrics).NewHistogram(prometheus.HistogramOpts{
		Namespace: "extmint",
		Name:      "transaction_compute_units",
		Help:      "Compute units consumed per transaction",
		Buckets:   prometheus.LinearBuckets(0, 5000, 10),
	})
)

func observeInvocation(program string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	nativeInvocations.WithLabelValues(program, result).Inc()
}
