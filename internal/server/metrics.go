package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payqr_scans_total",
		Help: "Number of scan requests processed, by outcome.",
	}, []string{"outcome"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payqr_scan_duration_seconds",
		Help:    "End-to-end scan duration.",
		Buckets: prometheus.DefBuckets,
	})

	codesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payqr_codes_decoded_total",
		Help: "Number of QR codes decoded across all scans.",
	})

	paymentsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payqr_payments_parsed_total",
		Help: "Number of payment payloads parsed successfully.",
	})
)
