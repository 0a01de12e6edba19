package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "godraft_uploads_total",
		Help: "Total number of ingested uploads by result",
	}, []string{"result"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godraft_upload_bytes_total",
		Help: "Total number of bytes written by ingested uploads",
	})

	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "godraft_upload_duration_seconds",
		Help:    "Duration of upload ingestion in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)
