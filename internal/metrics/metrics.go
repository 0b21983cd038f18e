// Package metrics — счётчики Prometheus для /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedrop_uploads_total",
		Help: "Number of successfully ingested files.",
	})
	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedrop_upload_bytes_total",
		Help: "Total bytes written into the blob repository.",
	})
	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedrop_downloads_total",
		Help: "Number of served downloads.",
	})
	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedrop_sweep_runs_total",
		Help: "Number of completed expiry sweeps.",
	})
	RecordsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedrop_records_expired_total",
		Help: "Number of records removed by the expiry sweeper.",
	})
)
