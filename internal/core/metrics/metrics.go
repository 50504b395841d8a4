// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mfm_uploads_total",
			Help: "Number of medical files stored, by file type",
		},
		[]string{"file_type"},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mfm_upload_bytes_total",
			Help: "Bytes of medical file content stored",
		},
	)

	ProvisionedFoldersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mfm_provisioned_folders_total",
			Help: "Folders created by the provisioner, by level",
		},
		[]string{"level"},
	)

	BackgroundJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mfm_background_jobs_total",
			Help: "Background jobs processed, by task type and outcome",
		},
		[]string{"task", "outcome"},
	)
)
