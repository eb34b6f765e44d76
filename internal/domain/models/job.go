package models

import "time"

// JobStatus is the lifecycle of one processing job.
type JobStatus string

const (
	StatusQueued     JobStatus = "Queued"
	StatusProcessing JobStatus = "Processing"
	StatusCompleted  JobStatus = "Completed"
	StatusError      JobStatus = "Error"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ProgressEvent is published by the pipeline at coarse milestones.
type ProgressEvent struct {
	Percent  int    `json:"percent"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
}

// JobState is what the registry stores per job id.
type JobState struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Result    *JobResult `json:"result,omitempty"`
}

// JobResult is the assembled output surface of a completed job.
type JobResult struct {
	Wavelength   Channel                      `json:"wavelength"`
	ATNMin       float64                      `json:"atn_min"`
	RowsRead     int64                        `json:"rows_read"`
	RowsSkipped  int64                        `json:"rows_skipped"`
	Records      []ProcessedRecord            `json:"processed_data"`
	TotalRecords int                          `json:"total_records"`
	Comparison   *CorrelationResult           `json:"comparison_stats,omitempty"`
	Weather      map[string]CorrelationResult `json:"weather_correlations,omitempty"`
	DownloadPath string                       `json:"download_path"`
}

// JobEvent is the lifecycle notification published to the event bus.
type JobEvent struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Wavelength  Channel   `json:"wavelength"`
	Message     string    `json:"message"`
	RowsRead    int64     `json:"rows_read"`
	RowsSkipped int64     `json:"rows_skipped"`
	Records     int       `json:"records"`
	Timestamp   time.Time `json:"timestamp"`
}
