package repository

import (
	"context"
	"io"

	"AethFlow/internal/domain/models"
)

// Reporter receives progress events from the pipeline. Implementations must
// return quickly and must never panic into the pipeline; the caller does not
// wait for delivery.
type Reporter func(models.ProgressEvent)

// JobRegistry tracks job lifecycle state. Implementations serialize status
// transitions per job id.
type JobRegistry interface {
	Create(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.JobState, error)
	SetProgress(ctx context.Context, id string, status models.JobStatus, percent int, message string) error
	SetResult(ctx context.Context, id string, result *models.JobResult) error
	Fail(ctx context.Context, id string, message string) error
}

// FileStore persists uploaded inputs and processed outputs.
type FileStore interface {
	SaveUpload(name string, r io.Reader) (path string, err error)
	WriteResult(name string, records []models.ProcessedRecord) (path string, err error)
	OpenResult(name string) (io.ReadCloser, error)
	ResultPath(name string) (string, error)
}

// RecordArchive persists processed records to long-term storage.
type RecordArchive interface {
	ArchiveRecords(ctx context.Context, jobID string, wavelength models.Channel, records []models.ProcessedRecord) error
	Close() error
}

// EventPublisher emits job lifecycle events to the event bus.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, ev models.JobEvent) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordJobStarted()
	RecordJobFinished(status string, seconds float64)
	RecordRowsRead(n int64)
	RecordRowsSkipped(n int64)
	RecordWindowsEmitted(n int64)
	RecordStageLatency(stage string, seconds float64)
	RecordError(kind string)
}
