package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"AethFlow/internal/correlate"
	"AethFlow/internal/domain/models"
	drepo "AethFlow/internal/domain/repository"
	"AethFlow/internal/ingest"
	"AethFlow/internal/ona"
	applogger "AethFlow/pkg/logger"
)

// Pipeline progress milestones. Ingestion owns 5..60 internally; the
// averaging stage maps input consumption into its own band.
const (
	pctStart       = 5
	pctONAStart    = 70
	pctONAEnd      = 85
	pctCorrelating = 90
	pctWriting     = 95
)

// ProcessRequest is everything one job needs to run.
type ProcessRequest struct {
	JobID       string  `json:"job_id"`
	DataPath    string  `json:"data_path"`
	WeatherPath string  `json:"weather_path,omitempty"`
	ATNMin      float64 `json:"atn_min"`
	Wavelength  string  `json:"wavelength"`
}

// PipelineConfig carries the processing knobs the pipeline itself needs.
type PipelineConfig struct {
	ChunkSize     int
	JoinTolerance time.Duration
	ProgressEvery int
}

// Pipeline runs one processing job end to end: ingest, average, correlate,
// persist, publish. It is stateless across jobs and safe for concurrent use.
type Pipeline struct {
	registry drepo.JobRegistry
	files    drepo.FileStore
	archive  drepo.RecordArchive // nil when archiving is disabled
	events   drepo.EventPublisher
	metrics  drepo.Metrics
	l        *applogger.Logger
	cfg      PipelineConfig
}

func NewPipeline(
	registry drepo.JobRegistry,
	files drepo.FileStore,
	archive drepo.RecordArchive,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.JoinTolerance <= 0 {
		cfg.JoinTolerance = 5 * time.Minute
	}
	return &Pipeline{
		registry: registry,
		files:    files,
		archive:  archive,
		events:   events,
		metrics:  metrics,
		l:        l,
		cfg:      cfg,
	}
}

// Run executes one job. All errors are terminal for the job and recorded in
// the registry; the returned error is for the caller's dead-letter handling.
func (p *Pipeline) Run(ctx context.Context, req ProcessRequest) error {
	start := time.Now()
	p.metrics.RecordJobStarted()

	channel, err := models.ParseChannel(req.Wavelength)
	if err != nil {
		return p.fail(ctx, req.JobID, start, "config", err)
	}

	reporter := p.progressReporter(ctx, req.JobID)
	reporter(models.ProgressEvent{Percent: pctStart, Message: "reading input file"})

	records, rowsRead, rowsSkipped, err := p.ingestAndAverage(req, channel, reporter)
	if err != nil {
		return p.fail(ctx, req.JobID, start, errorKind(err), err)
	}
	p.metrics.RecordRowsRead(rowsRead)
	p.metrics.RecordRowsSkipped(rowsSkipped)
	p.metrics.RecordWindowsEmitted(int64(len(records)))
	reporter(models.ProgressEvent{
		Percent: pctONAEnd,
		Message: fmt.Sprintf("averaging complete: %d records from %d rows (%d skipped)", len(records), rowsRead, rowsSkipped),
	})

	result := &models.JobResult{
		Wavelength:  channel,
		ATNMin:      req.ATNMin,
		RowsRead:    rowsRead,
		RowsSkipped: rowsSkipped,
	}

	reporter(models.ProgressEvent{Percent: pctCorrelating, Message: "computing correlations"})
	p.correlateStage(req, records, result)

	reporter(models.ProgressEvent{Percent: pctWriting, Message: "writing results"})
	resultName := req.JobID + ".csv"
	if _, err := p.files.WriteResult(resultName, records); err != nil {
		return p.fail(ctx, req.JobID, start, "storage", err)
	}
	result.DownloadPath = "/api/download/" + resultName

	if p.archive != nil {
		archStart := time.Now()
		if err := p.archive.ArchiveRecords(ctx, req.JobID, channel, records); err != nil {
			// archive is best effort; the job result is already on disk
			p.metrics.RecordError("archive")
			p.l.Warn("record archive failed",
				applogger.String("job_id", req.JobID),
				applogger.Error(err),
			)
		} else {
			p.metrics.RecordStageLatency("archive", time.Since(archStart).Seconds())
		}
	}

	assembleResult(result, records)

	if err := p.registry.SetResult(ctx, req.JobID, result); err != nil {
		return fmt.Errorf("set result: %w", err)
	}
	p.publishEvent(ctx, req.JobID, models.StatusCompleted, channel, "completed", result)
	p.metrics.RecordJobFinished("completed", time.Since(start).Seconds())

	p.l.Info("job completed",
		applogger.String("job_id", req.JobID),
		applogger.String("wavelength", string(channel)),
		applogger.Int64("rows_read", rowsRead),
		applogger.Int64("rows_skipped", rowsSkipped),
		applogger.Int("records", result.TotalRecords),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// ingestAndAverage runs the fused single pass: the scanner streams readings
// straight into the averaging engine, so only closed windows accumulate.
func (p *Pipeline) ingestAndAverage(req ProcessRequest, channel models.Channel, reporter drepo.Reporter) ([]models.ProcessedRecord, int64, int64, error) {
	f, err := os.Open(req.DataPath)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var total int64
	if fi, err := f.Stat(); err == nil {
		total = fi.Size()
	}

	scanner, err := ingest.NewScanner(f, total, channel,
		ingest.WithChunkSize(p.cfg.ChunkSize),
		ingest.WithReporter(reporter),
	)
	if err != nil {
		return nil, 0, 0, err
	}

	engine, err := ona.New(channel, req.ATNMin,
		ona.WithProgress(reporter, func() int {
			return pctONAStart + int(scanner.Fraction()*float64(pctONAEnd-pctONAStart))
		}, p.cfg.ProgressEvery),
	)
	if err != nil {
		return nil, 0, 0, &models.ConfigurationError{Detail: err.Error()}
	}

	stageStart := time.Now()
	records, _, err := engine.Collect(scanner)
	if err != nil {
		var dq *models.DataQualityError
		if errors.As(err, &dq) {
			dq.Skipped = scanner.RowsSkipped()
		}
		return nil, scanner.RowsRead(), scanner.RowsSkipped(), err
	}
	p.metrics.RecordStageLatency("ingest_average", time.Since(stageStart).Seconds())

	return records, scanner.RowsRead(), scanner.RowsSkipped(), nil
}

// correlateStage fills in raw-vs-processed comparison and, when a weather
// file is present, the per-covariate correlations. Covariate failures
// degrade to omissions, never job failures.
func (p *Pipeline) correlateStage(req ProcessRequest, records []models.ProcessedRecord, result *models.JobResult) {
	if cmp, err := correlate.Compare(records); err == nil {
		result.Comparison = &cmp
	} else {
		p.metrics.RecordError("comparison")
		p.l.Warn("raw/processed comparison failed",
			applogger.String("job_id", req.JobID),
			applogger.Error(err),
		)
	}

	if req.WeatherPath == "" {
		return
	}
	wf, err := os.Open(req.WeatherPath)
	if err != nil {
		p.metrics.RecordError("weather")
		p.l.Warn("weather file unreadable",
			applogger.String("job_id", req.JobID),
			applogger.Error(err),
		)
		return
	}
	defer wf.Close()

	samples, err := ingest.ParseWeather(wf)
	if err != nil {
		p.metrics.RecordError("weather")
		p.l.Warn("weather file unparsable",
			applogger.String("job_id", req.JobID),
			applogger.Error(err),
		)
		return
	}

	results, failed := correlate.Correlate(records, samples, p.cfg.JoinTolerance)
	for cov, cerr := range failed {
		p.metrics.RecordError("correlation")
		p.l.Warn("covariate correlation failed",
			applogger.String("job_id", req.JobID),
			applogger.String("covariate", cov),
			applogger.Error(cerr),
		)
	}
	if len(results) > 0 {
		result.Weather = results
	}
}

// progressReporter forwards events into the registry. Percent is clamped
// monotonic so interleaved stage events never walk the bar backwards.
func (p *Pipeline) progressReporter(ctx context.Context, jobID string) drepo.Reporter {
	high := 0
	return func(ev models.ProgressEvent) {
		if ev.Percent < high {
			ev.Percent = high
		} else {
			high = ev.Percent
		}
		if err := p.registry.SetProgress(ctx, jobID, models.StatusProcessing, ev.Percent, ev.Message); err != nil {
			p.l.Warn("progress update failed",
				applogger.String("job_id", jobID),
				applogger.Error(err),
			)
		}
	}
}

func (p *Pipeline) fail(ctx context.Context, jobID string, start time.Time, kind string, err error) error {
	p.metrics.RecordError(kind)
	p.metrics.RecordJobFinished("error", time.Since(start).Seconds())
	if rerr := p.registry.Fail(ctx, jobID, err.Error()); rerr != nil {
		p.l.Error("failed to record job failure",
			applogger.String("job_id", jobID),
			applogger.Error(rerr),
		)
	}
	p.publishEvent(ctx, jobID, models.StatusError, "", err.Error(), nil)
	p.l.Error("job failed",
		applogger.String("job_id", jobID),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
	return err
}

func (p *Pipeline) publishEvent(ctx context.Context, jobID string, status models.JobStatus, channel models.Channel, message string, result *models.JobResult) {
	if p.events == nil {
		return
	}
	ev := models.JobEvent{
		JobID:      jobID,
		Status:     status,
		Wavelength: channel,
		Message:    message,
		Timestamp:  time.Now(),
	}
	if result != nil {
		ev.RowsRead = result.RowsRead
		ev.RowsSkipped = result.RowsSkipped
		ev.Records = result.TotalRecords
	}
	if err := p.events.PublishJobEvent(ctx, ev); err != nil {
		p.metrics.RecordError("events")
		p.l.Warn("job event publish failed",
			applogger.String("job_id", jobID),
			applogger.Error(err),
		)
	}
}

func errorKind(err error) string {
	var (
		cfgErr *models.ConfigurationError
		dqErr  *models.DataQualityError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &dqErr):
		return "data_quality"
	default:
		return "internal"
	}
}
