// Package ona implements Optimized Noise-reduction Averaging: adaptive
// windows accumulate readings until the attenuation change crosses a
// threshold, then collapse into a single averaged record. Stable optical
// conditions produce long windows (more noise averaged out); rapid
// attenuation change produces short ones (time resolution preserved).
package ona

import (
	"fmt"
	"math"

	"AethFlow/internal/domain/models"
	drepo "AethFlow/internal/domain/repository"
)

// Source is the pull-based reading sequence the engine consumes.
type Source interface {
	Next() bool
	Reading() models.Reading
	Err() error
}

// Stats summarizes one engine run.
type Stats struct {
	Readings int64
	Windows  int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress attaches a reporter fired every `every` emitted windows.
// percent supplies the current overall percentage; the engine only carries
// it, window counting stays here.
func WithProgress(report drepo.Reporter, percent func() int, every int) Option {
	return func(e *Engine) {
		e.report = report
		e.percent = percent
		if every > 0 {
			e.every = every
		}
	}
}

// Engine is the window state machine. One engine processes one job; it is
// not safe for concurrent use and never needs to be.
type Engine struct {
	channel models.Channel
	atnMin  float64
	every   int
	report  drepo.Reporter
	percent func() int
}

// New creates an engine for one channel. atnMin must lie in (0, 1].
func New(channel models.Channel, atnMin float64, opts ...Option) (*Engine, error) {
	if atnMin <= 0 || atnMin > 1 {
		return nil, fmt.Errorf("atn_min must be in (0, 1], got %v", atnMin)
	}
	e := &Engine{channel: channel, atnMin: atnMin, every: 500}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// window is the transient accumulation state. It lives only between the
// reading that opens it and the one that closes it.
type window struct {
	startATN float64
	last     models.Reading
	bcSum    float64
	bcCount  int64
	size     int64
}

func (w *window) open(r models.Reading) {
	w.startATN = r.Attenuation
	w.size = 0
	w.bcSum = 0
	w.bcCount = 0
	w.append(r)
}

func (w *window) append(r models.Reading) {
	w.last = r
	w.size++
	if r.RawBC != nil {
		w.bcSum += *r.RawBC
		w.bcCount++
	}
}

// close collapses the window into its emitted record: the last reading is
// the representative point, the mean of present raw values the processed one.
func (w *window) close() models.ProcessedRecord {
	rec := models.ProcessedRecord{Timestamp: w.last.Timestamp}
	atn := w.last.Attenuation
	rec.Attenuation = &atn
	if w.last.RawBC != nil {
		raw := *w.last.RawBC
		rec.RawBC = &raw
	}
	if w.bcCount > 0 {
		mean := w.bcSum / float64(w.bcCount)
		rec.ProcessedBC = &mean
	}
	return rec
}

// Run consumes the source one pass and calls emit once per closed window,
// in timestamp order. The trailing open window is emitted even if the
// threshold was never reached, so no reading is silently dropped here.
// A source yielding zero readings is a DataQualityError.
func (e *Engine) Run(src Source, emit func(models.ProcessedRecord) error) (Stats, error) {
	var (
		stats Stats
		w     window
		open  bool
	)

	for src.Next() {
		r := src.Reading()
		stats.Readings++

		if !open {
			w.open(r)
			open = true
		} else {
			w.append(r)
		}

		if math.Abs(w.last.Attenuation-w.startATN) >= e.atnMin {
			if err := emit(w.close()); err != nil {
				return stats, err
			}
			stats.Windows++
			open = false
			e.reportProgress(stats.Windows)
		}
	}
	if err := src.Err(); err != nil {
		return stats, err
	}

	if open {
		if err := emit(w.close()); err != nil {
			return stats, err
		}
		stats.Windows++
	}

	if stats.Readings == 0 {
		return stats, &models.DataQualityError{Channel: e.channel}
	}
	return stats, nil
}

// Collect runs the engine and materializes the output sequence.
func (e *Engine) Collect(src Source) ([]models.ProcessedRecord, Stats, error) {
	var out []models.ProcessedRecord
	stats, err := e.Run(src, func(rec models.ProcessedRecord) error {
		out = append(out, rec)
		return nil
	})
	return out, stats, err
}

func (e *Engine) reportProgress(windows int64) {
	if e.report == nil || windows%int64(e.every) != 0 {
		return
	}
	pct := 0
	if e.percent != nil {
		pct = e.percent()
	}
	e.report(models.ProgressEvent{
		Percent: pct,
		Message: fmt.Sprintf("applying ONA: %d windows emitted", windows),
	})
}
