package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"AethFlow/internal/domain/models"
	drepo "AethFlow/internal/domain/repository"
	"AethFlow/pkg/util"
)

// Ingestion owns 5%..60% of the job's progress range.
const (
	progressStart = 5
	progressEnd   = 60
)

// countingReader tracks consumed bytes for progress reporting.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithChunkSize sets how many rows form one ingestion chunk.
func WithChunkSize(rows int) ScannerOption {
	return func(s *Scanner) {
		if rows > 0 {
			s.chunkSize = rows
		}
	}
}

// WithReporter attaches a progress reporter called once per chunk.
func WithReporter(r drepo.Reporter) ScannerOption {
	return func(s *Scanner) { s.report = r }
}

// Scanner streams validated readings for one channel out of a raw CSV
// stream. It is single-pass and holds only the current row in memory, so
// input size does not affect memory use.
type Scanner struct {
	cr         *csv.Reader
	counter    *countingReader
	schema     *Schema
	chunkSize  int
	totalBytes int64
	report     drepo.Reporter

	cur     models.Reading
	err     error
	rows    int64
	skipped int64
	inChunk int
	chunk   int
}

// NewScanner reads the header, resolves the channel schema, and returns a
// scanner positioned before the first data row. totalBytes may be zero when
// the input size is unknown; progress is then reported without scaling.
func NewScanner(r io.Reader, totalBytes int64, channel models.Channel, opts ...ScannerOption) (*Scanner, error) {
	counter := &countingReader{r: r}
	cr := csv.NewReader(bufio.NewReaderSize(counter, 64*1024))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	schema, err := ResolveSchema(header, channel)
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		cr:         cr,
		counter:    counter,
		schema:     schema,
		chunkSize:  100000,
		totalBytes: totalBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next advances to the next valid reading. It returns false at end of input
// or on a non-recoverable error; check Err afterwards.
func (s *Scanner) Next() bool {
	for {
		row, err := s.cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.reportProgress(progressEnd)
				return false
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// malformed row, skip and keep going
				s.skipped++
				continue
			}
			s.err = fmt.Errorf("read row: %w", err)
			return false
		}

		s.rows++
		s.bumpChunk()

		reading, ok := s.parseRow(row)
		if !ok {
			s.skipped++
			continue
		}
		s.cur = reading
		return true
	}
}

// Reading returns the reading positioned by the last successful Next.
func (s *Scanner) Reading() models.Reading { return s.cur }

// Err returns the first non-recoverable error, if any.
func (s *Scanner) Err() error { return s.err }

// RowsRead returns the number of data rows consumed so far.
func (s *Scanner) RowsRead() int64 { return s.rows }

// RowsSkipped returns how many rows were dropped for data-quality reasons.
func (s *Scanner) RowsSkipped() int64 { return s.skipped }

// Fraction returns how much of the input has been consumed, in [0, 1].
// Returns 0 when the total size is unknown.
func (s *Scanner) Fraction() float64 {
	if s.totalBytes <= 0 {
		return 0
	}
	frac := float64(s.counter.n.Load()) / float64(s.totalBytes)
	if frac > 1 {
		frac = 1
	}
	return frac
}

func (s *Scanner) parseRow(row []string) (models.Reading, bool) {
	var ts string
	if s.schema.Timestamp >= 0 {
		ts = cell(row, s.schema.Timestamp)
	} else {
		ts = util.JoinDateTime(cell(row, s.schema.Date), cell(row, s.schema.Time))
	}
	when, ok := util.ParseTime(ts)
	if !ok {
		return models.Reading{}, false
	}

	atn, ok := util.ParseFloat(cell(row, s.schema.ATN))
	if !ok {
		return models.Reading{}, false
	}

	r := models.Reading{Timestamp: when, Attenuation: atn}
	if bc, ok := util.ParseFloat(cell(row, s.schema.BC)); ok {
		r.RawBC = &bc
	}
	return r, true
}

func (s *Scanner) bumpChunk() {
	s.inChunk++
	if s.inChunk < s.chunkSize {
		return
	}
	s.inChunk = 0
	s.chunk++

	pct := progressStart
	if s.totalBytes > 0 {
		frac := float64(s.counter.n.Load()) / float64(s.totalBytes)
		pct = progressStart + int(frac*float64(progressEnd-progressStart))
		if pct > progressEnd {
			pct = progressEnd
		}
	}
	s.reportProgress(pct)
}

func (s *Scanner) reportProgress(pct int) {
	if s.report == nil {
		return
	}
	s.report(models.ProgressEvent{
		Percent: pct,
		Message: fmt.Sprintf("reading data: %d rows (%d skipped)", s.rows, s.skipped),
	})
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
