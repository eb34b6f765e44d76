package ona

import (
	"errors"
	"testing"
	"time"

	"AethFlow/internal/domain/models"
)

type sliceSource struct {
	readings []models.Reading
	i        int
	err      error
}

func (s *sliceSource) Next() bool {
	if s.i >= len(s.readings) {
		return false
	}
	s.i++
	return true
}

func (s *sliceSource) Reading() models.Reading { return s.readings[s.i-1] }
func (s *sliceSource) Err() error              { return s.err }

func readings(atn []float64, bc []float64) []models.Reading {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Reading, len(atn))
	for i := range atn {
		out[i] = models.Reading{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Attenuation: atn[i],
		}
		if bc != nil {
			v := bc[i]
			out[i].RawBC = &v
		}
	}
	return out
}

func TestEngineWindowing(t *testing.T) {
	src := &sliceSource{readings: readings(
		[]float64{0.000, 0.005, 0.012, 0.020, 0.030},
		[]float64{100, 110, 120, 130, 140},
	)}
	e, err := New(models.ChannelBlue, 0.01)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	recs, stats, err := e.Collect(src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Readings != 5 {
		t.Fatalf("expected 5 readings, got %d", stats.Readings)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	// first window: readings 1..3, closes when |0.012-0.000| >= 0.01
	if got := *recs[0].ProcessedBC; got != 110 {
		t.Fatalf("window 1 processedBC: expected 110, got %v", got)
	}
	if got := *recs[0].Attenuation; got != 0.012 {
		t.Fatalf("window 1 atn: expected 0.012, got %v", got)
	}
	if got := *recs[0].RawBC; got != 120 {
		t.Fatalf("window 1 rawBC: expected 120, got %v", got)
	}

	// second window: readings 4..5, seeded by the reading after the close
	if got := *recs[1].ProcessedBC; got != 135 {
		t.Fatalf("window 2 processedBC: expected 135, got %v", got)
	}
	if got := *recs[1].Attenuation; got != 0.030 {
		t.Fatalf("window 2 atn: expected 0.030, got %v", got)
	}
}

func TestEngineTrailingWindow(t *testing.T) {
	// threshold never reached: everything collapses into one trailing record
	src := &sliceSource{readings: readings(
		[]float64{0.100, 0.101, 0.102},
		[]float64{10, 20, 30},
	)}
	e, _ := New(models.ChannelBlue, 0.5)

	recs, _, err := e.Collect(src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 trailing record, got %d", len(recs))
	}
	if got := *recs[0].ProcessedBC; got != 20 {
		t.Fatalf("expected mean 20, got %v", got)
	}
	if got := *recs[0].Attenuation; got != 0.102 {
		t.Fatalf("expected last atn, got %v", got)
	}
}

func TestEngineNegativeAttenuationDelta(t *testing.T) {
	// windows close on |delta|, falling attenuation counts too
	src := &sliceSource{readings: readings(
		[]float64{0.500, 0.480},
		[]float64{1, 2},
	)}
	e, _ := New(models.ChannelBlue, 0.01)

	recs, _, err := e.Collect(src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
}

func TestEngineMissingRawBC(t *testing.T) {
	rs := readings([]float64{0.000, 0.020}, []float64{100, 200})
	rs[1].RawBC = nil
	e, _ := New(models.ChannelBlue, 0.01)

	recs, _, err := e.Collect(&sliceSource{readings: rs})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	// mean over present values only
	if got := *recs[0].ProcessedBC; got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if recs[0].RawBC != nil {
		t.Fatalf("rawBC of last reading is missing, expected nil")
	}
}

func TestEngineAllRawBCMissing(t *testing.T) {
	rs := readings([]float64{0.000, 0.020}, nil)
	e, _ := New(models.ChannelBlue, 0.01)

	recs, _, err := e.Collect(&sliceSource{readings: rs})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].ProcessedBC != nil {
		t.Fatalf("expected nil processedBC when no raw values present")
	}
}

func TestEngineEmptySource(t *testing.T) {
	e, _ := New(models.ChannelBlue, 0.01)
	_, _, err := e.Collect(&sliceSource{})
	var dq *models.DataQualityError
	if !errors.As(err, &dq) {
		t.Fatalf("expected DataQualityError, got %v", err)
	}
}

func TestEngineInvalidThreshold(t *testing.T) {
	for _, v := range []float64{0, -0.5, 1.5} {
		if _, err := New(models.ChannelBlue, v); err == nil {
			t.Fatalf("expected error for atn_min %v", v)
		}
	}
}

func TestEngineOutputNeverLonger(t *testing.T) {
	src := &sliceSource{readings: readings(
		[]float64{0, 0.02, 0.04, 0.06, 0.08, 0.10},
		[]float64{1, 2, 3, 4, 5, 6},
	)}
	e, _ := New(models.ChannelBlue, 0.01)

	recs, stats, err := e.Collect(src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if int64(len(recs)) > stats.Readings {
		t.Fatalf("emitted %d records from %d readings", len(recs), stats.Readings)
	}
}

func TestEngineDeterministic(t *testing.T) {
	atn := []float64{0, 0.004, 0.011, 0.013, 0.027, 0.040}
	bc := []float64{5, 6, 7, 8, 9, 10}
	e, _ := New(models.ChannelBlue, 0.01)

	first, _, err := e.Collect(&sliceSource{readings: readings(atn, bc)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, _, err := e.Collect(&sliceSource{readings: readings(atn, bc)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic record count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i].ProcessedBC != *second[i].ProcessedBC {
			t.Fatalf("record %d differs between runs", i)
		}
	}
}

func TestEngineSourceError(t *testing.T) {
	src := &sliceSource{
		readings: readings([]float64{0.1}, []float64{1}),
		err:      errors.New("broken input"),
	}
	e, _ := New(models.ChannelBlue, 0.01)
	if _, _, err := e.Collect(src); err == nil {
		t.Fatalf("expected source error to propagate")
	}
}
