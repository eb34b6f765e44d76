package ingest

import (
	"strings"
	"testing"

	"AethFlow/internal/domain/models"
	drepo "AethFlow/internal/domain/repository"
)

const sampleCSV = `Timestamp,Blue ATN1,Blue BC1
2024-03-01 00:00:00,0.000,100
2024-03-01 00:01:00,0.005,110
2024-03-01 00:02:00,0.012,120
`

func TestScannerReadsRows(t *testing.T) {
	s, err := NewScanner(strings.NewReader(sampleCSV), int64(len(sampleCSV)), models.ChannelBlue)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	var got []models.Reading
	for s.Next() {
		got = append(got, s.Reading())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(got))
	}
	if got[2].Attenuation != 0.012 {
		t.Fatalf("unexpected atn %v", got[2].Attenuation)
	}
	if got[0].RawBC == nil || *got[0].RawBC != 100 {
		t.Fatalf("unexpected rawBC %v", got[0].RawBC)
	}
	if s.RowsRead() != 3 || s.RowsSkipped() != 0 {
		t.Fatalf("unexpected counters: read=%d skipped=%d", s.RowsRead(), s.RowsSkipped())
	}
}

func TestScannerSkipsMalformedRows(t *testing.T) {
	input := `Timestamp,Blue ATN1,Blue BC1
2024-03-01 00:00:00,0.000,100
not a timestamp,0.005,110
2024-03-01 00:02:00,garbage,120
2024-03-01 00:03:00,0.020,130
`
	s, err := NewScanner(strings.NewReader(input), int64(len(input)), models.ChannelBlue)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	var n int
	for s.Next() {
		n++
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 valid readings, got %d", n)
	}
	if s.RowsSkipped() != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", s.RowsSkipped())
	}
}

func TestScannerMissingBCIsNotFatal(t *testing.T) {
	input := `Timestamp,Blue ATN1,Blue BC1
2024-03-01 00:00:00,0.000,NaN
`
	s, err := NewScanner(strings.NewReader(input), int64(len(input)), models.ChannelBlue)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	if !s.Next() {
		t.Fatalf("expected a reading, err=%v", s.Err())
	}
	if s.Reading().RawBC != nil {
		t.Fatalf("NaN concentration should map to nil")
	}
}

func TestScannerUnknownChannel(t *testing.T) {
	_, err := NewScanner(strings.NewReader(sampleCSV), int64(len(sampleCSV)), models.ChannelIR)
	if err == nil {
		t.Fatalf("expected schema error for IR channel")
	}
}

func TestScannerChunkProgress(t *testing.T) {
	var events []models.ProgressEvent
	reporter := drepo.Reporter(func(ev models.ProgressEvent) {
		events = append(events, ev)
	})

	s, err := NewScanner(strings.NewReader(sampleCSV), int64(len(sampleCSV)), models.ChannelBlue,
		WithChunkSize(2),
		WithReporter(reporter),
	)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	for s.Next() {
	}
	if len(events) == 0 {
		t.Fatalf("expected progress events")
	}
	last := events[len(events)-1]
	if last.Percent != 60 {
		t.Fatalf("expected final ingest percent 60, got %d", last.Percent)
	}
	for _, ev := range events {
		if ev.Percent < 5 || ev.Percent > 60 {
			t.Fatalf("ingest percent %d outside range", ev.Percent)
		}
	}
}
