package usecase

import (
	"testing"
	"time"

	"AethFlow/internal/domain/models"
)

func makeRecords(n int) []models.ProcessedRecord {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.ProcessedRecord, n)
	for i := range out {
		v := float64(i)
		out[i] = models.ProcessedRecord{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			ProcessedBC: &v,
		}
	}
	return out
}

func TestSampleRecordsSmallInputUntouched(t *testing.T) {
	recs := makeRecords(50)
	got := sampleRecords(recs)
	if len(got) != 50 {
		t.Fatalf("small inputs must pass through, got %d", len(got))
	}
}

func TestSampleRecordsTargetSize(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{500, 100},   // floor of 100
		{5000, 500},  // n/10
		{50000, 1000}, // cap of 1000
	}
	for _, tc := range cases {
		got := sampleRecords(makeRecords(tc.n))
		if len(got) != tc.want {
			t.Fatalf("n=%d: expected %d sampled, got %d", tc.n, tc.want, len(got))
		}
	}
}

func TestSampleRecordsSpansRange(t *testing.T) {
	recs := makeRecords(5000)
	got := sampleRecords(recs)
	if *got[0].ProcessedBC != 0 {
		t.Fatalf("first record missing")
	}
	if *got[len(got)-1].ProcessedBC != 4999 {
		t.Fatalf("last record missing")
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("sampled records out of order at %d", i)
		}
	}
}

func TestAssembleResult(t *testing.T) {
	recs := makeRecords(5000)
	result := &models.JobResult{}
	assembleResult(result, recs)
	if result.TotalRecords != 5000 {
		t.Fatalf("total records: %d", result.TotalRecords)
	}
	if len(result.Records) != 500 {
		t.Fatalf("sampled records: %d", len(result.Records))
	}
}
