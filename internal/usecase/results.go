package usecase

import "AethFlow/internal/domain/models"

// assembleResult attaches the record payload to the result. Large outputs
// are downsampled for the status response; the full series is always in the
// downloadable CSV.
func assembleResult(result *models.JobResult, records []models.ProcessedRecord) {
	result.TotalRecords = len(records)
	result.Records = sampleRecords(records)
}

// sampleRecords returns an evenly spaced subset sized min(1000, max(100,
// n/10)). First and last records are always included so the sampled series
// spans the full time range.
func sampleRecords(records []models.ProcessedRecord) []models.ProcessedRecord {
	n := len(records)
	target := n / 10
	if target < 100 {
		target = 100
	}
	if target > 1000 {
		target = 1000
	}
	if n <= target {
		return records
	}

	out := make([]models.ProcessedRecord, 0, target)
	step := float64(n-1) / float64(target-1)
	for i := 0; i < target; i++ {
		out = append(out, records[int(float64(i)*step+0.5)])
	}
	out[len(out)-1] = records[n-1]
	return out
}
