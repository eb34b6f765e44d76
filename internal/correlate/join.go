package correlate

import (
	"sort"
	"time"

	"AethFlow/internal/domain/models"
)

// Pairs joins processed records to the weather sample with the nearest
// timestamp within tolerance and extracts (processedBC, covariate) pairs.
// Records with no sample in range, or with either side missing, are excluded
// from the pairing only. Inputs are never mutated or reordered.
func Pairs(records []models.ProcessedRecord, samples []models.WeatherSample, tolerance time.Duration, covariate string) (x, y []float64) {
	if len(records) == 0 || len(samples) == 0 {
		return nil, nil
	}

	// sort an index view so the caller's slice stays untouched
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return samples[order[a]].Timestamp.Before(samples[order[b]].Timestamp)
	})

	for _, rec := range records {
		if rec.ProcessedBC == nil {
			continue
		}
		s, ok := nearest(samples, order, rec.Timestamp, tolerance)
		if !ok {
			continue
		}
		v, ok := s.Covariates[covariate]
		if !ok {
			continue
		}
		x = append(x, *rec.ProcessedBC)
		y = append(y, v)
	}
	return x, y
}

// nearest binary-searches the time-ordered index view for the closest sample.
func nearest(samples []models.WeatherSample, order []int, t time.Time, tolerance time.Duration) (models.WeatherSample, bool) {
	i := sort.Search(len(order), func(k int) bool {
		return !samples[order[k]].Timestamp.Before(t)
	})

	best := -1
	var bestDiff time.Duration
	for _, k := range []int{i - 1, i} {
		if k < 0 || k >= len(order) {
			continue
		}
		diff := absDuration(samples[order[k]].Timestamp.Sub(t))
		if best < 0 || diff < bestDiff {
			best = k
			bestDiff = diff
		}
	}
	if best < 0 || bestDiff > tolerance {
		return models.WeatherSample{}, false
	}
	return samples[order[best]], true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
