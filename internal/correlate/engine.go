// Package correlate relates the processed BC series to external covariate
// series: nearest-timestamp joining within a tolerance, then Pearson and
// Spearman measures with two-tailed significance.
package correlate

import (
	"errors"
	"time"

	"AethFlow/internal/domain/models"
)

// Correlate computes one CorrelationResult per covariate present in the
// weather samples. Covariates with fewer than two valid pairs get the
// insufficient-data marker; covariates whose statistics are structurally
// uncomputable are returned in failed and omitted from results, without
// affecting the rest.
func Correlate(records []models.ProcessedRecord, samples []models.WeatherSample, tolerance time.Duration) (results map[string]models.CorrelationResult, failed map[string]error) {
	results = make(map[string]models.CorrelationResult)
	failed = make(map[string]error)

	for _, name := range covariatesPresent(samples) {
		x, y := Pairs(records, samples, tolerance, name)
		res, err := compute(name, x, y)
		if err != nil {
			failed[name] = err
			continue
		}
		results[name] = res
	}
	return results, failed
}

// Compare correlates the raw against the processed series of the output
// itself, a quality signal for how much smoothing ONA applied.
func Compare(records []models.ProcessedRecord) (models.CorrelationResult, error) {
	var x, y []float64
	for _, rec := range records {
		if rec.RawBC == nil || rec.ProcessedBC == nil {
			continue
		}
		x = append(x, *rec.RawBC)
		y = append(y, *rec.ProcessedBC)
	}
	return compute("comparison", x, y)
}

func compute(name string, x, y []float64) (models.CorrelationResult, error) {
	if len(x) < 2 {
		return models.CorrelationResult{SampleSize: len(x), Insufficient: true}, nil
	}

	pr, pp, err := Pearson(x, y)
	if err != nil {
		return models.CorrelationResult{}, computationErr(name, err)
	}
	sr, sp, err := Spearman(x, y)
	if err != nil {
		return models.CorrelationResult{}, computationErr(name, err)
	}

	return models.CorrelationResult{
		PearsonR:   pr,
		PearsonP:   pp,
		SpearmanR:  sr,
		SpearmanP:  sp,
		SampleSize: len(x),
	}, nil
}

func computationErr(name string, err error) error {
	if errors.Is(err, ErrZeroVariance) {
		return &models.ComputationError{Covariate: name, Detail: "zero variance in paired sample"}
	}
	return &models.ComputationError{Covariate: name, Detail: err.Error()}
}

func covariatesPresent(samples []models.WeatherSample) []string {
	seen := map[string]bool{}
	var names []string
	for _, s := range samples {
		for name := range s.Covariates {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
