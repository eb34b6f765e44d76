package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"AethFlow/internal/domain/models"
	"AethFlow/pkg/util"
)

// ParseWeather reads an optional weather CSV into timestamped covariate
// samples. Columns not matching a known covariate are ignored; rows without
// a parseable timestamp are dropped. Weather files are small (hourly cadence)
// so the result is materialized.
func ParseWeather(r io.Reader) ([]models.WeatherSample, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read weather header: %w", err)
	}

	tsCol := -1
	covariates := map[int]string{}
	for i, h := range header {
		col := NormalizeHeader(h)
		lc := strings.ToLower(col)
		if tsCol < 0 && (lc == "timestamp" || strings.Contains(lc, "time") || strings.Contains(lc, "date")) {
			tsCol = i
			continue
		}
		if name := models.MatchCovariate(col); name != "" {
			covariates[i] = name
		}
	}
	if tsCol < 0 {
		return nil, &models.ConfigurationError{Detail: "weather file has no timestamp column"}
	}

	var samples []models.WeatherSample
	for {
		row, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, fmt.Errorf("read weather row: %w", err)
		}

		when, ok := util.ParseTime(cell(row, tsCol))
		if !ok {
			continue
		}
		sample := models.WeatherSample{Timestamp: when, Covariates: make(map[string]float64, len(covariates))}
		for i, name := range covariates {
			if v, ok := util.ParseFloat(cell(row, i)); ok {
				sample.Covariates[name] = v
			}
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
