package ingest

import (
	"strings"
	"testing"
)

func TestParseWeather(t *testing.T) {
	input := `Timestamp,Temperature (C),Relative Humidity %,Wind Speed (m/s),Pressure (hPa),Station ID
2024-03-01 00:00:00,21.5,40,3.2,1013,A1
2024-03-01 01:00:00,22.0,42,2.8,1012,A1
`
	samples, err := ParseWeather(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	s := samples[0]
	if s.Covariates["temperature"] != 21.5 {
		t.Fatalf("temperature: %v", s.Covariates["temperature"])
	}
	if s.Covariates["humidity"] != 40 {
		t.Fatalf("humidity: %v", s.Covariates["humidity"])
	}
	if s.Covariates["windSpeed"] != 3.2 {
		t.Fatalf("windSpeed: %v", s.Covariates["windSpeed"])
	}
	if s.Covariates["pressure"] != 1013 {
		t.Fatalf("pressure: %v", s.Covariates["pressure"])
	}
	if _, ok := s.Covariates["stationId"]; ok {
		t.Fatalf("unknown columns must be ignored")
	}
}

func TestParseWeatherDropsBadRows(t *testing.T) {
	input := `Timestamp,Temperature
2024-03-01 00:00:00,20
never,21
`
	samples, err := ParseWeather(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
}

func TestParseWeatherNoTimestamp(t *testing.T) {
	input := `Temperature,Humidity
20,40
`
	if _, err := ParseWeather(strings.NewReader(input)); err == nil {
		t.Fatalf("expected error for missing timestamp column")
	}
}
