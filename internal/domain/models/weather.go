package models

import (
	"strings"
	"time"
)

// Covariate names recognized by the correlation engine.
const (
	CovariateTemperature = "temperature"
	CovariateHumidity    = "humidity"
	CovariateWindSpeed   = "windSpeed"
	CovariatePressure    = "pressure"
)

// covariatePatterns maps each known covariate to the column-name fragments
// that identify it in weather exports.
var covariatePatterns = map[string][]string{
	CovariateTemperature: {"temperaturec", "temperature", "tempc", "temp"},
	CovariateHumidity:    {"relativehumiditypercent", "humidity", "rh", "relhumid"},
	CovariateWindSpeed:   {"windspeedkmh", "windspeed", "wind"},
	CovariatePressure:    {"pressurehpa", "pressure", "press", "airpressure"},
}

// MatchCovariate maps a normalized column name to a known covariate,
// or "" when the column is not weather data we understand.
func MatchCovariate(column string) string {
	lc := strings.ToLower(column)
	for _, name := range []string{CovariateTemperature, CovariateHumidity, CovariateWindSpeed, CovariatePressure} {
		for _, pat := range covariatePatterns[name] {
			if strings.Contains(lc, pat) {
				return name
			}
		}
	}
	return ""
}

// WeatherSample is one timestamped set of covariate values. Missing cells
// are simply absent from the map.
type WeatherSample struct {
	Timestamp  time.Time
	Covariates map[string]float64
}
