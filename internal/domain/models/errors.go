package models

import "fmt"

// ConfigurationError means the requested channel or a required column is
// absent from the input schema. Fatal before any row is processed.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Detail)
}

// ParsingError marks a malformed field on a single row. Rows carrying one
// are skipped and counted, never fatal.
type ParsingError struct {
	Field  string
	Detail string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error on %s: %s", e.Field, e.Detail)
}

// DataQualityError means zero valid readings survived for the selected
// channel. Fatal for the job.
type DataQualityError struct {
	Channel Channel
	Skipped int64
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("no valid readings for channel %s (%d rows skipped)", e.Channel, e.Skipped)
}

// ComputationError means correlation statistics could not be computed for
// a covariate for a structural reason (e.g. zero variance). Fatal only for
// that covariate.
type ComputationError struct {
	Covariate string
	Detail    string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cannot compute correlation for %s: %s", e.Covariate, e.Detail)
}
