package models

import "time"

// ProcessedRecord is one noise-reduced output point, emitted per closed
// averaging window. Pointer fields are nil for missing values so JSON
// output carries null, never NaN.
type ProcessedRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	RawBC       *float64  `json:"rawBC"`
	ProcessedBC *float64  `json:"processedBC"`
	Attenuation *float64  `json:"atn"`
}
