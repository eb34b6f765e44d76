package models

// CorrelationResult holds the pairwise relation between processed BC and
// one covariate series. Insufficient is set instead of coefficients when
// fewer than two valid pairs survived the join.
type CorrelationResult struct {
	PearsonR     float64 `json:"pearson_r"`
	PearsonP     float64 `json:"pearson_p"`
	SpearmanR    float64 `json:"spearman_r"`
	SpearmanP    float64 `json:"spearman_p"`
	SampleSize   int     `json:"sample_size"`
	Insufficient bool    `json:"insufficient_data,omitempty"`
}
