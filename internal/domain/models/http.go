package models

// ProcessParams are the tunables accepted by the process endpoint.
// Files arrive separately as multipart parts.
type ProcessParams struct {
	ATNMin     float64 `form:"atn_min" json:"atn_min" default:"0.01" validate:"gt=0,lte=1"`
	Wavelength string  `form:"wavelength" json:"wavelength" default:"Blue" validate:"oneof=UV Blue Green Red IR"`
}

// ProcessAccepted is returned when a job has been queued.
type ProcessAccepted struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusResponse is the polling payload for one job.
type StatusResponse struct {
	Status   JobStatus  `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message"`
	Results  *JobResult `json:"results,omitempty"`
}
