package usecase

import (
	"context"

	"AethFlow/pkg/queue"
)

// MsgTypeProcess is the queue message type carrying a ProcessRequest.
const MsgTypeProcess = "aethflow:process"

// ProcessJob is the queue handler that runs the pipeline.
type ProcessJob struct {
	pipeline *Pipeline
}

func NewProcessJob(p *Pipeline) *ProcessJob {
	return &ProcessJob{pipeline: p}
}

func (j *ProcessJob) Name() string { return "process_aethalometer_data" }

func (j *ProcessJob) Type() string { return MsgTypeProcess }

func (j *ProcessJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[ProcessRequest](payload)
	if err != nil {
		return err
	}
	return j.pipeline.Run(ctx, *req)
}
