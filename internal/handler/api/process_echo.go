package api

import (
	"errors"
	"mime/multipart"
	"strings"

	"AethFlow/internal/domain/models"
	drepo "AethFlow/internal/domain/repository"
	"AethFlow/internal/registry"
	"AethFlow/internal/usecase"
	xhttp "AethFlow/pkg/http"
	xlogger "AethFlow/pkg/logger"
	"AethFlow/pkg/queue"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProcessEchoHandler exposes the processing API: submit a job, poll its
// status, download its output, or stream its progress over a websocket.
type ProcessEchoHandler struct {
	logger *xlogger.Logger
	queue  queue.QueueService
	jobs   drepo.JobRegistry
	files  drepo.FileStore
}

func NewProcessEchoHandler(logger *xlogger.Logger, q queue.QueueService, jobs drepo.JobRegistry, files drepo.FileStore) *ProcessEchoHandler {
	return &ProcessEchoHandler{logger: logger, queue: q, jobs: jobs, files: files}
}

func (h *ProcessEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/process", h.Process)
	g.GET("/status/:id", h.Status)
	g.GET("/download/:filename", h.Download)
	g.GET("/progress/:id", h.Progress)
}

// Process accepts a multipart upload (required "file", optional
// "weather_file") plus tuning params, queues the job, and returns 202 with
// the job id for polling.
func (h *ProcessEchoHandler) Process(c echo.Context) error {
	params := &models.ProcessParams{}
	if verr := xhttp.ReadAndValidateRequest(c, params); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, "no data file provided")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
		return xhttp.BadRequestResponse(c, "data file must be a CSV")
	}

	jobID := uuid.NewString()

	dataPath, err := h.saveUpload(jobID+"_data.csv", fh)
	if err != nil {
		h.logger.Error("save upload failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	var weatherPath string
	if wfh, err := c.FormFile("weather_file"); err == nil {
		weatherPath, err = h.saveUpload(jobID+"_weather.csv", wfh)
		if err != nil {
			h.logger.Error("save weather upload failed", xlogger.Error(err))
			return xhttp.InternalServerErrorResponse(c)
		}
	}

	ctx := c.Request().Context()
	if err := h.jobs.Create(ctx, jobID); err != nil {
		h.logger.Error("job create failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	req := usecase.ProcessRequest{
		JobID:       jobID,
		DataPath:    dataPath,
		WeatherPath: weatherPath,
		ATNMin:      params.ATNMin,
		Wavelength:  params.Wavelength,
	}
	if err := h.queue.PublishMessage(ctx, usecase.MsgTypeProcess, req); err != nil {
		h.logger.Error("job enqueue failed",
			xlogger.String("job_id", jobID),
			xlogger.Error(err),
		)
		_ = h.jobs.Fail(ctx, jobID, "could not queue job")
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("processing queue is full, try again later"))
	}

	h.logger.Info("job queued",
		xlogger.String("job_id", jobID),
		xlogger.String("file", fh.Filename),
		xlogger.String("wavelength", params.Wavelength),
		xlogger.Float64("atn_min", params.ATNMin),
		xlogger.Bool("weather", weatherPath != ""),
	)
	return xhttp.AcceptedResponse(c, models.ProcessAccepted{
		JobID:   jobID,
		Status:  string(models.StatusQueued),
		Message: "file accepted for processing",
	})
}

// Status reports the current lifecycle state of one job. Completed jobs
// carry the assembled result payload.
func (h *ProcessEchoHandler) Status(c echo.Context) error {
	state, err := h.jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "unknown job id")
		}
		h.logger.Error("job lookup failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, models.StatusResponse{
		Status:   state.Status,
		Progress: state.Progress,
		Message:  state.Message,
		Results:  state.Result,
	})
}

// Download streams a processed result CSV as an attachment.
func (h *ProcessEchoHandler) Download(c echo.Context) error {
	name := c.Param("filename")
	path, err := h.files.ResultPath(name)
	if err != nil {
		return xhttp.NotFoundResponse(c, "no such result file")
	}
	return c.Attachment(path, name)
}

func (h *ProcessEchoHandler) saveUpload(name string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.files.SaveUpload(name, src)
}
