package api

import (
	"errors"
	"net/http"
	"time"

	"AethFlow/internal/domain/models"
	"AethFlow/internal/registry"
	xlogger "AethFlow/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin policy is handled by the CORS middleware upstream
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	progressPollInterval = 500 * time.Millisecond
	progressWriteWait    = 10 * time.Second
)

// Progress streams job progress over a websocket. One event is written per
// observed change; the connection closes after the terminal event.
func (h *ProcessEchoHandler) Progress(c echo.Context) error {
	jobID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := c.Request().Context()
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	var lastProgress = -1
	var lastStatus models.JobStatus

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		state, err := h.jobs.Get(ctx, jobID)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				_ = writeEvent(conn, models.ProgressEvent{
					Message:  "unknown job id",
					Terminal: true,
				})
				return nil
			}
			h.logger.Error("progress lookup failed",
				xlogger.String("job_id", jobID),
				xlogger.Error(err),
			)
			return nil
		}

		if state.Progress == lastProgress && state.Status == lastStatus {
			continue
		}
		lastProgress = state.Progress
		lastStatus = state.Status

		ev := models.ProgressEvent{
			Percent:  state.Progress,
			Message:  state.Message,
			Terminal: state.Status.Terminal(),
		}
		if err := writeEvent(conn, ev); err != nil {
			return nil
		}
		if ev.Terminal {
			deadline := time.Now().Add(progressWriteWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return nil
		}
	}
}

func writeEvent(conn *websocket.Conn, ev models.ProgressEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(progressWriteWait))
	return conn.WriteJSON(ev)
}
