package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/errors"
	"github.com/kbukum/coursegen/generate"
	"github.com/kbukum/coursegen/logger"
)

// Keep-alive interval must stay under typical proxy timeouts (60s).
const keepAliveInterval = 15 * time.Second

// generateRequest is the POST body of the generation endpoint.
type generateRequest struct {
	generate.Request
	Provider string `json:"provider"`
}

// generateCourse runs a generation and streams every progress update as
// a Server-Sent Event. Validation and provider resolution failures are
// reported as plain JSON errors before the stream starts; anything after
// that arrives as a failed update on the stream itself.
func (h *Handlers) generateCourse(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if req.Provider == "" {
		names := h.registry.List()
		if len(names) == 0 {
			h.abortError(c, errors.InvalidConfig("no providers configured"))
			return
		}
		req.Provider = names[0]
	}

	backend, err := generate.Resolve(h.registry, req.Provider)
	if err != nil {
		h.abortError(c, err)
		return
	}

	orchestrator := generate.NewOrchestrator(backend, h.log)
	updates, err := orchestrator.GenerateCourseStream(c.Request.Context(), req.Request)
	if err != nil {
		h.abortError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.abortError(c, fmt.Errorf("streaming not supported"))
		return
	}

	// SSE connections outlive the server's WriteTimeout; clear the
	// write deadline for this response only.
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.WithError(err).Warn("could not clear write deadline for stream")
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("generation stream client disconnected", map[string]interface{}{
				logger.FieldRequestID: c.GetString("request_id"),
			})
			return

		case upd, open := <-updates:
			if !open {
				return
			}
			writeUpdate(c.Writer, flusher, upd)

		case <-keepAlive.C:
			// SSE comment line; keeps proxies from closing the stream.
			fmt.Fprintf(c.Writer, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeUpdate(w http.ResponseWriter, flusher http.Flusher, upd course.GenerationUpdate) {
	data, err := json.Marshal(upd)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: update\ndata: %s\n\n", data)
	flusher.Flush()
}
