// POST /api/v1/search, GET /api/v1/search/{requestId}/result, and
// GET /api/v1/search/stats: the pipeline orchestrator's HTTP front door.
// Sync mode runs the pipeline inline on the request goroutine, deriving its
// context from c.Request.Context() so a client disconnect cancels the
// parallel filter group. Async mode creates a Job, dispatches the pipeline
// on its own goroutine, and returns 202 immediately.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"platefinder/internal/jobs"
	"platefinder/internal/metrics"
	"platefinder/internal/search"
	"platefinder/internal/types"
)

type SearchHandler struct {
	pipeline *search.Pipeline
	jobs     jobs.Store
	channel  jobs.Channel
}

func NewSearchHandler(pipeline *search.Pipeline, store jobs.Store, channel jobs.Channel) *SearchHandler {
	return &SearchHandler{pipeline: pipeline, jobs: store, channel: channel}
}

type searchRequestBody struct {
	Query        string       `json:"query"`
	SessionID    string       `json:"sessionId"`
	UserLocation *types.Point `json:"userLocation"`
	Mode         string       `json:"mode"`
	CategoryHint string       `json:"categoryHint"`
}

func (h *SearchHandler) Create(c *gin.Context) {
	var body searchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error")
		return
	}
	if body.Query == "" {
		writeError(c, http.StatusBadRequest, "validation_error")
		return
	}

	mode := search.ModeSync
	if body.Mode == string(search.ModeAsync) {
		mode = search.ModeAsync
	}

	req := search.SearchRequest{
		RequestID:    types.ID(uuid.NewString()),
		Query:        body.Query,
		SessionID:    types.ID(body.SessionID),
		UserLocation: body.UserLocation,
		Mode:         mode,
		CategoryHint: body.CategoryHint,
	}

	if mode == search.ModeSync {
		resp := h.pipeline.Run(c.Request.Context(), req, req.RequestID.String())
		writeJSON(c, http.StatusOK, resp)
		return
	}

	h.runAsync(c, req)
}

// runAsync creates the job record, returns 202 immediately, and runs the
// pipeline on a detached context (not c.Request.Context(), since the async
// job must outlive this HTTP request) that is bounded by its own 2-minute
// timeout.
func (h *SearchHandler) runAsync(c *gin.Context, req search.SearchRequest) {
	ctx := c.Request.Context()
	if err := h.jobs.Create(ctx, req.RequestID); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusAccepted, gin.H{"requestId": req.RequestID})

	enqueueTime := time.Now()
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := h.jobs.SetRunning(runCtx, req.RequestID); err != nil {
			return
		}
		resp := h.pipeline.RunJob(runCtx, req, req.RequestID.String(), enqueueTime)
		if err := h.jobs.SetResult(runCtx, req.RequestID, resp); err != nil {
			_ = h.jobs.SetError(runCtx, req.RequestID, err.Error())
		}
		if h.channel != nil {
			_ = h.channel.Publish(runCtx, "search", req.RequestID, jobs.ServerMessage{
				Channel:   "search",
				RequestID: req.RequestID,
				Type:      jobs.ServerEventResults,
				Data:      resp,
			})
		}
	}()
}

func (h *SearchHandler) Result(c *gin.Context) {
	id := types.ID(c.Param("requestId"))
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusNotFound, "job not found")
		return
	}
	switch job.Status {
	case jobs.StatusDoneSuccess:
		writeJSON(c, http.StatusOK, job.Result)
	case jobs.StatusDoneFailed:
		writeJSON(c, http.StatusOK, gin.H{"requestId": id, "error": job.Error})
	default:
		writeJSON(c, http.StatusAccepted, gin.H{"requestId": id, "status": job.Status})
	}
}

func (h *SearchHandler) Stats(c *gin.Context) {
	writeJSON(c, http.StatusOK, metrics.Gather())
}
