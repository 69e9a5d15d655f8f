// Package handler exposes the job API over HTTP.
package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/job"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/server"
)

// MaxListLimit caps the limit query parameter.
const MaxListLimit = 500

// Submitter starts a job in the background. *worker.Pool implements it.
type Submitter interface {
	Submit(ctx context.Context, a job.Assignment) error
}

// CreateRequest is the body of POST /jobs.
type CreateRequest struct {
	InputFile job.Locator `json:"input_file"`
}

// Jobs serves the job API.
type Jobs struct {
	store job.Store
	pool  Submitter
	log   *logger.Logger
}

// NewJobs creates the job handlers.
func NewJobs(store job.Store, pool Submitter, log *logger.Logger) *Jobs {
	if log == nil {
		log = logger.NewNop()
	}
	return &Jobs{store: store, pool: pool, log: log.WithComponent("jobs-api")}
}

// Register mounts the job routes on r.
func (h *Jobs) Register(r gin.IRouter) {
	r.POST("/jobs", h.Create)
	r.GET("/jobs", h.List)
	r.GET("/jobs/:id", h.Get)
}

// Create records a job and hands it to the pool. The locator is checked by
// the pipeline, so a job with a bad locator is accepted and then fails.
func (h *Jobs) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("Request body must be a JSON job input.").WithCause(err))
		return
	}

	ctx := c.Request.Context()
	rec, err := h.store.Create(ctx, job.Input{InputFile: req.InputFile})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	log := h.log.WithContext(logger.ContextWithJobID(ctx, rec.ID))

	if err := h.pool.Submit(ctx, job.NewAssignment(h.store, rec.ID)); err != nil {
		log.Warn("job not scheduled", logger.ErrorFields("submit", err))
		server.RespondWithError(c, err)
		return
	}
	log.Info("job accepted", logger.Fields("input_url", rec.Input.InputFile.URL))
	server.RespondAccepted(c, rec)
}

// Get returns one job.
func (h *Jobs) Get(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}

// List returns recent jobs, newest first.
func (h *Jobs) List(c *gin.Context) {
	limit := job.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxListLimit {
			server.RespondWithError(c, errors.InvalidInput("limit", "limit must be between 1 and "+strconv.Itoa(MaxListLimit)))
			return
		}
		limit = n
	}

	recs, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOKWithMeta(c, recs, &server.Meta{Limit: limit, Count: len(recs)})
}
