package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/ctxlog"
	"github.com/gsarma/texcompile/internal/jobs"
	"github.com/gsarma/texcompile/internal/logfields"
)

// maxBodyBytes leaves room for JSON escaping of a source at the size limit.
const maxBodyBytes = 6*compiler.MaxSourceBytes + 64<<10

// CompileOptions are accepted on every request. Only timeout_seconds and
// output_format affect compilation; optimization_level is reserved.
type CompileOptions struct {
	TimeoutSeconds    *uint64 `json:"timeout_seconds,omitempty"`
	OutputFormat      *string `json:"output_format,omitempty"`
	OptimizationLevel *string `json:"optimization_level,omitempty"`
}

type CompileRequest struct {
	Text    string          `json:"text"`
	Options *CompileOptions `json:"options,omitempty"`
	// OutputName sets the artifact file name; defaults to "main".
	OutputName string `json:"output_name,omitempty"`
}

type compileResult struct {
	art *compiler.Artifact
	err error
}

// Compile typesets the request text.
//
// Sync (default): 201 with the PDF bytes, or an ApiError.
// Async (?async=true): 202 {"job_id": "...", "status": "queued"}; poll
// GET /api/v0/jobs/:id and fetch GET /api/v0/jobs/:id/artifact.
func (h *Handler) Compile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var body CompileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "request body too large")
			return
		}
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	timeout, err := h.resolveOptions(c.Request.Context(), body.Options)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := compiler.Validate(body.Text); err != nil {
		errorResponse(c, err)
		return
	}

	comp, err := h.compilers.Get(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	if c.Query("async") == "true" {
		h.compileAsync(c, comp, body, timeout)
		return
	}

	ctx := c.Request.Context()
	done := make(chan compileResult, 1)
	err = h.pool.Submit(ctx, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		art, err := comp.Compile(ctx, body.Text, body.OutputName)
		done <- compileResult{art: art, err: err}
	})
	if err != nil {
		errorResponse(c, err)
		return
	}

	var res compileResult
	select {
	case res = <-done:
	case <-ctx.Done():
		// The client is gone; the task sees the same cancellation and kills
		// the engine. Release whatever it still produces.
		go func() {
			if r := <-done; r.art != nil {
				_ = r.art.Release()
			}
		}()
		c.Abort()
		return
	}
	if res.err != nil {
		errorResponse(c, res.err)
		return
	}
	defer res.art.Release()
	writeArtifact(c, http.StatusCreated, res.art)
}

func (h *Handler) compileAsync(c *gin.Context, comp *compiler.Compiler, body CompileRequest, timeout time.Duration) {
	job := h.jobs.Create()
	id := job.ID
	logger := ctxlog.FromContext(c.Request.Context()).With(logfields.JobID(id.String()))
	// The job outlives the request, keep its values but not its cancellation.
	ctx := ctxlog.WithLogger(context.WithoutCancel(c.Request.Context()), logger)

	err := h.pool.Submit(ctx, func(ctx context.Context) {
		if ctx.Err() != nil {
			_ = h.jobs.Fail(id, ctx.Err())
			return
		}
		_ = h.jobs.MarkRunning(id)
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		art, err := comp.Compile(ctx, body.Text, body.OutputName)
		if err != nil {
			_ = h.jobs.Fail(id, err)
			logger.Info("Async compile failed", logfields.JobStatus(string(jobs.StatusFailed)))
			return
		}
		if err := h.jobs.Complete(id, art); err != nil {
			logger.Warn("Async job expired before completion", logfields.Error(err))
			return
		}
		logger.Info("Async compile finished", logfields.JobStatus(string(jobs.StatusCompleted)))
	})
	if err != nil {
		h.jobs.Remove(id)
		errorResponse(c, err)
		return
	}

	c.Header("Location", "/api/v0/jobs/"+id.String())
	c.JSON(http.StatusAccepted, gin.H{"job_id": id, "status": jobs.StatusQueued})
}

// resolveOptions validates the options bag and returns the compile deadline.
func (h *Handler) resolveOptions(ctx context.Context, opts *CompileOptions) (time.Duration, error) {
	if opts == nil {
		return h.defaultTimeout, nil
	}
	if opts.OutputFormat != nil {
		if f := strings.ToLower(strings.TrimSpace(*opts.OutputFormat)); f != "" && f != "pdf" {
			return 0, errors.New("unsupported output_format " + *opts.OutputFormat + ", only pdf is available")
		}
	}
	if opts.OptimizationLevel != nil && *opts.OptimizationLevel != "" {
		ctxlog.FromContext(ctx).Debug("Ignoring optimization_level", "optimization_level", *opts.OptimizationLevel)
	}

	if opts.TimeoutSeconds == nil || *opts.TimeoutSeconds == 0 {
		return h.defaultTimeout, nil
	}
	if secs := *opts.TimeoutSeconds; secs < uint64(h.maxTimeout/time.Second) {
		return time.Duration(secs) * time.Second, nil
	}
	return h.maxTimeout, nil
}

// writeArtifact sends the artifact bytes as the whole response body.
func writeArtifact(c *gin.Context, status int, art *compiler.Artifact) {
	data, err := art.ReadAll()
	if err != nil {
		errorResponse(c, err)
		return
	}
	if len(data) == 0 {
		errorResponse(c, errNoBytes)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filepath.Base(art.Path)+`"`)
	c.Data(status, "application/pdf", data)
}
