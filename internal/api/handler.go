package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/ctxlog"
	"github.com/gsarma/texcompile/internal/jobs"
	"github.com/gsarma/texcompile/internal/logfields"
	"github.com/gsarma/texcompile/internal/worker"
)

// CompilerSource hands out the compiler. *compiler.Provider implements it.
type CompilerSource interface {
	Get(ctx context.Context) (*compiler.Compiler, error)
	// Current returns the compiler if it has been built, without building it.
	Current() *compiler.Compiler
}

// Dispatcher runs compile tasks off the request goroutine. *worker.Worker implements it.
type Dispatcher interface {
	Submit(ctx context.Context, task worker.Task) error
}

type Options struct {
	// DefaultTimeout applies when a request sets no timeout_seconds.
	DefaultTimeout time.Duration
	// MaxTimeout caps timeout_seconds.
	MaxTimeout time.Duration
	// APIKeys, when non-empty, are the bearer keys accepted on compile and job routes.
	APIKeys []string
}

type Handler struct {
	compilers      CompilerSource
	pool           Dispatcher
	jobs           *jobs.Store
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	keys           keyring
	now            func() time.Time
}

func NewHandler(compilers CompilerSource, pool Dispatcher, store *jobs.Store, opts Options) *Handler {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 60 * time.Second
	}
	if opts.MaxTimeout < opts.DefaultTimeout {
		opts.MaxTimeout = opts.DefaultTimeout
	}
	if store == nil {
		store = jobs.NewStore()
	}
	return &Handler{
		compilers:      compilers,
		pool:           pool,
		jobs:           store,
		defaultTimeout: opts.DefaultTimeout,
		maxTimeout:     opts.MaxTimeout,
		keys:           newKeyring(opts.APIKeys),
		now:            time.Now,
	}
}

// ErrorCode is the machine-readable part of an ApiError.
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeCompilationFailed  ErrorCode = "COMPILATION_FAILED"
	CodeCompiledWithErrors ErrorCode = "COMPILED_WITH_ERRORS"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeNoBytesGenerated   ErrorCode = "NO_BYTES_GENERATED"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeNotReady           ErrorCode = "NOT_READY"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
)

// ApiError is the body of every non-2xx response.
type ApiError struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
}

var errNoBytes = errors.New("compiler produced an empty artifact")

// classify maps an error to its HTTP status and client-safe body. Engine
// output is surfaced for compilation failures; filesystem details never are.
func classify(err error) (int, ApiError) {
	switch {
	case errors.Is(err, errNoBytes):
		return http.StatusInternalServerError, ApiError{Message: "no bytes generated", Code: CodeNoBytesGenerated}
	case errors.Is(err, worker.ErrQueueFull):
		return http.StatusInternalServerError, ApiError{Message: "compile queue is full, retry later", Code: CodeInternalError}
	case errors.Is(err, worker.ErrStopped):
		return http.StatusInternalServerError, ApiError{Message: "server is shutting down", Code: CodeInternalError}
	case errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound, ApiError{Message: "job not found", Code: CodeNotFound}
	}

	var ce *compiler.Error
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError, ApiError{Message: "internal error", Code: CodeInternalError}
	}
	switch ce.Kind {
	case compiler.KindInvalidInput:
		return http.StatusBadRequest, ApiError{Message: ce.Message, Code: CodeInvalidInput}
	case compiler.KindToolNotFound:
		return http.StatusInternalServerError, ApiError{Message: "no TeX engine is available on the server", Code: CodeInternalError}
	case compiler.KindCompilation:
		switch ce.Reason {
		case compiler.ReasonNoArtifact:
			return http.StatusBadRequest, ApiError{Message: ce.Detail(), Code: CodeCompiledWithErrors}
		case compiler.ReasonTimeout:
			return http.StatusBadRequest, ApiError{Message: ce.Detail(), Code: CodeTimeout}
		case compiler.ReasonCanceled:
			return http.StatusInternalServerError, ApiError{Message: "compilation canceled", Code: CodeInternalError}
		default:
			return http.StatusBadRequest, ApiError{Message: ce.Detail(), Code: CodeCompilationFailed}
		}
	default:
		return http.StatusInternalServerError, ApiError{Message: "internal I/O error", Code: CodeInternalError}
	}
}

func errorResponse(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		ctxlog.FromContext(c.Request.Context()).Error("Request failed",
			slog.Int("status", status), logfields.Error(err))
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ApiError{Message: msg, Code: CodeInvalidInput})
}
