// Package logfields holds the canonical slog attribute keys used across the service.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRequestID  = "request_id"
	KeyJobID      = "job_id"
	KeyJobStatus  = "job_status"
	KeyEngine     = "engine"
	KeyToken      = "token"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyBytes      = "bytes"
	KeyPath       = "path"
	KeyError      = "error"
)

func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func JobID(id string) slog.Attr     { return slog.String(KeyJobID, id) }
func JobStatus(s string) slog.Attr  { return slog.String(KeyJobStatus, s) }
func Engine(name string) slog.Attr  { return slog.String(KeyEngine, name) }
func Token(t string) slog.Attr      { return slog.String(KeyToken, t) }
func Outcome(o string) slog.Attr    { return slog.String(KeyOutcome, o) }
func Bytes(n int) slog.Attr         { return slog.Int(KeyBytes, n) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
