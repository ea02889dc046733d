package texcompile

import "time"

// CompileOptions tune a single compile. Zero values use the server defaults.
type CompileOptions struct {
	// TimeoutSeconds is clamped to the server's maximum.
	TimeoutSeconds    uint64 `json:"timeout_seconds,omitempty"`
	OutputFormat      string `json:"output_format,omitempty"`
	OptimizationLevel string `json:"optimization_level,omitempty"`
}

type CompileRequest struct {
	Text       string          `json:"text"`
	Options    *CompileOptions `json:"options,omitempty"`
	OutputName string          `json:"output_name,omitempty"`
}

// JobAccepted is returned when a compile is queued.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type Job struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *APIError  `json:"-"`
	ArtifactURL string     `json:"artifact_url,omitempty"`
}

// Finished reports whether the job reached completed or failed.
func (j *Job) Finished() bool {
	return j.Status == "completed" || j.Status == "failed"
}

type Engine struct {
	Name      string `json:"name"`
	OutputExt string `json:"output_ext"`
	Version   string `json:"version,omitempty"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp int64   `json:"timestamp"`
	Engine    *Engine `json:"engine,omitempty"`
}
