package texcompile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// JobsService provides async compile lookups.
type JobsService struct {
	c *Client
}

// Get retrieves the current status of an async compile.
func (s *JobsService) Get(ctx context.Context, jobID string) (*Job, error) {
	path := fmt.Sprintf("/api/v0/jobs/%s", url.PathEscape(jobID))
	resp, err := s.c.do(ctx, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Job
		Error *struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("texcompile: decode response: %w", err)
	}
	job := out.Job
	if out.Error != nil {
		job.Error = &APIError{Message: out.Error.Message, Code: ErrorCode(out.Error.Code)}
	}
	return &job, nil
}

// Artifact downloads the PDF of a completed job.
func (s *JobsService) Artifact(ctx context.Context, jobID string) ([]byte, error) {
	path := fmt.Sprintf("/api/v0/jobs/%s/artifact", url.PathEscape(jobID))
	return doBytes(ctx, s.c, http.MethodGet, path, nil, http.StatusOK)
}

// Wait polls the job every interval until it finishes or ctx ends. A
// non-positive interval means one second.
func (s *JobsService) Wait(ctx context.Context, jobID string, interval time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := s.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Finished() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
