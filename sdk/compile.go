package texcompile

import (
	"context"
	"net/http"
)

// Compile sends LaTeX source and waits for the PDF bytes.
func (c *Client) Compile(ctx context.Context, req CompileRequest) ([]byte, error) {
	return doBytes(ctx, c, http.MethodPost, "/api/v0/compile", req, http.StatusCreated)
}

// CompileAsync queues a compile and returns its job id.
func (c *Client) CompileAsync(ctx context.Context, req CompileRequest) (*JobAccepted, error) {
	return doRequest[JobAccepted](ctx, c, http.MethodPost, "/api/v0/compile?async=true", req, http.StatusAccepted)
}
