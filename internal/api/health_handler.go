package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/texcompile/internal/engine"
)

// HealthResponse is returned by the healthcheck.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	// Engine is set once the first compile has located one.
	Engine *engine.Engine `json:"engine,omitempty"`
}

// Healthcheck reports liveness. It never probes engines or touches disk.
func (h *Handler) Healthcheck(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Timestamp: h.now().Unix()}
	if comp := h.compilers.Current(); comp != nil {
		e := comp.Engine()
		resp.Engine = &e
	}
	c.JSON(http.StatusOK, resp)
}
