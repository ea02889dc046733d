package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r. metrics may be nil.
func RegisterRoutes(r *gin.Engine, h *Handler, metrics http.Handler) {
	r.Use(RequestID())

	v0 := r.Group("/api/v0")
	v0.GET("/healthcheck", h.Healthcheck)

	authed := v0.Group("", h.AuthMiddleware())
	{
		authed.POST("/compile", h.Compile)
		authed.GET("/jobs/:id", h.GetJob)
		authed.GET("/jobs/:id/artifact", h.GetJobArtifact)
	}

	r.GET("/api-docs/openapi.json", OpenAPIJSON)
	r.GET("/api-docs/openapi.yaml", OpenAPIYAML)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
