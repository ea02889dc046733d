package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/gsarma/texcompile/internal/compiler"
)

// Version is reported in the OpenAPI document.
var Version = "0.1.0"

type object = map[string]any

func ref(name string) object { return object{"$ref": "#/components/schemas/" + name} }

func jsonContent(schema object) object {
	return object{"application/json": object{"schema": schema}}
}

func errorResponses(codes ...string) object {
	out := object{}
	for _, code := range codes {
		out[code] = object{"description": "Error", "content": jsonContent(ref("ApiError"))}
	}
	return out
}

func merge(a, b object) object {
	for k, v := range b {
		a[k] = v
	}
	return a
}

// OpenAPIDocument returns the OpenAPI 3 description of the HTTP API.
func OpenAPIDocument() object {
	pdf := object{"application/pdf": object{"schema": object{"type": "string", "format": "binary"}}}
	// Enforced only when the server is started with API keys.
	bearer := []any{object{"bearerAuth": []any{}}}
	jobID := object{"name": "id", "in": "path", "required": true, "schema": object{"type": "string", "format": "uuid"}}

	return object{
		"openapi": "3.0.3",
		"info": object{
			"title":       "texcompile",
			"description": "Compiles LaTeX source into PDF with an installed TeX engine.",
			"version":     Version,
		},
		"paths": object{
			"/api/v0/compile": object{
				"post": object{
					"operationId": "compile",
					"summary":     "Compile LaTeX source",
					"parameters": []any{object{
						"name": "async", "in": "query", "required": false,
						"description": "Queue the compile and return a job id instead of waiting.",
						"schema":      object{"type": "boolean"},
					}},
					"requestBody": object{"required": true, "content": jsonContent(ref("CompileRequest"))},
					"responses": merge(object{
						"201": object{"description": "Compiled document", "content": pdf},
						"202": object{"description": "Compile queued", "content": jsonContent(ref("JobAccepted"))},
					}, errorResponses("400", "401", "500")),
					"security": bearer,
				},
			},
			"/api/v0/healthcheck": object{
				"get": object{
					"operationId": "healthcheck",
					"summary":     "Liveness probe",
					"responses": object{
						"200": object{"description": "Service is up", "content": jsonContent(ref("Health"))},
					},
				},
			},
			"/api/v0/jobs/{id}": object{
				"get": object{
					"operationId": "getJob",
					"summary":     "Async compile status",
					"parameters":  []any{jobID},
					"responses": merge(object{
						"200": object{"description": "Job status", "content": jsonContent(ref("Job"))},
					}, errorResponses("400", "401", "404")),
					"security": bearer,
				},
			},
			"/api/v0/jobs/{id}/artifact": object{
				"get": object{
					"operationId": "getJobArtifact",
					"summary":     "Async compile result",
					"parameters":  []any{jobID},
					"responses": merge(object{
						"200": object{"description": "Compiled document", "content": pdf},
					}, errorResponses("400", "401", "404", "409", "500")),
					"security": bearer,
				},
			},
		},
		"components": object{
			"securitySchemes": object{
				"bearerAuth": object{"type": "http", "scheme": "bearer"},
			},
			"schemas": object{
				"CompileRequest": object{
					"type":     "object",
					"required": []any{"text"},
					"properties": object{
						"text":        object{"type": "string", "maxLength": compiler.MaxSourceBytes},
						"output_name": object{"type": "string"},
						"options":     ref("CompileOptions"),
					},
				},
				"CompileOptions": object{
					"type": "object",
					"properties": object{
						"timeout_seconds":    object{"type": "integer", "minimum": 0},
						"output_format":      object{"type": "string", "enum": []any{"pdf"}},
						"optimization_level": object{"type": "string", "description": "Reserved."},
					},
				},
				"ApiError": object{
					"type":     "object",
					"required": []any{"message"},
					"properties": object{
						"message": object{"type": "string"},
						"code":    ref("ApiErrorCode"),
					},
				},
				"ApiErrorCode": object{
					"type": "string",
					"enum": []any{
						string(CodeInvalidInput), string(CodeCompilationFailed), string(CodeCompiledWithErrors),
						string(CodeTimeout), string(CodeNoBytesGenerated), string(CodeInternalError),
						string(CodeNotFound), string(CodeNotReady), string(CodeUnauthorized),
					},
				},
				"Health": object{
					"type":     "object",
					"required": []any{"status", "timestamp"},
					"properties": object{
						"status":    object{"type": "string", "enum": []any{"healthy"}},
						"timestamp": object{"type": "integer", "format": "int64"},
						"engine": object{"type": "object", "properties": object{
							"name":       object{"type": "string"},
							"output_ext": object{"type": "string"},
							"version":    object{"type": "string"},
						}},
					},
				},
				"JobAccepted": object{
					"type": "object",
					"properties": object{
						"job_id": object{"type": "string", "format": "uuid"},
						"status": object{"type": "string"},
					},
				},
				"Job": object{
					"type": "object",
					"properties": object{
						"job_id":       object{"type": "string", "format": "uuid"},
						"status":       object{"type": "string", "enum": []any{"queued", "running", "completed", "failed"}},
						"created_at":   object{"type": "string", "format": "date-time"},
						"completed_at": object{"type": "string", "format": "date-time"},
						"error":        ref("ApiError"),
						"artifact_url": object{"type": "string"},
					},
				},
			},
		},
	}
}

var openAPIYAML = sync.OnceValues(func() ([]byte, error) {
	return yaml.Marshal(OpenAPIDocument())
})

func OpenAPIJSON(c *gin.Context) {
	c.JSON(http.StatusOK, OpenAPIDocument())
}

func OpenAPIYAML(c *gin.Context) {
	data, err := openAPIYAML()
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.Data(http.StatusOK, "application/yaml", data)
}
