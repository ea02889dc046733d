package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/engine/enginetest"
	"github.com/gsarma/texcompile/internal/jobs"
	"github.com/gsarma/texcompile/internal/worker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSource implements CompilerSource for handler tests.
type stubSource struct {
	c       *compiler.Compiler
	err     error
	gets    int
	current bool
}

func (s *stubSource) Get(context.Context) (*compiler.Compiler, error) {
	s.gets++
	return s.c, s.err
}

func (s *stubSource) Current() *compiler.Compiler {
	if !s.current {
		return nil
	}
	return s.c
}

// stubDispatcher implements Dispatcher. With no submitFn it runs the task inline.
type stubDispatcher struct {
	submitFn func(ctx context.Context, task worker.Task) error
}

func (s *stubDispatcher) Submit(ctx context.Context, task worker.Task) error {
	if s.submitFn != nil {
		return s.submitFn(ctx, task)
	}
	task(ctx)
	return nil
}

// Compile-time interface checks.
var (
	_ CompilerSource = (*stubSource)(nil)
	_ CompilerSource = (*compiler.Provider)(nil)
	_ Dispatcher     = (*stubDispatcher)(nil)
	_ Dispatcher     = (*worker.Worker)(nil)
)

func newTestCompiler(t *testing.T, fake *enginetest.Fake) *compiler.Compiler {
	t.Helper()
	c, err := compiler.New(context.Background(), compiler.Config{WorkspaceDir: filepath.Join(t.TempDir(), "ws")}, fake)
	if err != nil {
		t.Fatalf("compiler.New: %v", err)
	}
	return c
}

func newTestHandler(src CompilerSource) *Handler {
	return NewHandler(src, &stubDispatcher{}, jobs.NewStore(), Options{DefaultTimeout: 5 * time.Second, MaxTimeout: 10 * time.Second})
}

// ginCtx builds a Gin test context for a handler call.
func ginCtx(method, path string, body []byte, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	return c, w
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) ApiError {
	t.Helper()
	var e ApiError
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("response is not an ApiError: %v: %s", err, w.Body.String())
	}
	return e
}
