// Package compiler turns LaTeX source text into a PDF by running a located
// TeX engine inside a per-call directory of a shared workspace.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gsarma/texcompile/internal/ctxlog"
	"github.com/gsarma/texcompile/internal/engine"
	"github.com/gsarma/texcompile/internal/logfields"
	"github.com/gsarma/texcompile/internal/metrics"
)

// MaxSourceBytes is the largest accepted source text.
const MaxSourceBytes = 1_000_000

// DefaultStem names the source file when the caller gives no output name.
const DefaultStem = "main"

// DefaultWorkspaceDir is used when Config.WorkspaceDir is empty.
func DefaultWorkspaceDir() string {
	return filepath.Join(os.TempDir(), "latex_compile")
}

type Config struct {
	WorkspaceDir string
	// Candidates are probed in order; empty means engine.DefaultCandidates.
	Candidates   []engine.Engine
	ProbeTimeout time.Duration
}

type Option func(*Compiler)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Compiler) { c.recorder = metrics.OrNoop(r) }
}

// Compiler is safe for concurrent use. Calls share the workspace but each
// gets its own uuid-named subdirectory.
type Compiler struct {
	workspace string
	engine    engine.Engine
	runner    engine.Runner
	recorder  metrics.Recorder

	mu   sync.Mutex
	live map[string]struct{}
}

// New creates the workspace directory and locates an engine.
func New(ctx context.Context, cfg Config, runner engine.Runner, opts ...Option) (*Compiler, error) {
	dir := cfg.WorkspaceDir
	if dir == "" {
		dir = DefaultWorkspaceDir()
	}
	// The engine runs inside the call directory, so every path handed to it
	// must be absolute.
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, newError(KindIO, "resolve workspace", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, newError(KindIO, "create workspace", err)
	}

	candidates := cfg.Candidates
	if len(candidates) == 0 {
		candidates = engine.DefaultCandidates()
	}
	eng, err := engine.Locate(ctx, runner, candidates, cfg.ProbeTimeout)
	if err != nil {
		if errors.Is(err, engine.ErrToolNotFound) {
			return nil, newError(KindToolNotFound, "locate engine", err)
		}
		return nil, fmt.Errorf("locate engine: %w", err)
	}

	c := &Compiler{
		workspace: dir,
		engine:    eng,
		runner:    runner,
		recorder:  metrics.NoopRecorder{},
		live:      map[string]struct{}{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Engine returns the engine selected at construction.
func (c *Compiler) Engine() engine.Engine { return c.engine }

// WorkspaceDir returns the shared workspace directory.
func (c *Compiler) WorkspaceDir() string { return c.workspace }

// Validate checks text without touching the filesystem.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalidInput("LaTeX source is empty")
	}
	if len(text) > MaxSourceBytes {
		return invalidInput(fmt.Sprintf("LaTeX source is %d bytes, limit is %d", len(text), MaxSourceBytes))
	}
	return nil
}

// Compile typesets text and returns the produced artifact. The caller must
// Release the artifact once its bytes have been consumed. ctx bounds the
// engine run: when it ends the engine's process group is killed.
func (c *Compiler) Compile(ctx context.Context, text, outputName string) (art *Artifact, err error) {
	start := time.Now()
	logger := ctxlog.FromContext(ctx)
	defer func() {
		d := time.Since(start)
		c.recorder.ObserveCompile(c.engine.Name, Outcome(err), d)
		attrs := []any{logfields.Engine(c.engine.Name), logfields.Outcome(Outcome(err)), logfields.Duration(d)}
		if art != nil {
			attrs = append(attrs, logfields.Token(art.Token), logfields.Bytes(int(art.Size)))
		}
		if err != nil && !IsKind(err, KindInvalidInput) {
			logger.Warn("Compilation failed", append(attrs, logfields.Error(err))...)
			return
		}
		logger.Debug("Compilation finished", attrs...)
	}()

	if err := Validate(text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ctxError(err, nil)
	}

	token := uuid.NewString()
	dir := filepath.Join(c.workspace, token)
	if err := os.Mkdir(dir, 0o750); err != nil {
		return nil, newError(KindIO, "create call directory", err)
	}
	c.hold(token)
	defer func() {
		if err != nil {
			c.discard(token, dir)
		}
	}()

	inv := engine.Invocation{
		SourceFile: filepath.Join(dir, sanitizeStem(outputName)+".tex"),
		OutputDir:  dir,
	}
	if err := writeSource(inv.SourceFile, text); err != nil {
		return nil, newError(KindIO, "write source", err)
	}

	res, err := c.runner.Run(ctx, c.engine, inv)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctxError(ctx.Err(), redact(res, dir))
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, newError(KindToolNotFound, "run "+c.engine.Name, err)
		}
		return nil, newError(KindIO, "run "+c.engine.Name, err)
	}
	res = redact(res, dir)
	if !res.Success() {
		return nil, compilationError(ReasonExitStatus,
			fmt.Sprintf("LaTeX compilation failed with exit status %d:", res.ExitCode), res.Stdout, res.Stderr)
	}

	path := c.engine.ArtifactPath(inv)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, compilationError(ReasonNoArtifact, MsgArtifactNotProduced, res.Stdout, res.Stderr)
	}
	if err != nil {
		return nil, newError(KindIO, "stat artifact", err)
	}

	return &Artifact{
		Path:    path,
		Token:   token,
		Engine:  c.engine.Name,
		Size:    info.Size(),
		release: func() error { return c.discard(token, dir) },
	}, nil
}

// CompileBytes runs Compile, reads the artifact and releases it.
func (c *Compiler) CompileBytes(ctx context.Context, text, outputName string) ([]byte, error) {
	art, err := c.Compile(ctx, text, outputName)
	if err != nil {
		return nil, err
	}
	defer art.Release()
	return art.ReadAll()
}

// SweepStale removes call directories last modified before cutoff that no
// in-flight compile or unreleased artifact still owns. Entries whose names
// are not call tokens are left alone.
func (c *Compiler) SweepStale(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(c.workspace)
	if err != nil {
		return 0, fmt.Errorf("read workspace: %w", err)
	}
	removed := 0
	var errs []error
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		if _, err := uuid.Parse(ent.Name()); err != nil {
			continue
		}
		if c.isLive(ent.Name()) {
			continue
		}
		info, err := ent.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.workspace, ent.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (c *Compiler) hold(token string) {
	c.mu.Lock()
	c.live[token] = struct{}{}
	c.mu.Unlock()
}

func (c *Compiler) isLive(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live[token]
	return ok
}

func (c *Compiler) discard(token, dir string) error {
	err := os.RemoveAll(dir)
	c.mu.Lock()
	delete(c.live, token)
	c.mu.Unlock()
	if err != nil {
		slog.Warn("Failed to remove call directory", logfields.Token(token), logfields.Error(err))
	}
	return err
}

func ctxError(err error, res *engine.Result) *Error {
	reason, msg := ReasonCanceled, "compilation canceled"
	if errors.Is(err, context.DeadlineExceeded) {
		reason, msg = ReasonTimeout, "compilation timed out"
	}
	var stdout, stderr []byte
	if res != nil {
		stdout, stderr = res.Stdout, res.Stderr
	}
	ce := compilationError(reason, msg, stdout, stderr)
	ce.Cause = err
	return ce
}

func writeSource(path, text string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// sanitizeStem keeps letters, digits, '-' and '_' from name, dropping any
// directory part and extension.
func sanitizeStem(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= 64 {
			break
		}
	}
	if b.Len() == 0 {
		return DefaultStem
	}
	return b.String()
}

// redact strips the call directory from engine output so server paths do
// not reach clients.
func redact(res *engine.Result, dir string) *engine.Result {
	if res == nil {
		return nil
	}
	out := *res
	out.Stdout = redactBytes(res.Stdout, dir)
	out.Stderr = redactBytes(res.Stderr, dir)
	return &out
}

func redactBytes(b []byte, dir string) []byte {
	if len(b) == 0 {
		return b
	}
	s := strings.ReplaceAll(string(b), dir+string(filepath.Separator), "")
	return []byte(strings.ReplaceAll(s, dir, "."))
}
