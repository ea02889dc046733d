// Package enginetest provides an in-memory engine.Runner for tests.
package enginetest

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/gsarma/texcompile/internal/engine"
)

// PDFMagic is the prefix of every artifact written by the helpers below.
var PDFMagic = []byte("%PDF-1.5\n")

// RunFunc implements a fake engine run.
type RunFunc func(ctx context.Context, e engine.Engine, inv engine.Invocation) (*engine.Result, error)

// Fake is a scriptable engine.Runner. The zero value reports every engine as
// available and behaves like Succeed(PDFMagic).
type Fake struct {
	// Available maps engine name to version. When nil every engine is available.
	Available map[string]string
	RunFunc   RunFunc

	mu     sync.Mutex
	probes []string
	runs   []engine.Invocation
}

var _ engine.Runner = (*Fake)(nil)

func (f *Fake) Probe(ctx context.Context, e engine.Engine) (string, error) {
	f.mu.Lock()
	f.probes = append(f.probes, e.Name)
	f.mu.Unlock()

	if f.Available == nil {
		return "fake " + e.Name, nil
	}
	v, ok := f.Available[e.Name]
	if !ok {
		return "", errors.New("executable file not found in $PATH")
	}
	return v, nil
}

func (f *Fake) Run(ctx context.Context, e engine.Engine, inv engine.Invocation) (*engine.Result, error) {
	f.mu.Lock()
	f.runs = append(f.runs, inv)
	fn := f.RunFunc
	f.mu.Unlock()

	if fn == nil {
		fn = Succeed(PDFMagic)
	}
	return fn(ctx, e, inv)
}

// Probes returns the engine names probed so far, in order.
func (f *Fake) Probes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.probes...)
}

// Runs returns the invocations seen so far.
func (f *Fake) Runs() []engine.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Invocation(nil), f.runs...)
}

// Succeed writes content to the artifact path and exits zero.
func Succeed(content []byte) RunFunc {
	return func(_ context.Context, e engine.Engine, inv engine.Invocation) (*engine.Result, error) {
		if err := os.WriteFile(e.ArtifactPath(inv), content, 0o640); err != nil {
			return nil, err
		}
		return &engine.Result{Stdout: []byte("Output written on artifact.\n")}, nil
	}
}

// EchoSource writes PDFMagic followed by the source file's contents, so each
// artifact can be traced back to the text that produced it.
func EchoSource() RunFunc {
	return func(_ context.Context, e engine.Engine, inv engine.Invocation) (*engine.Result, error) {
		src, err := os.ReadFile(inv.SourceFile)
		if err != nil {
			return nil, err
		}
		out := append(append([]byte(nil), PDFMagic...), src...)
		if err := os.WriteFile(e.ArtifactPath(inv), out, 0o640); err != nil {
			return nil, err
		}
		return &engine.Result{}, nil
	}
}

// Fail exits with code and the given streams, writing nothing.
func Fail(code int, stdout, stderr string) RunFunc {
	return func(context.Context, engine.Engine, engine.Invocation) (*engine.Result, error) {
		return &engine.Result{ExitCode: code, Stdout: []byte(stdout), Stderr: []byte(stderr)}, nil
	}
}

// NoArtifact exits zero without writing an artifact.
func NoArtifact(stdout string) RunFunc {
	return func(context.Context, engine.Engine, engine.Invocation) (*engine.Result, error) {
		return &engine.Result{Stdout: []byte(stdout)}, nil
	}
}

// Block waits until ctx ends, like an engine stuck on input.
func Block() RunFunc {
	return func(ctx context.Context, _ engine.Engine, _ engine.Invocation) (*engine.Result, error) {
		<-ctx.Done()
		return &engine.Result{ExitCode: -1}, ctx.Err()
	}
}
