// Package engine wraps the external TeX programs that typeset documents.
//
// An Engine is an immutable description of one program (pdflatex, xelatex,
// lualatex). A Runner knows how to probe for an engine and run it against a
// source file; ExecRunner does this with real subprocesses, tests use fakes.
package engine

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Engine identifies an external document-processing program.
type Engine struct {
	Name      string `json:"name"`
	OutputExt string `json:"output_ext"`
	// Version is the first line of the engine's --version output, filled in by Locate.
	Version string `json:"version,omitempty"`
}

var (
	PDFLaTeX = Engine{Name: "pdflatex", OutputExt: ".pdf"}
	XeLaTeX  = Engine{Name: "xelatex", OutputExt: ".pdf"}
	LuaLaTeX = Engine{Name: "lualatex", OutputExt: ".pdf"}
)

// DefaultCandidates returns the engines in preference order.
func DefaultCandidates() []Engine {
	return []Engine{PDFLaTeX, XeLaTeX, LuaLaTeX}
}

// FromNames maps configured engine names to engines, keeping their order.
// Unknown names are accepted and assumed to produce PDF output.
func FromNames(names []string) []Engine {
	known := map[string]Engine{}
	for _, e := range DefaultCandidates() {
		known[e.Name] = e
	}
	out := make([]Engine, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if e, ok := known[n]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, Engine{Name: n, OutputExt: ".pdf"})
	}
	return out
}

func (e Engine) String() string {
	if e.Version == "" {
		return e.Name
	}
	return e.Name + " (" + e.Version + ")"
}

// Invocation describes one run of an engine against a source file.
type Invocation struct {
	SourceFile string
	OutputDir  string
}

// Args returns the command-line arguments for inv: batch mode, an explicit
// output directory and the source file.
func (e Engine) Args(inv Invocation) []string {
	return []string{
		"-interaction=nonstopmode",
		"-output-directory", inv.OutputDir,
		inv.SourceFile,
	}
}

// ArtifactPath is where the engine writes its output for inv: the source
// file's stem with the engine's output extension, inside the output directory.
func (e Engine) ArtifactPath(inv Invocation) string {
	base := filepath.Base(inv.SourceFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(inv.OutputDir, stem+e.OutputExt)
}

// Result is the captured outcome of a finished engine subprocess.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Success reports whether the subprocess exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner defines how engines are probed and executed.
type Runner interface {
	// Probe runs a side-effect-free version query and returns its first
	// output line. A nil error means the engine is available.
	Probe(ctx context.Context, e Engine) (string, error)
	// Run invokes e for inv and waits for it to exit. A non-zero exit is
	// reported through Result.ExitCode, not as an error. When ctx ends first
	// the subprocess is killed and ctx.Err() is returned along with whatever
	// output was captured.
	Run(ctx context.Context, e Engine, inv Invocation) (*Result, error)
}
