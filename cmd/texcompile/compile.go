package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/config"
	"github.com/gsarma/texcompile/internal/engine"
)

type CompileCmd struct {
	config.Engine `embed:""`

	Source  string        `arg:"" help:"LaTeX source file, or - for stdin." type:"existingfile"`
	Output  string        `short:"o" help:"Where to write the PDF. Defaults to the source name with .pdf." placeholder:"FILE"`
	Timeout time.Duration `help:"Compile deadline." default:"60s"`
}

// exitCoder lets kong's FatalIfErrorf exit with a kind-specific status.
type exitCoder struct {
	error
	code int
}

func (e exitCoder) ExitCode() int { return e.code }
func (e exitCoder) Unwrap() error { return e.error }

var _ kong.ExitCoder = exitCoder{}

func (c *CompileCmd) Run(*CLI) error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	var (
		text []byte
		err  error
	)
	if c.Source == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(c.Source)
	}
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comp, err := compiler.New(ctx, c.CompilerConfig(), engine.NewExecRunner())
	if err != nil {
		return withExitCode(err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	stem := strings.TrimSuffix(filepath.Base(c.Source), filepath.Ext(c.Source))
	pdf, err := comp.CompileBytes(ctx, string(text), stem)
	if err != nil {
		var ce *compiler.Error
		if errors.As(err, &ce) && ce.Kind == compiler.KindCompilation {
			fmt.Fprintln(os.Stderr, ce.Detail())
		}
		return withExitCode(err)
	}

	out := c.Output
	if out == "" {
		if c.Source == "-" {
			out = compiler.DefaultStem + ".pdf"
		} else {
			out = strings.TrimSuffix(c.Source, filepath.Ext(c.Source)) + ".pdf"
		}
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d bytes) with %s\n", out, len(pdf), comp.Engine())
	return nil
}

// withExitCode maps pipeline failures to distinct exit statuses.
func withExitCode(err error) error {
	switch compiler.KindOf(err) {
	case compiler.KindInvalidInput:
		return exitCoder{err, 2}
	case compiler.KindCompilation:
		return exitCoder{err, 3}
	case compiler.KindToolNotFound:
		return exitCoder{err, 4}
	case compiler.KindIO:
		return exitCoder{err, 5}
	default:
		return err
	}
}
