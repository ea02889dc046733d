package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gsarma/texcompile/internal/config"
	"github.com/gsarma/texcompile/internal/engine"
)

type EnginesCmd struct {
	config.Engine `embed:""`
}

func (e *EnginesCmd) Run(*CLI) error {
	if err := e.Engine.Validate(); err != nil {
		return err
	}
	return probeAll(context.Background(), os.Stdout, engine.NewExecRunner(), e.CompilerConfig().Candidates, e.ProbeTimeout)
}

// probeAll prints one line per candidate and fails when none is usable.
func probeAll(ctx context.Context, w io.Writer, r engine.Runner, candidates []engine.Engine, timeout time.Duration) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tSTATUS\tVERSION")
	found := false
	for _, c := range candidates {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		version, err := r.Probe(pctx, c)
		cancel()
		if err != nil {
			fmt.Fprintf(tw, "%s\tunavailable\t%v\n", c.Name, err)
			continue
		}
		found = true
		fmt.Fprintf(tw, "%s\tok\t%s\n", c.Name, version)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !found {
		return exitCoder{engine.ErrToolNotFound, 4}
	}
	return nil
}
