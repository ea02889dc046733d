package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrToolNotFound is returned by Locate when no candidate engine responds.
var ErrToolNotFound = errors.New("no TeX engine found, install TeX Live or MiKTeX")

// DefaultProbeTimeout bounds each candidate's version query.
const DefaultProbeTimeout = 5 * time.Second

// Locate returns the first candidate whose version probe succeeds, with its
// Version filled in. Candidates are tried in order; each probe gets at most
// probeTimeout.
func Locate(ctx context.Context, r Runner, candidates []Engine, probeTimeout time.Duration) (Engine, error) {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Engine{}, err
		}
		tried = append(tried, c.Name)

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		version, err := r.Probe(probeCtx, c)
		cancel()
		if err != nil {
			slog.Debug("Engine probe failed", "engine", c.Name, "error", err)
			continue
		}

		c.Version = version
		slog.Info("Selected TeX engine", "engine", c.Name, "version", version)
		return c, nil
	}
	return Engine{}, fmt.Errorf("%w (tried: %s)", ErrToolNotFound, strings.Join(tried, ", "))
}
