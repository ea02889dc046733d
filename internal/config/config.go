// Package config defines the command-line, environment and file settings of
// texcompile. Flags are parsed with kong; every flag can also be set through
// an environment variable or a YAML config file (see YAML).
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/engine"
)

// Engine holds the settings needed to build a compiler.
type Engine struct {
	Workspace    string        `help:"Directory holding per-request compile directories." env:"TEXCOMPILE_WORKSPACE" placeholder:"DIR"`
	Engines      []string      `help:"TeX engines to probe, in preference order." default:"pdflatex,xelatex,lualatex" env:"TEXCOMPILE_ENGINES" sep:","`
	ProbeTimeout time.Duration `help:"Upper bound on each engine --version probe." default:"5s" env:"TEXCOMPILE_PROBE_TIMEOUT"`
	ProbeBackoff time.Duration `help:"How long a failed engine lookup is reported before probing again." default:"10s" env:"TEXCOMPILE_PROBE_BACKOFF"`
}

// CompilerConfig converts the flags into a compiler.Config.
func (e Engine) CompilerConfig() compiler.Config {
	return compiler.Config{
		WorkspaceDir: e.Workspace,
		Candidates:   engine.FromNames(e.Engines),
		ProbeTimeout: e.ProbeTimeout,
	}
}

func (e Engine) Validate() error {
	if len(engine.FromNames(e.Engines)) == 0 {
		return errors.New("at least one engine is required")
	}
	if e.ProbeTimeout <= 0 {
		return errors.New("probe-timeout must be positive")
	}
	if e.ProbeBackoff < 0 {
		return errors.New("probe-backoff must not be negative")
	}
	return nil
}

// Server holds the HTTP service settings.
type Server struct {
	Host string `help:"Interface to bind." default:"0.0.0.0" env:"HOST"`
	Port int    `help:"Port to listen on." default:"9000" env:"PORT"`

	CompileTimeout  time.Duration `help:"Compile deadline when a request sets no timeout_seconds." default:"60s" env:"TEXCOMPILE_COMPILE_TIMEOUT"`
	MaxTimeout      time.Duration `help:"Largest accepted timeout_seconds." default:"5m" env:"TEXCOMPILE_MAX_TIMEOUT"`
	Workers         int           `help:"Concurrent engine processes." default:"4" env:"TEXCOMPILE_WORKERS"`
	QueueSize       int           `help:"Compiles allowed to wait for a worker." default:"64" env:"TEXCOMPILE_QUEUE_SIZE"`
	JobTTL          time.Duration `name:"job-ttl" help:"How long async results stay retrievable." default:"15m" env:"TEXCOMPILE_JOB_TTL"`
	JanitorInterval time.Duration `help:"How often expired jobs and orphaned directories are cleaned up." default:"1m" env:"TEXCOMPILE_JANITOR_INTERVAL"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"30s" env:"TEXCOMPILE_SHUTDOWN_TIMEOUT"`
	Metrics         bool          `help:"Serve Prometheus metrics on /metrics." default:"true" env:"TEXCOMPILE_METRICS" negatable:""`
	APIKeys         []string      `name:"api-key" help:"Bearer key accepted on compile and job routes. Repeatable; none disables auth." env:"TEXCOMPILE_API_KEYS" sep:"," placeholder:"KEY"`
}

// Addr is the listen address.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// OrphanAge is the age after which an unowned call directory is certainly abandoned.
func (s Server) OrphanAge() time.Duration {
	return s.JobTTL + s.MaxTimeout
}

func (s Server) Validate() error {
	var errs []error
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", s.Port))
	}
	if s.CompileTimeout <= 0 {
		errs = append(errs, errors.New("compile-timeout must be positive"))
	}
	if s.MaxTimeout < s.CompileTimeout {
		errs = append(errs, fmt.Errorf("max-timeout %s is below compile-timeout %s", s.MaxTimeout, s.CompileTimeout))
	}
	if s.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if s.QueueSize < 0 {
		errs = append(errs, errors.New("queue-size must not be negative"))
	}
	if s.JobTTL <= 0 {
		errs = append(errs, errors.New("job-ttl must be positive"))
	}
	if s.JanitorInterval <= 0 {
		errs = append(errs, errors.New("janitor-interval must be positive"))
	}
	return errors.Join(errs...)
}
