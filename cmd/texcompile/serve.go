package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/gsarma/texcompile/internal/api"
	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/config"
	"github.com/gsarma/texcompile/internal/engine"
	"github.com/gsarma/texcompile/internal/janitor"
	"github.com/gsarma/texcompile/internal/jobs"
	"github.com/gsarma/texcompile/internal/logfields"
	"github.com/gsarma/texcompile/internal/metrics"
	"github.com/gsarma/texcompile/internal/worker"
)

type ServeCmd struct {
	config.Engine `embed:""`
	config.Server `embed:""`
}

func (s *ServeCmd) Run(cli *CLI) error {
	if err := errors.Join(s.Engine.Validate(), s.Server.Validate()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cli.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if s.Metrics {
		reg := metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	runner := engine.NewExecRunner()
	compilers := compiler.NewProvider(func(ctx context.Context) (*compiler.Compiler, error) {
		return compiler.New(ctx, s.CompilerConfig(), runner, compiler.WithRecorder(recorder))
	}, compiler.WithFailureBackoff(s.ProbeBackoff))
	// Locate the engine eagerly so misconfiguration shows up in the startup
	// log; a failure here is retried once the backoff has passed.
	if c, err := compilers.Get(ctx); err != nil {
		slog.Warn("No TeX engine available yet", logfields.Error(err))
	} else {
		slog.Info("Compiler ready", logfields.Engine(c.Engine().String()), logfields.Path(c.WorkspaceDir()))
	}

	pool := worker.New(s.Workers, s.QueueSize, recorder)
	store := jobs.NewStore()
	jan, err := janitor.New(janitor.Config{
		Interval:  s.JanitorInterval,
		JobTTL:    s.JobTTL,
		OrphanAge: s.OrphanAge(),
	}, store, func() janitor.Sweeper {
		if c := compilers.Current(); c != nil {
			return c
		}
		return nil
	})
	if err != nil {
		return err
	}

	router := gin.Default()
	h := api.NewHandler(compilers, pool, store, api.Options{
		DefaultTimeout: s.CompileTimeout,
		MaxTimeout:     s.MaxTimeout,
		APIKeys:        s.APIKeys,
	})
	api.RegisterRoutes(router, h, metricsHandler)

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Sync compiles hold the response open for up to MaxTimeout.
		WriteTimeout: s.MaxTimeout + 30*time.Second,
	}

	// The worker pool outlives the HTTP server so that in-flight sync
	// requests can finish during shutdown.
	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool.Start(poolCtx)
		return nil
	})
	g.Go(func() error { return jan.Run(gctx) })
	g.Go(func() error {
		slog.Info("texcompile listening", "addr", srv.Addr, "workers", s.Workers, "queue", s.QueueSize)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "grace", s.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopPool()
		return err
	})
	return g.Wait()
}
