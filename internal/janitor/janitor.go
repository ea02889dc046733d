// Package janitor periodically expires finished async jobs and removes call
// directories left in the workspace by crashed or abandoned compiles.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/gsarma/texcompile/internal/jobs"
	"github.com/gsarma/texcompile/internal/logfields"
)

// Sweeper removes stale call directories. *compiler.Compiler implements it.
type Sweeper interface {
	SweepStale(cutoff time.Time) (int, error)
}

type Config struct {
	Interval time.Duration
	// JobTTL is how long a finished job and its artifact stay retrievable.
	JobTTL time.Duration
	// OrphanAge is the minimum age of an unowned call directory before it is removed.
	OrphanAge time.Duration
}

// Stats reports what one pass cleaned up.
type Stats struct {
	ExpiredJobs int
	RemovedDirs int
}

// Janitor wraps a gocron scheduler running a single cleanup job.
type Janitor struct {
	cfg       Config
	scheduler gocron.Scheduler
	jobs      *jobs.Store
	// sweeper returns nil while no workspace exists yet.
	sweeper func() Sweeper
	now     func() time.Time
}

func New(cfg Config, store *jobs.Store, sweeper func() Sweeper) (*Janitor, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Janitor{cfg: cfg, scheduler: s, jobs: store, sweeper: sweeper, now: time.Now}, nil
}

// Run schedules the cleanup job and blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	_, err := j.scheduler.NewJob(
		gocron.DurationJob(j.cfg.Interval),
		gocron.NewTask(j.tick),
		gocron.WithName("workspace-janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create janitor job: %w", err)
	}

	slog.Info("Starting janitor", slog.Duration("interval", j.cfg.Interval))
	j.scheduler.Start()
	<-ctx.Done()

	slog.Info("Stopping janitor")
	if err := j.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("janitor shutdown: %w", err)
	}
	return nil
}

func (j *Janitor) tick() {
	st := j.RunOnce(j.now())
	if st.ExpiredJobs > 0 || st.RemovedDirs > 0 {
		slog.Info("Janitor pass", slog.Int("expired_jobs", st.ExpiredJobs), slog.Int("removed_dirs", st.RemovedDirs))
	}
}

// RunOnce performs a single cleanup pass as of now.
func (j *Janitor) RunOnce(now time.Time) Stats {
	var st Stats
	if j.jobs != nil && j.cfg.JobTTL > 0 {
		for _, job := range j.jobs.Expire(now.Add(-j.cfg.JobTTL)) {
			st.ExpiredJobs++
			if job.Artifact == nil {
				continue
			}
			if err := job.Artifact.Release(); err != nil {
				slog.Warn("Failed to release expired artifact", logfields.JobID(job.ID.String()), logfields.Error(err))
			}
		}
	}

	if j.sweeper == nil || j.cfg.OrphanAge <= 0 {
		return st
	}
	sw := j.sweeper()
	if sw == nil {
		return st
	}
	n, err := sw.SweepStale(now.Add(-j.cfg.OrphanAge))
	st.RemovedDirs = n
	if err != nil {
		slog.Warn("Workspace sweep incomplete", logfields.Error(err))
	}
	return st
}
