package janitor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/texcompile/internal/compiler"
	"github.com/gsarma/texcompile/internal/engine/enginetest"
	"github.com/gsarma/texcompile/internal/janitor"
	"github.com/gsarma/texcompile/internal/jobs"
)

type stubSweeper struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int
	err     error
}

func (s *stubSweeper) SweepStale(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.n, s.err
}

func (s *stubSweeper) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func TestRunOnce_ExpiresJobsAndReleasesArtifacts(t *testing.T) {
	c, err := compiler.New(context.Background(), compiler.Config{WorkspaceDir: t.TempDir()}, &enginetest.Fake{})
	require.NoError(t, err)
	art, err := c.Compile(context.Background(), "hello", "")
	require.NoError(t, err)

	store := jobs.NewStore()
	job := store.Create()
	require.NoError(t, store.Complete(job.ID, art))

	j, err := janitor.New(janitor.Config{JobTTL: time.Minute}, store, nil)
	require.NoError(t, err)

	st := j.RunOnce(time.Now())
	assert.Equal(t, 0, st.ExpiredJobs, "job is younger than the TTL")
	assert.FileExists(t, art.Path)

	st = j.RunOnce(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 1, st.ExpiredJobs)
	assert.NoFileExists(t, art.Path)
	_, err = store.Get(job.ID)
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestRunOnce_SweepsWithOrphanAge(t *testing.T) {
	sw := &stubSweeper{n: 3, err: errors.New("permission denied")}
	j, err := janitor.New(janitor.Config{OrphanAge: 10 * time.Minute}, jobs.NewStore(),
		func() janitor.Sweeper { return sw })
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := j.RunOnce(now)

	assert.Equal(t, 3, st.RemovedDirs)
	require.Len(t, sw.cutoffs, 1)
	assert.Equal(t, now.Add(-10*time.Minute), sw.cutoffs[0])
}

func TestRunOnce_NoWorkspaceYet(t *testing.T) {
	j, err := janitor.New(janitor.Config{OrphanAge: time.Minute}, nil, func() janitor.Sweeper { return nil })
	require.NoError(t, err)
	assert.Equal(t, janitor.Stats{}, j.RunOnce(time.Now()))
}

func TestRunOnce_RemovesRealOrphans(t *testing.T) {
	c, err := compiler.New(context.Background(), compiler.Config{WorkspaceDir: t.TempDir()}, &enginetest.Fake{})
	require.NoError(t, err)
	orphan := filepath.Join(c.WorkspaceDir(), "0b5f4b0e-58c4-4a8e-9a51-5a0c1d7b9e11")
	require.NoError(t, os.Mkdir(orphan, 0o750))

	j, err := janitor.New(janitor.Config{OrphanAge: time.Minute}, nil, func() janitor.Sweeper { return c })
	require.NoError(t, err)

	st := j.RunOnce(time.Now().Add(time.Hour))
	assert.Equal(t, 1, st.RemovedDirs)
	assert.NoDirExists(t, orphan)
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	sw := &stubSweeper{}
	j, err := janitor.New(janitor.Config{Interval: 20 * time.Millisecond, OrphanAge: time.Minute}, nil,
		func() janitor.Sweeper { return sw })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return sw.calls() >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
