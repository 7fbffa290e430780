// Package jobmgr runs named background jobs with cancellation and in-memory
// tracking. A job runs until its function returns or it is stopped:
//
//	jm := jobmgr.NewManager(ctx, log)
//	_ = jm.StartAsync("idle-guard", guard.Run)
//	...
//	jm.StopAll()
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrRunning is returned when starting a job whose name is taken.
var ErrRunning = errors.New("job already running")

// ErrNotRunning is returned when stopping an unknown job.
var ErrNotRunning = errors.New("job not running")

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	ctx  context.Context
	log  zerolog.Logger
	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager returns a Manager whose jobs are cancelled with ctx.
func NewManager(ctx context.Context, log zerolog.Logger) *Manager {
	return &Manager{
		ctx:  ctx,
		log:  log.With().Str("component", "jobs").Logger(),
		jobs: make(map[string]*job),
	}
}

// StartAsync runs fn in its own goroutine under name. The job is forgotten
// once fn returns.
func (m *Manager) StartAsync(name string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrRunning, name)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.log.Info().Str("job", name).Msg("job started")
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error().Err(err).Str("job", name).Msg("job failed")
		} else {
			m.log.Info().Str("job", name).Msg("job finished")
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels the named job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, name)
	}
	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every job and waits for all of them.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Status returns a one line summary of running jobs.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}
