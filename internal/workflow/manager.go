// Package workflow runs the daemon's job loop: it polls the queue for
// pending jobs and hands each to the pipeline, bounding how many run at once.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/queue"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultRetryInterval = 10 * time.Second
)

// Manager owns the polling loop and the worker pool.
type Manager struct {
	cfg    *config.Config
	store  *queue.Store
	runner *pipeline.Runner
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
	workers chan struct{}
}

// NewManager builds a manager from its collaborators.
func NewManager(cfg *config.Config, store *queue.Store, runner *pipeline.Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	concurrency := cfg.Workflow.MaxConcurrentJobs
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{
		cfg:     cfg,
		store:   store,
		runner:  runner,
		logger:  logger.With(logging.String(logging.FieldComponent, "workflow")),
		workers: make(chan struct{}, concurrency),
	}
}

// Start resets jobs stranded mid-stage by a previous crash and begins the
// polling loop. It returns immediately; work happens in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		m.logger.Info("reset interrupted jobs", logging.Int64("count", reset))
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(loopCtx)
	m.logger.Info("workflow started",
		logging.Int("max_concurrent_jobs", cap(m.workers)))
	return nil
}

// Stop cancels the loop and waits for in-flight jobs to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.done)

	poll := m.pollInterval()
	retry := m.retryInterval()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := m.dispatch(ctx); err != nil {
			m.logger.Error("queue poll failed", logging.Error(err))
			timer.Reset(retry)
			continue
		}
		timer.Reset(poll)
	}
}

// dispatch claims pending jobs while worker slots are free. A claimed job is
// moved out of pending before its goroutine starts so the next poll cannot
// pick it up again.
func (m *Manager) dispatch(ctx context.Context) error {
	for {
		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			return nil
		default:
			return nil
		}

		job, err := m.store.NextForStatuses(ctx, queue.StatusPending)
		if err != nil {
			<-m.workers
			return err
		}
		if job == nil {
			<-m.workers
			return nil
		}

		job.Advance(queue.StatusDownloading, 0)
		if err := m.store.Update(ctx, job); err != nil {
			<-m.workers
			return err
		}

		m.wg.Add(1)
		go func(job *queue.Job) {
			defer m.wg.Done()
			defer func() { <-m.workers }()
			if err := m.runner.Run(ctx, job); err != nil {
				m.logger.Error("job run failed",
					logging.Int64(logging.FieldJobID, job.ID),
					logging.Error(err))
			}
		}(job)
	}
}

func (m *Manager) pollInterval() time.Duration {
	if m.cfg.Workflow.QueuePollInterval > 0 {
		return time.Duration(m.cfg.Workflow.QueuePollInterval) * time.Second
	}
	return defaultPollInterval
}

func (m *Manager) retryInterval() time.Duration {
	if m.cfg.Workflow.ErrorRetryInterval > 0 {
		return time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	}
	return defaultRetryInterval
}
