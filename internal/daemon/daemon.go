// Package daemon assembles the transcription services and enforces
// single-instance execution via a lock file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/preflight"
	"scribe/internal/queue"
	"scribe/internal/refiner"
	"scribe/internal/services/languagetool"
	"scribe/internal/services/punctuate"
	"scribe/internal/services/whisper"
	"scribe/internal/services/ytdlp"
	"scribe/internal/workflow"
)

// Daemon owns the queue store, the workflow manager, and the HTTP API.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	server   *api.Server
	refiner  *refiner.Refiner
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	APIAddr      string
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with all dependencies wired from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := preflight.Run(cfg, logger); err != nil {
		return nil, err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	source := ytdlp.NewService(cfg, logger)
	transcriber := whisper.NewService(cfg, logger)

	var grammar *refiner.Registry
	if cfg.LanguageTool.Enabled {
		grammar = refiner.NewRegistry(languagetool.NewClient(cfg, logger).CorrectorFactory())
	}

	// punctuate.NewService returns a typed nil when disabled; assigning it
	// to the interface directly would make the nil check in the refiner
	// pass and crash at call time.
	var restorer refiner.PunctuationRestorer
	if svc := punctuate.NewService(cfg, logger); svc != nil {
		restorer = svc
	}

	opts := refiner.OptionsFromConfig(cfg)
	if restorer == nil {
		opts.RestorePunctuation = false
	}
	ref := refiner.New(opts, restorer, grammar, logger)

	runner := pipeline.NewRunner(store, source, transcriber, ref, cfg.Paths.AudioDir, logger)
	manager := workflow.NewManager(cfg, store, runner, logger)

	service := api.NewJobService(cfg, store, source, logger)
	server := api.NewServer(cfg.Paths.APIBind, service, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "scribed.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: manager,
		server:   server,
		refiner:  ref,
		logPath:  filepath.Join(cfg.Paths.LogDir, "scribe.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, launches the workflow manager, and begins
// serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scribe daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.server != nil {
		if err := d.server.Start(); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start api server: %w", err)
		}
	}

	d.running.Store(true)
	d.logger.Info("scribe daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.APIAddr()))
	return nil
}

// Stop halts background processing, shuts down the API, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if d.server != nil {
		if err := d.server.Stop(context.Background()); err != nil {
			d.logger.Warn("failed to stop api server", logging.Error(err))
		}
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("scribe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.refiner != nil {
		errs = append(errs, d.refiner.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// APIAddr returns the bound API address, or "" when the API is disabled.
func (d *Daemon) APIAddr() string {
	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		APIAddr:      d.APIAddr(),
		QueueDBPath:  filepath.Join(d.cfg.Paths.LogDir, "jobs.db"),
		LockFilePath: d.lockPath,
	}
}
