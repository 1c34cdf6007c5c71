package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"billed/internal/log"
)

// SyncProcessorConfig tunes the periodic pending-bill sweep.
type SyncProcessorConfig struct {
	// PollInterval is how often Sweep runs (default 30s).
	PollInterval time.Duration
	// SweepTimeout bounds a single sweep (default 1m).
	SweepTimeout time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		SweepTimeout: time.Minute,
	}
}

// SweepFunc pushes one batch of pending bills and reports how many it handled.
type SweepFunc func(ctx context.Context) (int, error)

// SyncProcessor runs a SweepFunc on a ticker. It is the backup path for
// sync messages lost while the broker or the worker was down.
type SyncProcessor struct {
	sweep  SweepFunc
	config SyncProcessorConfig
	logger *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var (
	ErrAlreadyRunning = errors.New("sync processor is already running")
	ErrNotRunning     = errors.New("sync processor is not running")
)

func NewSyncProcessor(sweep SweepFunc, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = def.SweepTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SyncProcessor{
		sweep:  sweep,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start sweeps once immediately, then every PollInterval, until ctx is done
// or Stop is called.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Ready backs the worker /readyz endpoint.
func (p *SyncProcessor) Ready(context.Context) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	return nil
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.runSweep(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runSweep(ctx)
		}
	}
}

func (p *SyncProcessor) runSweep(ctx context.Context) {
	if p.sweep == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.config.SweepTimeout)
	defer cancel()

	n, err := p.sweep(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Pending bill sweep failed", log.FieldError, err)
		return
	}
	if n > 0 {
		p.logger.InfoContext(ctx, "Pending bills swept", log.FieldCount, n)
	}
}
