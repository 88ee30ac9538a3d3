package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/maksimkurb/proxycfg/src/internal/log"
)

// RestartableRunner runs a long-lived function and restarts it with
// exponential backoff when it fails or panics.
type RestartableRunner struct {
	name           string
	runFunc        func(ctx context.Context) error
	maxRestarts    int           // 0 means unlimited
	restartBackoff time.Duration // Initial backoff duration
	maxBackoff     time.Duration // Maximum backoff duration
	done           chan struct{}
}

// RunnerConfig contains configuration for RestartableRunner.
type RunnerConfig struct {
	Name           string
	MaxRestarts    int           // 0 = unlimited restarts
	RestartBackoff time.Duration // Initial backoff (default: 1s)
	MaxBackoff     time.Duration // Max backoff (default: 30s)
}

// NewRestartableRunner creates a new restartable runner.
func NewRestartableRunner(cfg RunnerConfig, runFunc func(ctx context.Context) error) *RestartableRunner {
	if cfg.RestartBackoff == 0 {
		cfg.RestartBackoff = 1 * time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 30 * time.Second
	}

	return &RestartableRunner{
		name:           cfg.Name,
		runFunc:        runFunc,
		maxRestarts:    cfg.MaxRestarts,
		restartBackoff: cfg.RestartBackoff,
		maxBackoff:     cfg.MaxBackoff,
		done:           make(chan struct{}),
	}
}

// Start runs the loop in a goroutine until ctx is done, the function exits
// cleanly or the restart limit is reached.
func (r *RestartableRunner) Start(ctx context.Context) {
	go r.runLoop(ctx)
}

// Done is closed when the loop has stopped.
func (r *RestartableRunner) Done() <-chan struct{} {
	return r.done
}

func (r *RestartableRunner) runLoop(ctx context.Context) {
	defer close(r.done)

	backoff := r.restartBackoff
	restarts := 0

	for {
		err := r.runWithRecovery(ctx)
		if err == nil {
			log.Infof("%s: exited cleanly", r.name)
			return
		}
		if ctx.Err() != nil {
			log.Infof("%s: context cancelled, stopping", r.name)
			return
		}

		restarts++
		if r.maxRestarts > 0 && restarts >= r.maxRestarts {
			log.Errorf("%s: max restarts (%d) reached, giving up. Last error: %v", r.name, r.maxRestarts, err)
			return
		}

		log.Errorf("%s: crashed with error: %v. Restarting in %v (restart #%d)", r.name, err, backoff, restarts)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

func (r *RestartableRunner) runWithRecovery(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()

	return r.runFunc(ctx)
}
