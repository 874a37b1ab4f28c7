package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cliniclink/recordsync/internal/logger"
)

// Syncer is what the background job drives: any engine regardless of its
// payload type.
type Syncer interface {
	Refresh(ctx context.Context) error
}

// Job periodically refreshes an engine. It is idle until Start is called.
type Job struct {
	syncer Syncer
	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJob creates a Job that calls syncer.Refresh on a ticker.
func NewJob(syncer Syncer, log *logger.Logger) *Job {
	return &Job{syncer: syncer, logger: log}
}

// Start stops any previously running job, then launches a background
// goroutine that refreshes every interval. A zero or negative interval
// defaults to 5 minutes. The goroutine exits when ctx is cancelled or Stop
// is called.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				err := j.syncer.Refresh(jobCtx)
				switch {
				case err == nil:
				case errors.Is(err, ErrOffline), errors.Is(err, ErrSyncFailed):
					// expected while disconnected or errored; the next
					// reconnect or a manual retry recovers
					j.logger.Debug().Err(err).Msg("periodic refresh skipped")
				default:
					j.logger.Warn().Err(err).Msg("periodic refresh failed")
				}
			}
		}
	}()
}

// Stop cancels the background goroutine and blocks until it has fully
// exited. Safe to call when the job is not running.
func (j *Job) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
