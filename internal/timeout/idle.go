package timeout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/logger"
)

// ErrIdle is the cancellation cause of a context whose timer fired
var ErrIdle = errors.New("idle timeout")

// IdleTimer cancels a context when no activity is reported for perIdle.
// Streams call Reset on every fragment they receive.
type IdleTimer struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	perIdle time.Duration
	timer   *time.Timer
	done    chan struct{}

	mu            sync.Mutex
	stopped       bool
	expired       bool
	idleStartTime time.Time
	resetCount    int64
}

// NewIdleTimer derives a context from parentCtx that is cancelled with ErrIdle
// after perIdle without a Reset. A non-positive perIdle disables the timer.
func NewIdleTimer(parentCtx context.Context, perIdle time.Duration) (context.Context, *IdleTimer) {
	ctx, cancel := context.WithCancelCause(parentCtx)

	it := &IdleTimer{
		ctx:           ctx,
		cancel:        cancel,
		perIdle:       perIdle,
		done:          make(chan struct{}),
		idleStartTime: time.Now(),
	}
	if perIdle <= 0 {
		return ctx, it
	}

	it.timer = time.NewTimer(perIdle)
	go it.watch()

	logger.Debug("IdleTimer created", zap.Duration("perIdle", perIdle))
	return ctx, it
}

// watch monitors the timer and contexts
func (it *IdleTimer) watch() {
	select {
	case <-it.ctx.Done():
	case <-it.done:
	case <-it.timer.C:
		it.handleTimeout()
	}
}

// handleTimeout is called when the timer expires
func (it *IdleTimer) handleTimeout() {
	it.mu.Lock()
	if it.stopped {
		it.mu.Unlock()
		return
	}
	it.expired = true
	idle := time.Since(it.idleStartTime)
	resets := it.resetCount
	it.mu.Unlock()

	logger.Warn("IdleTimer: timeout triggered",
		zap.Duration("perIdle", it.perIdle),
		zap.Duration("actualIdleDuration", idle),
		zap.Int64("resetCount", resets))

	it.cancel(fmt.Errorf("%w: no data for %s", ErrIdle, it.perIdle))
}

// Reset restarts the idle window when data is received
func (it *IdleTimer) Reset() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.stopped || it.expired || it.timer == nil {
		return
	}

	it.timer.Stop()
	it.timer.Reset(it.perIdle)
	it.idleStartTime = time.Now()
	it.resetCount++
}

// Expired reports whether the timer fired
func (it *IdleTimer) Expired() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.expired
}

// Stop releases the timer and the derived context. It is safe to call more than once.
func (it *IdleTimer) Stop() {
	it.mu.Lock()
	if it.stopped {
		it.mu.Unlock()
		return
	}
	it.stopped = true
	if it.timer != nil {
		it.timer.Stop()
	}
	close(it.done)
	resets := it.resetCount
	it.mu.Unlock()

	it.cancel(context.Canceled)
	logger.Debug("IdleTimer stopped", zap.Int64("resetCount", resets))
}

// GetResetCount returns the number of times Reset was called
func (it *IdleTimer) GetResetCount() int64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.resetCount
}
