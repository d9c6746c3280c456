package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jobboard/verification/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Tasks outlive the request that scheduled them: they receive a context that
// keeps the caller's values (correlation id, span) but not its cancellation,
// bounded by the manager's task timeout instead. Errors returned by tasks are
// collected and reported by Wait.
type Manager struct {
	mu          sync.Mutex
	errs        []error
	wg          *sync.WaitGroup
	sema        chan struct{}
	stateMu     sync.RWMutex
	closed      bool
	taskTimeout time.Duration
}

// NewManager creates a new Manager with the provided maximum concurrency and
// per-task timeout. A non-positive timeout leaves tasks unbounded.
func NewManager(maxGoroutine int, taskTimeout time.Duration) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		wg:          &sync.WaitGroup{},
		sema:        make(chan struct{}, maxGoroutine), // Semaphore to limit goroutines
		taskTimeout: taskTimeout,
	}
}

// Go schedules a function to run in a goroutine if capacity is available.
//
// If the manager is already at its concurrency limit, the function is not run
// and a warning is logged.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}: // Acquire a semaphore slot
		g.wg.Go(func() {
			g.stateMu.RUnlock()
			defer func() {
				<-g.sema // Release semaphore slot

				if rvr := recover(); rvr != nil {
					stack := debug.Stack()
					paths := stacktrace.InternalPaths(stack)
					if len(paths) == 0 {
						slog.ErrorContext(pCtx, "panic occurred in goroutine", "stack", string(stack))
					} else {
						slog.ErrorContext(pCtx, "panic occurred in goroutine", "stack", paths)
					}
				}
			}()

			ctx := context.WithoutCancel(pCtx)
			if g.taskTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, g.taskTimeout)
				defer cancel()
			}

			if err := f(ctx); err != nil {
				slog.WarnContext(ctx, "background task failed", "error", err)
				g.mu.Lock()
				g.errs = append(g.errs, err)
				g.mu.Unlock()
			}
		})

	default:
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "Maximum goroutine limit reached, failed to start new goroutine")
	}
}

// Wait blocks until all scheduled goroutines finish and returns any collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	if !g.closed {
		g.closed = true
	}
	g.stateMu.Unlock()

	g.wg.Wait()

	return errors.Join(g.errs...)
}
