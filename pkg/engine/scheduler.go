package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glowkit/filterchain/pkg/imaging"
)

// DefaultDebounce is the delay between the last state change and the start
// of a render, long enough to swallow intermediate slider ticks.
const DefaultDebounce = 80 * time.Millisecond

// Renderer is the render primitive the scheduler drives.
type Renderer interface {
	Render(ctx context.Context, in RenderInput) (*imaging.Image, error)
}

// ExecutionResult is one delivered render outcome: an image or a failure.
// Cancelled renders are never delivered.
type ExecutionResult struct {
	Image *imaging.Image
	Err   error
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// Logger receives scheduling events; nil disables logging.
	Logger *zap.Logger
}

// Scheduler coalesces render requests: only the most recent complete input
// state is rendered, superseded in-flight renders are cancelled, and a stale
// result is never delivered after a newer request was accepted.
type Scheduler struct {
	renderer Renderer
	debounce time.Duration
	logger   *zap.Logger
	results  chan ExecutionResult

	mu       sync.Mutex
	seq      uint64
	pending  *RenderInput
	last     *RenderInput
	cancel   context.CancelFunc
	timer    *time.Timer
	inflight sync.WaitGroup
	closed   bool
}

// NewScheduler creates a scheduler over the given renderer.
func NewScheduler(renderer Renderer, opts SchedulerOptions) *Scheduler {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		renderer: renderer,
		debounce: debounce,
		logger:   logger,
		results:  make(chan ExecutionResult, 1),
	}
}

// Results delivers render outcomes. The channel holds at most the latest
// result; an unconsumed stale result is replaced rather than queued.
func (s *Scheduler) Results() <-chan ExecutionResult {
	return s.results
}

// Submit records a new desired render input. Requests arriving within the
// debounce window replace each other; an in-flight render for an older
// request is cancelled.
func (s *Scheduler) Submit(in RenderInput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.last != nil && sameInput(*s.last, in) && s.pending == nil {
		s.logger.Debug("submit ignored, state unchanged")
		return
	}

	s.seq++
	s.pending = &in
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// fire starts a render for the pending input, if it is still the latest.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || s.pending == nil {
		s.mu.Unlock()
		return
	}
	in := *s.pending
	seq := s.seq
	s.pending = nil

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		img, err := s.renderer.Render(ctx, in)
		cancel()
		s.deliver(seq, in, img, err)
	}()
}

// deliver publishes a result unless a newer request superseded it.
func (s *Scheduler) deliver(seq uint64, in RenderInput, img *imaging.Image, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if seq != s.seq {
		s.logger.Debug("discarding superseded render", zap.Uint64("seq", seq))
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	s.last = &in

	// Latest wins: replace an unconsumed result instead of queueing.
	select {
	case <-s.results:
	default:
	}
	s.results <- ExecutionResult{Image: img, Err: err}
}

// Close cancels any in-flight render, waits for it to finish, and closes the
// results channel.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.inflight.Wait()
	close(s.results)
}

// sameInput reports whether two inputs describe the same render state:
// equal chains, identical image values, and the same scaling flag.
func sameInput(a, b RenderInput) bool {
	if !a.Chain.Equal(b.Chain) || a.ScaleSecondaryToFit != b.ScaleSecondaryToFit {
		return false
	}
	if a.Base.Pixels != b.Base.Pixels || a.Base.Orientation != b.Base.Orientation {
		return false
	}
	if (a.Secondary == nil) != (b.Secondary == nil) {
		return false
	}
	if a.Secondary != nil && a.Secondary.Pixels != b.Secondary.Pixels {
		return false
	}
	return true
}
