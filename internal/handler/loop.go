package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNotStarted = errors.New("loop: not started")
	ErrStopped    = errors.New("loop: stopped")
)

// Handler processes payloads submitted to the loop.
type Handler interface {
	Handle(ctx context.Context, data []byte) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, data []byte) error

func (f HandlerFunc) Handle(ctx context.Context, data []byte) error { return f(ctx, data) }

// Config controls the behaviour of the single thread loop.
type Config struct {
	Handler   Handler
	QueueSize int
	Logger    *slog.Logger
}

// Loop delivers incoming payloads to the provided handler on a single goroutine.
// The handler is the only writer of whatever state it guards.
type Loop struct {
	handler Handler
	queue   chan []byte
	logger  *slog.Logger

	started atomic.Bool

	mu      sync.RWMutex // guards stopped and the close of queue
	stopped bool

	done chan struct{}
}

// New creates a Loop with the supplied configuration.
func New(cfg Config) (*Loop, error) {
	if cfg.Handler == nil {
		return nil, errors.New("loop: handler is required")
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		handler: cfg.Handler,
		queue:   make(chan []byte, queueSize),
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the single-thread loop. It must be called once.
// Cancelling ctx abandons queued payloads; use Stop to process them first.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("loop: start called multiple times")
	}
	go l.run(ctx)
	return nil
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "loop: context cancelled, shutting down", "err", ctx.Err())
			return
		case data, ok := <-l.queue:
			if !ok {
				l.logger.InfoContext(ctx, "loop: queue closed, exiting")
				return
			}
			if err := l.handler.Handle(ctx, data); err != nil {
				l.logger.DebugContext(ctx, "loop: handler error", "err", err)
			}
		}
	}
}

// Submit enqueues a payload to be processed by the loop.
func (l *Loop) Submit(ctx context.Context, data []byte) error {
	if !l.started.Load() {
		return ErrNotStarted
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		return ErrStopped
	}
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	case l.queue <- data:
		return nil
	}
}

// Stop closes the queue and waits until every payload already queued has been handled.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return errors.New("loop: stop called multiple times")
	}
	l.stopped = true
	close(l.queue)
	l.mu.Unlock()

	if !l.started.Load() {
		return nil
	}
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DrainTimeout is Stop bounded by timeout.
func (l *Loop) DrainTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.Stop(ctx)
}
