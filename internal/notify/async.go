package notify

import (
	"context"
	"log/slog"
	"sync"

	"docflow/internal/domain"
)

// eventKind distinguishes the three notifier callbacks on the wire.
type eventKind int

const (
	kindCreated eventKind = iota
	kindAssigned
	kindCompleted
)

type queuedEvent struct {
	kind eventKind
	ev   domain.ReviewEvent
}

// AsyncNotifier decouples event delivery from the request path: calls
// enqueue onto a bounded channel consumed by a single worker goroutine that
// forwards to the wrapped delegate. When the queue is full the event is
// dropped and logged; notification is best-effort by contract.
//
// The worker is owned by whoever constructs the AsyncNotifier (the app),
// not by the engine; Close drains the queue and stops it.
type AsyncNotifier struct {
	delegate domain.Notifier
	logger   *slog.Logger
	queue    chan queuedEvent
	done     chan struct{}
	once     sync.Once

	// mu guards closed so enqueue never sends on the closed queue.
	mu     sync.RWMutex
	closed bool
}

var _ domain.Notifier = (*AsyncNotifier)(nil)

// NewAsyncNotifier starts the delivery worker. bufferSize <= 0 defaults
// to 256.
func NewAsyncNotifier(delegate domain.Notifier, bufferSize int, logger *slog.Logger) *AsyncNotifier {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	n := &AsyncNotifier{
		delegate: delegate,
		logger:   logger,
		queue:    make(chan queuedEvent, bufferSize),
		done:     make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for qe := range n.queue {
		ctx := context.Background()
		switch qe.kind {
		case kindCreated:
			n.delegate.ReviewCreated(ctx, qe.ev)
		case kindAssigned:
			n.delegate.ReviewAssigned(ctx, qe.ev)
		case kindCompleted:
			n.delegate.ReviewCompleted(ctx, qe.ev)
		}
	}
}

// Close stops accepting events, waits for the queue to drain, and stops
// the worker.
func (n *AsyncNotifier) Close() {
	n.once.Do(func() {
		n.mu.Lock()
		n.closed = true
		n.mu.Unlock()
		close(n.queue)
		<-n.done
	})
}

func (n *AsyncNotifier) enqueue(kind eventKind, ev domain.ReviewEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.logger.Warn("notifier closed, event dropped", "review_id", ev.ReviewID)
		return
	}
	select {
	case n.queue <- queuedEvent{kind: kind, ev: ev}:
	default:
		n.logger.Warn("notification queue full, event dropped", "review_id", ev.ReviewID)
	}
}

func (n *AsyncNotifier) ReviewCreated(_ context.Context, ev domain.ReviewEvent) {
	n.enqueue(kindCreated, ev)
}

func (n *AsyncNotifier) ReviewAssigned(_ context.Context, ev domain.ReviewEvent) {
	n.enqueue(kindAssigned, ev)
}

func (n *AsyncNotifier) ReviewCompleted(_ context.Context, ev domain.ReviewEvent) {
	n.enqueue(kindCompleted, ev)
}
