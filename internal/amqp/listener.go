package amqp

import (
	"context"
	"time"

	"budget/internal/ledger"
	"budget/internal/log"
)

const (
	// DefaultBuffer is the number of events a Listener holds while the
	// broker is slow.
	DefaultBuffer = 64
	drainTimeout  = 5 * time.Second
)

// Publisher sends ledger events. *Client implements it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *LedgerChangedMessage) error
}

// Listener queues every ledger change and publishes it from Run, so a slow
// or unreachable broker never holds up a mutation. Publish failures are
// logged only; the change has already been applied.
type Listener struct {
	publisher Publisher
	logger    *log.Logger
	queue     chan *LedgerChangedMessage
}

func NewListener(publisher Publisher, logger *log.Logger, buffer int) *Listener {
	if logger == nil {
		logger = log.Discard()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Listener{
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentAMQP),
		queue:     make(chan *LedgerChangedMessage, buffer),
	}
}

// LedgerChanged enqueues the event and returns immediately. When the queue
// is full the event is dropped.
func (l *Listener) LedgerChanged(ctx context.Context, change ledger.Change, s ledger.Snapshot) {
	msg := NewLedgerChangedMessage(change, s)
	select {
	case l.queue <- msg:
	default:
		l.logger.WarnContext(ctx, "Ledger event queue full, dropping event",
			log.FieldOperation, log.OpPublish,
			log.FieldChange, msg.Change)
	}
}

// Run publishes queued events until ctx is done, then flushes what is
// still queued for up to drainTimeout.
func (l *Listener) Run(ctx context.Context) error {
	// Shutdown must not abort an event that is already on its way out.
	publishCtx := context.WithoutCancel(ctx)
	for {
		select {
		case msg := <-l.queue:
			l.publish(publishCtx, msg)
		case <-ctx.Done():
			l.drain(publishCtx)
			return nil
		}
	}
}

func (l *Listener) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for {
		select {
		case msg := <-l.queue:
			l.publish(ctx, msg)
		default:
			return
		}
	}
}

func (l *Listener) publish(ctx context.Context, msg *LedgerChangedMessage) {
	if err := l.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldChange, msg.Change,
			log.FieldError, err)
		return
	}
	l.logger.DebugContext(ctx, "Published ledger event", log.FieldChange, msg.Change)
}
