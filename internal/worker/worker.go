package worker

import (
	"context"
	"log"
	"time"

	"quickbasket/internal/events"
)

type Consumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, payload []byte) error) error
}

type Worker struct {
	Consumer Consumer
	Notifier *Notifier
}

// Run consumes order events until the context is cancelled, reconnecting
// after consumer failures.
func (w *Worker) Run(ctx context.Context) {
	for {
		if err := w.Consumer.Consume(ctx, w.Handle); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("consume error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}

func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	event, err := decode(payload)
	if err != nil {
		// A malformed event will never become parseable; drop it rather
		// than wedging the partition.
		log.Printf("drop malformed event: %v", err)
		return nil
	}

	switch event.Type {
	case events.TypeOrderCreated:
		return w.Notifier.OrderCreated(ctx, event)
	case events.TypeOrderStatusChanged:
		return w.Notifier.StatusChanged(ctx, event)
	default:
		log.Printf("ignore unknown event type %q", event.Type)
		return nil
	}
}
