package relay

import (
	"context"
	"time"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/repository"
)

// Relay drains PENDING outbox rows to the message bus on a fixed interval.
// One goroutine runs the loop, so ticks never overlap; a publish failure
// leaves the row PENDING for the next tick and never aborts the batch.
// Delivery to the bus is at-least-once.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
	log       logger.Logger

	done chan struct{}
}

func New(outbox repository.OutboxRepository, publisher Publisher, interval time.Duration, batchSize int, log logger.Logger) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
		done:      make(chan struct{}),
	}
}

// Start launches the relay loop. It stops when ctx is cancelled; Wait
// blocks until the in-flight tick has finished.
func (r *Relay) Start(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.log.Info("Outbox relay started",
			logger.StringField("interval", r.interval.String()),
			logger.IntField("batch_size", r.batchSize))

		for {
			select {
			case <-ctx.Done():
				r.log.Info("Outbox relay stopped")
				return
			case <-ticker.C:
				r.RelayOnce(ctx)
			}
		}
	}()
}

func (r *Relay) Wait() {
	<-r.done
}

// RelayOnce performs a single drain cycle and reports how many events were
// confirmed sent.
func (r *Relay) RelayOnce(ctx context.Context) int {
	events, err := r.outbox.ListPendingOutboxEvents(ctx, r.batchSize)
	if err != nil {
		r.log.Error("Failed to list pending outbox events",
			logger.ErrorField("error", err))
		return 0
	}

	if len(events) == 0 {
		return 0
	}

	r.log.Info("Relaying pending outbox events",
		logger.IntField("count", len(events)))

	var sent int
	for _, event := range events {
		if err := r.relayEvent(ctx, event); err != nil {
			// Status stays PENDING; the event retries on the next tick.
			r.log.Error("Failed to relay outbox event, will retry next cycle",
				logger.Int64Field("event_id", event.ID),
				logger.ErrorField("error", err))
			continue
		}
		sent++
	}

	return sent
}

func (r *Relay) relayEvent(ctx context.Context, event models.OutboxEvent) error {
	if err := r.publisher.Publish(ctx, event.Topic, []byte(event.Payload)); err != nil {
		return err
	}

	if err := r.outbox.MarkOutboxEventSent(ctx, event.ID); err != nil {
		// The bus has the event but the row is still PENDING; the next tick
		// republishes it, which downstream consumers absorb by transaction id.
		return err
	}

	r.log.Debug("Relayed outbox event",
		logger.Int64Field("event_id", event.ID))
	return nil
}
