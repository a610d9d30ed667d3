package relay_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutbox struct {
	mu     sync.Mutex
	events []models.OutboxEvent

	listErr     error
	markSentErr map[int64]error
}

func (f *fakeOutbox) ListPendingOutboxEvents(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var pending []models.OutboxEvent
	for _, e := range f.events {
		if e.Status == models.OutboxStatusPending {
			pending = append(pending, e)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (f *fakeOutbox) MarkOutboxEventSent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markSentErr[id]; err != nil {
		return err
	}
	for i := range f.events {
		if f.events[i].ID == id && f.events[i].Status == models.OutboxStatusPending {
			f.events[i].Status = models.OutboxStatusSent
		}
	}
	return nil
}

func (f *fakeOutbox) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, e := range f.events {
		if e.Status == models.OutboxStatusSent {
			n++
		}
	}
	return n
}

type fakeBus struct {
	published map[string][][]byte
	failures  int // first N publishes fail
	calls     int
}

func (b *fakeBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.calls++
	if b.calls <= b.failures {
		return errors.New("broker unreachable")
	}
	if b.published == nil {
		b.published = make(map[string][][]byte)
	}
	b.published[topic] = append(b.published[topic], payload)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func pendingEvents(n int) []models.OutboxEvent {
	events := make([]models.OutboxEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, models.OutboxEvent{
			ID:      int64(i + 1),
			Topic:   models.TopicTransferEvents,
			Payload: `{"transactionId":"TXN-1"}`,
			Status:  models.OutboxStatusPending,
		})
	}
	return events
}

func TestRelayOnceDrainsBatch(t *testing.T) {
	outbox := &fakeOutbox{events: pendingEvents(3)}
	bus := &fakeBus{}
	r := relay.New(outbox, bus, time.Second, 50, zap.NewNop())

	sent := r.RelayOnce(context.Background())

	assert.Equal(t, 3, sent)
	assert.Equal(t, 3, outbox.sentCount())
	assert.Len(t, bus.published[models.TopicTransferEvents], 3)
}

func TestRelayLeavesEventsPendingWhileBusDown(t *testing.T) {
	outbox := &fakeOutbox{events: pendingEvents(2)}
	bus := &fakeBus{failures: 1000}
	r := relay.New(outbox, bus, time.Second, 50, zap.NewNop())

	sent := r.RelayOnce(context.Background())

	assert.Zero(t, sent)
	assert.Zero(t, outbox.sentCount())
}

func TestRelayConvergesAfterBusRecovers(t *testing.T) {
	const n = 5
	outbox := &fakeOutbox{events: pendingEvents(n)}
	bus := &fakeBus{failures: 7} // more than one full tick fails first
	r := relay.New(outbox, bus, time.Second, 50, zap.NewNop())

	for tick := 0; tick < 5 && outbox.sentCount() < n; tick++ {
		r.RelayOnce(context.Background())
	}

	assert.Equal(t, n, outbox.sentCount(), "all events must eventually be SENT")
	for _, e := range outbox.events {
		assert.Equal(t, models.OutboxStatusSent, e.Status)
	}
}

func TestRelayOneFailingEventDoesNotBlockBatch(t *testing.T) {
	outbox := &fakeOutbox{
		events:      pendingEvents(3),
		markSentErr: map[int64]error{2: errors.New("row lock timeout")},
	}
	bus := &fakeBus{}
	r := relay.New(outbox, bus, time.Second, 50, zap.NewNop())

	sent := r.RelayOnce(context.Background())

	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, outbox.sentCount())
	// The bus still received all three; the PENDING row is republished next
	// tick and deduplicated downstream.
	assert.Len(t, bus.published[models.TopicTransferEvents], 3)
}

func TestRelayListFailureIsAbsorbed(t *testing.T) {
	outbox := &fakeOutbox{listErr: errors.New("connection reset")}
	bus := &fakeBus{}
	r := relay.New(outbox, bus, time.Second, 50, zap.NewNop())

	assert.Zero(t, r.RelayOnce(context.Background()))
	assert.Zero(t, bus.calls)
}

func TestRelayBatchLimit(t *testing.T) {
	outbox := &fakeOutbox{events: pendingEvents(10)}
	bus := &fakeBus{}
	r := relay.New(outbox, bus, time.Second, 4, zap.NewNop())

	sent := r.RelayOnce(context.Background())

	assert.Equal(t, 4, sent)
	assert.Equal(t, 4, outbox.sentCount())
}

func TestRelayStartStops(t *testing.T) {
	outbox := &fakeOutbox{events: pendingEvents(1)}
	bus := &fakeBus{}
	r := relay.New(outbox, bus, 5*time.Millisecond, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	require.Eventually(t, func() bool {
		return outbox.sentCount() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	r.Wait()
}
