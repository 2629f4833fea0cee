package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/events"
)

type capturePublisher struct {
	mu       sync.Mutex
	payloads []events.GuestEmailEvent
}

func (p *capturePublisher) Publish(ctx context.Context, topic, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job, ok := payload.(events.GuestEmailEvent); ok {
		p.payloads = append(p.payloads, job)
	}
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func TestDispatcherDeliversQueuedNotifications(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDispatcher(pub, 16, 2, zap.NewNop())
	d.Start(context.Background())

	for i := 0; i < 5; i++ {
		d.EnqueueEmail("guest@example.com", "booking_confirmed", uuid.New())
	}
	d.Stop()

	assert.Equal(t, 5, pub.count())
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDispatcher(pub, 1, 1, zap.NewNop())
	// Workers not started: the queue holds one job, the rest are dropped.

	for i := 0; i < 10; i++ {
		d.EnqueueEmail("guest@example.com", "booking_confirmed", uuid.New())
	}

	d.Start(context.Background())
	d.Stop()

	require.LessOrEqual(t, pub.count(), 1)
}

func TestDispatcherStopWaitsForInFlight(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDispatcher(pub, 16, 1, zap.NewNop())
	d.Start(context.Background())

	d.EnqueueEmail("guest@example.com", "booking_cancelled", uuid.New())

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, 1, pub.count())
}
