// Package notify delivers guest-facing notifications off the booking path.
// Notifications are best-effort: a full queue or a publish failure never
// blocks or fails a booking.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/events"
)

// Publisher is the slice of events.Publisher the dispatcher needs.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any)
}

// Dispatcher fans notification jobs out to a bounded worker pool.
type Dispatcher struct {
	publisher Publisher
	queue     chan events.GuestEmailEvent
	workers   int
	logger    *zap.Logger
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewDispatcher creates a Dispatcher with the given queue size and worker count.
func NewDispatcher(publisher Publisher, queueSize, workers int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan events.GuestEmailEvent, queueSize),
		workers:   workers,
		logger:    logger,
	}
}

// Start launches the worker pool. Workers drain the queue until Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop closes the queue and waits for in-flight notifications to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

// EnqueueEmail queues a guest email notification. When the queue is full the
// notification is dropped and logged; bookings never wait on notifications.
func (d *Dispatcher) EnqueueEmail(email, template string, bookingID uuid.UUID) {
	job := events.GuestEmailEvent{
		Email:      email,
		Template:   template,
		BookingID:  bookingID,
		OccurredAt: time.Now().UTC(),
	}
	select {
	case d.queue <- job:
	default:
		d.logger.Warn("notification queue full, dropping",
			zap.String("template", template),
			zap.String("booking_id", bookingID.String()),
		)
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for job := range d.queue {
		d.publisher.Publish(ctx, events.TopicNotificationEvents, events.NotifyGuestEmail, job)
		d.logger.Debug("notification dispatched",
			zap.Int("worker", id),
			zap.String("template", job.Template),
		)
	}
}
