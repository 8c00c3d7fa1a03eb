package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/events"
	"github.com/educa-pb/demandas-service/internal/service"
)

// Poster delivers a JSON payload to an external endpoint.
type Poster interface {
	Enabled() bool
	Post(ctx context.Context, payload any) error
}

// FailureRecorder counts failed deliveries.
type FailureRecorder interface {
	RecordUpstreamFailure(service string)
}

const defaultQueueSize = 64

// NotificationWorker posts queued events from a single goroutine.
type NotificationWorker struct {
	poster   Poster
	logger   *zap.Logger
	recorder FailureRecorder
	timeout  time.Duration

	queue     chan events.Event
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewNotificationWorker builds a worker. queueSize <= 0 uses a default.
func NewNotificationWorker(poster Poster, logger *zap.Logger, recorder FailureRecorder, timeout time.Duration, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &NotificationWorker{
		poster:   poster,
		logger:   logger,
		recorder: recorder,
		timeout:  timeout,
		queue:    make(chan events.Event, queueSize),
	}
}

// Enqueue schedules delivery. It returns false when the queue is full. Events
// are accepted and discarded when no endpoint is configured.
func (w *NotificationWorker) Enqueue(event events.Event) bool {
	if w == nil || w.poster == nil || !w.poster.Enabled() {
		return true
	}
	select {
	case w.queue <- event:
		return true
	default:
		return false
	}
}

// Start launches the delivery loop.
func (w *NotificationWorker) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go w.run()
	})
}

// Stop drains the queue and waits for in-flight deliveries.
func (w *NotificationWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		w.deliver(event)
	}
}

func (w *NotificationWorker) deliver(event events.Event) {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if err := w.poster.Post(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		if w.recorder != nil {
			w.recorder.RecordUpstreamFailure("notification_webhook")
		}
		return
	}
	w.logger.Debug("notification delivered", zap.String("event_id", event.ID))
}

// StartNotificationWorker registers notification handlers and starts delivery.
func StartNotificationWorker(notificationService *service.NotificationService, w *NotificationWorker) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if w != nil {
		w.Start()
	}
}
