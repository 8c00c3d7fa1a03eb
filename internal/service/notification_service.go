package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/events"
)

// EventSink accepts events for asynchronous delivery. Enqueue must not block.
type EventSink interface {
	Enqueue(event events.Event) bool
}

// NotificationService logs domain events and forwards them to an optional sink.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink EventSink) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventChamadoCriado, n.handleChamadoCriado)
	n.dispatcher.Subscribe(events.EventChamadoStatusAlterado, n.handleStatusAlterado)
}

func (n *NotificationService) handleChamadoCriado(ctx context.Context, event events.Event) error {
	n.logger.Info("ChamadoCriado",
		zap.String("chamado_id", event.ChamadoID),
		zap.String("inep", event.INEP.String()),
		zap.Any("payload", event.Payload))
	n.forward(event)
	return nil
}

func (n *NotificationService) handleStatusAlterado(ctx context.Context, event events.Event) error {
	n.logger.Info("ChamadoStatusAlterado",
		zap.String("chamado_id", event.ChamadoID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Any("payload", event.Payload))
	n.forward(event)
	return nil
}

func (n *NotificationService) forward(event events.Event) {
	if n.sink == nil {
		return
	}
	if !n.sink.Enqueue(event) {
		n.logger.Warn("notification queue full; event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
}
