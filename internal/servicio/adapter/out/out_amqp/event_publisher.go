package out_amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/mq"
)

// EventPublisher публикует события диспетчеризации в servicio_topic.
// Вызывающие use cases глотают ошибку публикации: переход состояния
// не откатывается из-за недоступного брокера.
type EventPublisher struct {
	mq  *mq.RabbitMQ
	log *logger.Logger
}

func NewEventPublisher(broker *mq.RabbitMQ, log *logger.Logger) *EventPublisher {
	return &EventPublisher{mq: broker, log: log}
}

func (p *EventPublisher) PublishServicioCreado(ctx context.Context, s *domain.Servicio) error {
	return p.publish(ctx, mq.KeyServicioCreado, s.ID, s)
}

func (p *EventPublisher) PublishCambioEstado(ctx context.Context, cambio *domain.CambioEstado) error {
	return p.publish(ctx, mq.KeyServicioEstado, cambio.ServicioID, cambio)
}

func (p *EventPublisher) PublishLiquidacion(ctx context.Context, c *domain.Comision) error {
	return p.publish(ctx, mq.KeyServicioLiquidado, c.ServicioID, c)
}

func (p *EventPublisher) PublishNotificacionConductor(ctx context.Context, n out.NotificacionConductor) error {
	return p.publish(ctx, mq.KeyNotifyConductor, n.ServicioID, n)
}

func (p *EventPublisher) publish(ctx context.Context, key, servicioID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := p.mq.Publish(ctx, mq.ExchangeServicio, key, body); err != nil {
		p.log.Error(logger.Entry{
			Action:     "event_publish_failed",
			Message:    key,
			ServicioID: servicioID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("publish %s: %w", key, err)
	}

	p.log.Debug(logger.Entry{
		Action:     "event_published",
		Message:    key,
		ServicioID: servicioID,
	})

	return nil
}
