package mq

import (
	"fmt"

	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

// Exchange и routing keys для событий диспетчеризации.
// Очереди notificaciones.* читают воркеры push/SMS — это побочный канал,
// через который офлайн-водители узнают о новых заявках.
const (
	ExchangeServicio = "servicio_topic"

	KeyServicioCreado    = "servicio.creado"
	KeyServicioEstado    = "servicio.estado"
	KeyServicioLiquidado = "servicio.liquidado"
	KeyNotifyConductor   = "notificaciones.conductor"
)

// SetupTopology создает exchanges, queues и bindings
func SetupTopology(mq *RabbitMQ, log *logger.Logger) error {
	ch := mq.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	if err := ch.ExchangeDeclare(
		ExchangeServicio, // name
		"topic",          // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // args
	); err != nil {
		return fmt.Errorf("declare %s: %w", ExchangeServicio, err)
	}

	queues := []string{
		KeyServicioCreado,
		KeyServicioEstado,
		KeyServicioLiquidado,
		KeyNotifyConductor,
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := ch.QueueBind(q, q, ExchangeServicio, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	log.Info(logger.Entry{
		Action:  "topology_setup_complete",
		Message: "all exchanges and queues created",
	})

	return nil
}
