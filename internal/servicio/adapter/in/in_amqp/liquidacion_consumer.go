package inamqp

import (
	"context"
	"encoding/json"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/mq"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LiquidacionMessage — событие servicio.liquidado
type LiquidacionMessage struct {
	ServicioID   string `json:"servicio_id"`
	PagoOperador string `json:"pago_operador"`
}

// LiquidacionConsumer дочитывает очередь liquidación и догоняет выплаты,
// оставшиеся в pendiente после inline-попытки. Повторная доставка
// безопасна: выплаченная комиссия — no-op.
type LiquidacionConsumer struct {
	mqConn     *mq.RabbitMQ
	liquidarUC in.LiquidarPagoUseCase
	log        *logger.Logger
}

func NewLiquidacionConsumer(mqConn *mq.RabbitMQ, liquidarUC in.LiquidarPagoUseCase, log *logger.Logger) *LiquidacionConsumer {
	return &LiquidacionConsumer{
		mqConn:     mqConn,
		liquidarUC: liquidarUC,
		log:        log,
	}
}

// Start запускает consumer очереди servicio.liquidado
func (c *LiquidacionConsumer) Start(ctx context.Context) error {
	return c.mqConn.Consume(ctx, mq.KeyServicioLiquidado, "liquidacion-consumer", c.handle)
}

func (c *LiquidacionConsumer) handle(d amqp.Delivery) {
	var msg LiquidacionMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.ServicioID == "" {
		c.log.Error(logger.Entry{
			Action:  "liquidacion_message_invalid",
			Message: string(d.Body),
		})
		_ = d.Nack(false, false)
		return
	}

	if err := c.liquidarUC.ReintentarPayout(context.Background(), msg.ServicioID); err != nil {
		c.log.Error(logger.Entry{
			Action:     "payout_retry_failed",
			Message:    err.Error(),
			ServicioID: msg.ServicioID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		// requeue не делаем: следующее liquidación-событие или ручной
		// разбор подберут хвост
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}
