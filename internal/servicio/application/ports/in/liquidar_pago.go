package in

import "context"

// LiquidarPagoInput — уведомление платежного шлюза.
type LiquidarPagoInput struct {
	TransactionID string
	ResponseCode  string
	OrderNumber   string
}

// LiquidarPagoUseCase превращает подтверждение оплаты шлюза в
// идемпотентную запись комиссии и, по возможности, в фактическую выплату.
type LiquidarPagoUseCase interface {
	Execute(ctx context.Context, input LiquidarPagoInput) error

	// ReintentarPayout повторяет выплату по комиссии в статусе pendiente.
	// Для уже выплаченной комиссии — no-op.
	ReintentarPayout(ctx context.Context, servicioID string) error
}
