package domain

import (
	"math"
	"time"
)

// Estados de pago de comisión
const (
	PayoutPendiente  = "pendiente"
	PayoutProcesando = "procesando"
	PayoutPagado     = "pagado"
	PayoutFallido    = "fallido"
)

// Comision — распределение выручки по оплаченному сервису.
// Создается не более одного раза на servicio; transaction id шлюза уникален.
// После статуса pagado запись неизменяема.
type Comision struct {
	ID                 string    `json:"id" db:"id"`
	ServicioID         string    `json:"servicio_id" db:"servicio_id"`
	TransactionID      string    `json:"transaction_id" db:"transaction_id"`
	MontoTotal         float64   `json:"monto_total" db:"monto_total"`
	MontoOperador      float64   `json:"monto_operador" db:"monto_operador"`
	MontoEmpresa       float64   `json:"monto_empresa" db:"monto_empresa"`
	PorcentajeOperador float64   `json:"porcentaje_operador" db:"porcentaje_operador"`
	PorcentajeEmpresa  float64   `json:"porcentaje_empresa" db:"porcentaje_empresa"`
	PagoOperador       string    `json:"pago_operador" db:"pago_operador"`
	PagoEmpresa        string    `json:"pago_empresa" db:"pago_empresa"`
	ReferenciaPago     *string   `json:"referencia_pago,omitempty" db:"referencia_pago"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// CalcularComision делит сумму сервиса: фиксированный процент оператору,
// остаток компании. Суммы округляются до сентаво.
func CalcularComision(total, porcentajeOperador float64) (operador, empresa float64) {
	operador = redondear(total * porcentajeOperador / 100)
	empresa = redondear(total - operador)
	return operador, empresa
}

func redondear(v float64) float64 {
	return math.Round(v*100) / 100
}
