package domain

import "time"

// MensajeChat — сообщение чата между клиентом и водителем по сервису.
// Доставка best-effort, at-most-once: ретраев и подтверждений нет.
type MensajeChat struct {
	ID         string    `json:"id" db:"id"`
	ServicioID string    `json:"servicio_id" db:"servicio_id"`
	EmisorID   string    `json:"emisor_id" db:"emisor_id"`
	Contenido  string    `json:"contenido" db:"contenido"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
