package in

import "context"

// ActualizarUbicacionInput — точка позиции от водителя.
type ActualizarUbicacionInput struct {
	ServicioID  string
	ConductorID string
	Lat         float64
	Lng         float64
}

// ActualizarUbicacionUseCase сохраняет точку и ретранслирует ее подписчикам.
// Позиции приходят часто: здесь нет полной валидации переходов, только
// проверка, что отправитель — назначенный conductor сервиса.
type ActualizarUbicacionUseCase interface {
	Execute(ctx context.Context, input ActualizarUbicacionInput) error
}

// EnviarMensajeInput — сообщение чата по сервису.
type EnviarMensajeInput struct {
	ServicioID string
	EmisorID   string
	EmisorRol  string
	Contenido  string
}

// EnviarMensajeUseCase сохраняет сообщение и ретранслирует его подписчикам.
type EnviarMensajeUseCase interface {
	Execute(ctx context.Context, input EnviarMensajeInput) error
}
