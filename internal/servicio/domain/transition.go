package domain

import (
	"fmt"
	"time"
)

// Evento перехода жизненного цикла.
type Evento string

const (
	EventoAceptar       Evento = "aceptar"
	EventoEnSitio       Evento = "en_sitio"
	EventoCargando      Evento = "cargando"
	EventoIniciar       Evento = "iniciar"
	EventoCompletar     Evento = "completar"
	EventoCancelar      Evento = "cancelar"
	EventoConfirmarPago Evento = "confirmar_pago"
)

// transiciones — таблица допустимых переходов.
// cancelado достижим только до en_curso; терминальные состояния не покидаются.
var transiciones = map[Evento]struct {
	desde []string
	hacia string
}{
	EventoAceptar:   {desde: []string{EstadoPendiente}, hacia: EstadoAceptado},
	EventoEnSitio:   {desde: []string{EstadoAceptado}, hacia: EstadoConductorEnSitio},
	EventoCargando:  {desde: []string{EstadoConductorEnSitio}, hacia: EstadoCargando},
	EventoIniciar:   {desde: []string{EstadoCargando}, hacia: EstadoEnCurso},
	EventoCompletar: {desde: []string{EstadoEnCurso}, hacia: EstadoCompletado},
	EventoCancelar: {
		desde: []string{EstadoPendiente, EstadoAceptado, EstadoConductorEnSitio, EstadoCargando},
		hacia: EstadoCancelado,
	},
	// confirmar_pago не меняет estado: фиксирует момент подтверждения оплаты
	EventoConfirmarPago: {desde: []string{EstadoEnCurso, EstadoCompletado}, hacia: ""},
}

// CambioEstado — дескриптор события для broadcaster'а.
type CambioEstado struct {
	ServicioID     string    `json:"servicio_id"`
	Evento         Evento    `json:"evento"`
	EstadoAnterior string    `json:"estado_anterior"`
	EstadoNuevo    string    `json:"estado_nuevo"`
	ActorID        string    `json:"actor_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// Aplicar выполняет переход над копией сущности в памяти:
// проверяет авторизацию актора, легальность перехода, проставляет estado,
// conductor и timestamp за один шаг. Никаких частичных мутаций: при ошибке
// сущность не тронута.
func Aplicar(s *Servicio, actorID, actorRol string, ev Evento, now time.Time) (*CambioEstado, error) {
	t, ok := transiciones[ev]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev)
	}

	if err := autorizar(s, actorID, actorRol, ev); err != nil {
		return nil, err
	}

	legal := false
	for _, desde := range t.desde {
		if s.Estado == desde {
			legal = true
			break
		}
	}
	if !legal {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, s.Estado)
	}

	anterior := s.Estado

	switch ev {
	case EventoAceptar:
		// conductor и estado меняются вместе: наблюдать их рассинхронизированными нельзя
		if s.ConductorID != nil {
			return nil, fmt.Errorf("%w: conductor already assigned", ErrInvalidTransition)
		}
		conductor := actorID
		s.ConductorID = &conductor
		s.Estado = t.hacia
		s.AceptadoEn = &now
	case EventoEnSitio:
		s.Estado = t.hacia
		s.EnSitioEn = &now
	case EventoCargando:
		s.Estado = t.hacia
		s.CargandoEn = &now
	case EventoIniciar:
		s.Estado = t.hacia
		s.IniciadoEn = &now
	case EventoCompletar:
		s.Estado = t.hacia
		s.CompletadoEn = &now
	case EventoCancelar:
		s.Estado = t.hacia
		s.CanceladoEn = &now
	case EventoConfirmarPago:
		s.PagoConfirmadoEn = &now
	}

	s.UpdatedAt = now

	return &CambioEstado{
		ServicioID:     s.ID,
		Evento:         ev,
		EstadoAnterior: anterior,
		EstadoNuevo:    s.Estado,
		ActorID:        actorID,
		Timestamp:      now,
	}, nil
}

// autorizar проверяет право актора на событие.
//   - aceptar: любой conductor, пока заявка pendiente и без назначения;
//   - en_sitio/cargando/iniciar/completar: только назначенный conductor;
//   - cancelar/confirmar_pago: cliente заявки; admin может корректировать
//     любой переход, кроме aceptar.
func autorizar(s *Servicio, actorID, actorRol string, ev Evento) error {
	// aceptar назначает актора исполнителем, поэтому admin-обход
	// на него не распространяется
	if ev == EventoAceptar {
		if actorRol != RolConductor {
			return fmt.Errorf("%w: only a conductor can accept", ErrUnauthorized)
		}
		return nil
	}

	if actorRol == RolAdmin {
		return nil
	}

	switch ev {
	case EventoEnSitio, EventoCargando, EventoIniciar, EventoCompletar:
		if s.ConductorID == nil || *s.ConductorID != actorID {
			return fmt.Errorf("%w: actor is not the assigned conductor", ErrUnauthorized)
		}
		return nil

	case EventoCancelar, EventoConfirmarPago:
		if s.ClienteID != actorID {
			return fmt.Errorf("%w: actor is not the client", ErrUnauthorized)
		}
		return nil
	}

	return fmt.Errorf("%w: event %q", ErrUnauthorized, ev)
}

// PuedeObservar — read-path проверка для подписки на обновления:
// только cliente заявки или назначенный conductor (и admin).
func (s *Servicio) PuedeObservar(userID, rol string) bool {
	if rol == RolAdmin {
		return true
	}
	if s.ClienteID == userID {
		return true
	}
	return s.ConductorID != nil && *s.ConductorID == userID
}
