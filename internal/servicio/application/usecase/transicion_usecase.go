package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

// TransicionService реализует TransicionUseCase: единственный write-path
// для строк servicios, так что проверки легальности обойти нельзя.
type TransicionService struct {
	servicioRepo  out.ServicioRepository
	conductorRepo out.ConductorRepository
	notifier      out.ServicioNotifier
	publisher     out.EventPublisher
	log           *logger.Logger
}

func NewTransicionService(
	servicioRepo out.ServicioRepository,
	conductorRepo out.ConductorRepository,
	notifier out.ServicioNotifier,
	publisher out.EventPublisher,
	log *logger.Logger,
) *TransicionService {
	return &TransicionService{
		servicioRepo:  servicioRepo,
		conductorRepo: conductorRepo,
		notifier:      notifier,
		publisher:     publisher,
		log:           log,
	}
}

func (s *TransicionService) Aceptar(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	// aceptar требует, чтобы у водителя не было текущего назначения
	if input.ActorRol == domain.RolConductor {
		ocupado, err := s.conductorRepo.TieneServicioActivo(ctx, input.ActorID)
		if err != nil {
			return nil, fmt.Errorf("check active servicio: %w", err)
		}
		if ocupado {
			return nil, fmt.Errorf("%w: conductor already has an active servicio", domain.ErrUnauthorized)
		}
	}
	return s.aplicar(ctx, input, domain.EventoAceptar)
}

func (s *TransicionService) MarcarEnSitio(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	return s.aplicar(ctx, input, domain.EventoEnSitio)
}

func (s *TransicionService) MarcarCargando(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	return s.aplicar(ctx, input, domain.EventoCargando)
}

func (s *TransicionService) Iniciar(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	return s.aplicar(ctx, input, domain.EventoIniciar)
}

func (s *TransicionService) Completar(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	return s.aplicar(ctx, input, domain.EventoCompletar)
}

func (s *TransicionService) Cancelar(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	return s.aplicar(ctx, input, domain.EventoCancelar)
}

func (s *TransicionService) ConfirmarPago(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error) {
	return s.aplicar(ctx, input, domain.EventoConfirmarPago)
}

// aplicar — общий путь перехода: load → domain.Aplicar → условный Update →
// fan-out события. Ошибки валидации не оставляют частичных мутаций.
func (s *TransicionService) aplicar(ctx context.Context, input in.TransicionInput, ev domain.Evento) (*domain.Servicio, error) {
	serv, err := s.servicioRepo.FindByID(ctx, input.ServicioID)
	if err != nil {
		return nil, err
	}

	estadoAnterior := serv.Estado

	cambio, err := domain.Aplicar(serv, input.ActorID, input.ActorRol, ev, time.Now().UTC())
	if err != nil {
		s.log.Warn(logger.Entry{
			Action:     "transicion_rechazada",
			Message:    err.Error(),
			ServicioID: input.ServicioID,
			Additional: map[string]any{
				"evento":    string(ev),
				"actor_id":  input.ActorID,
				"actor_rol": input.ActorRol,
				"estado":    estadoAnterior,
			},
		})
		return nil, err
	}

	// Договорная цена фиксируется вместе с принятием заявки
	if ev == domain.EventoAceptar && serv.RequiereNegociacion && input.MontoNegociado != nil {
		serv.MontoNegociado = input.MontoNegociado
	}

	if err := s.servicioRepo.Update(ctx, serv, estadoAnterior); err != nil {
		return nil, err
	}

	s.log.Info(logger.Entry{
		Action:     "transicion_aplicada",
		Message:    fmt.Sprintf("%s: %s -> %s", ev, cambio.EstadoAnterior, cambio.EstadoNuevo),
		ServicioID: serv.ID,
		Additional: map[string]any{
			"actor_id": input.ActorID,
			"numero":   serv.Numero,
		},
	})

	// Рассылка подписчикам сервиса, и больше никому
	s.notifier.NotifyCambioEstado(ctx, serv, cambio)

	if err := s.publisher.PublishCambioEstado(ctx, cambio); err != nil {
		s.log.Error(logger.Entry{
			Action:     "publish_cambio_estado_failed",
			Message:    err.Error(),
			ServicioID: serv.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		// Не возвращаем ошибку: переход уже применен
	}

	return serv, nil
}

// PuedeObservar — read-path для авторизации подписки (join_service).
func (s *TransicionService) PuedeObservar(ctx context.Context, servicioID, userID, rol string) bool {
	serv, err := s.servicioRepo.FindByID(ctx, servicioID)
	if err != nil {
		return false
	}
	return serv.PuedeObservar(userID, rol)
}
