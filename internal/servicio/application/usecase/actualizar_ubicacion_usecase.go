package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/google/uuid"
)

// ActualizarUbicacionService — горячий путь: позиции приходят часто,
// поэтому здесь только проверка отправителя, без полной валидации переходов.
type ActualizarUbicacionService struct {
	servicioRepo out.ServicioRepository
	locationRepo out.LocationRepository
	notifier     out.ServicioNotifier
	log          *logger.Logger
}

func NewActualizarUbicacionService(
	servicioRepo out.ServicioRepository,
	locationRepo out.LocationRepository,
	notifier out.ServicioNotifier,
	log *logger.Logger,
) *ActualizarUbicacionService {
	return &ActualizarUbicacionService{
		servicioRepo: servicioRepo,
		locationRepo: locationRepo,
		notifier:     notifier,
		log:          log,
	}
}

func (s *ActualizarUbicacionService) Execute(ctx context.Context, input in.ActualizarUbicacionInput) error {
	if err := domain.ValidarCoordenadas(input.Lat, input.Lng); err != nil {
		return err
	}

	serv, err := s.servicioRepo.FindByID(ctx, input.ServicioID)
	if err != nil {
		return err
	}

	// Только назначенный conductor может слать позиции по сервису
	if serv.ConductorID == nil || *serv.ConductorID != input.ConductorID {
		return fmt.Errorf("%w: sender is not the assigned conductor", domain.ErrUnauthorized)
	}

	coord := &domain.Coordenada{
		ID:          uuid.New().String(),
		ServicioID:  input.ServicioID,
		ConductorID: input.ConductorID,
		Lat:         input.Lat,
		Lng:         input.Lng,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.locationRepo.SaveCoordenada(ctx, coord); err != nil {
		s.log.Error(logger.Entry{
			Action:     "save_coordenada_failed",
			Message:    err.Error(),
			ServicioID: input.ServicioID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("save coordenada: %w", err)
	}

	s.notifier.NotifyUbicacion(ctx, input.ServicioID, input.Lat, input.Lng)

	return nil
}

// EnviarMensajeService сохраняет сообщение чата и ретранслирует его
// подписчикам сервиса. Доставка at-most-once, без ретраев.
type EnviarMensajeService struct {
	servicioRepo out.ServicioRepository
	mensajeRepo  out.MensajeRepository
	notifier     out.ServicioNotifier
	log          *logger.Logger
}

func NewEnviarMensajeService(
	servicioRepo out.ServicioRepository,
	mensajeRepo out.MensajeRepository,
	notifier out.ServicioNotifier,
	log *logger.Logger,
) *EnviarMensajeService {
	return &EnviarMensajeService{
		servicioRepo: servicioRepo,
		mensajeRepo:  mensajeRepo,
		notifier:     notifier,
		log:          log,
	}
}

func (s *EnviarMensajeService) Execute(ctx context.Context, input in.EnviarMensajeInput) error {
	serv, err := s.servicioRepo.FindByID(ctx, input.ServicioID)
	if err != nil {
		return err
	}

	if !serv.PuedeObservar(input.EmisorID, input.EmisorRol) {
		return fmt.Errorf("%w: sender is not a participant", domain.ErrUnauthorized)
	}

	msg := &domain.MensajeChat{
		ID:         uuid.New().String(),
		ServicioID: input.ServicioID,
		EmisorID:   input.EmisorID,
		Contenido:  input.Contenido,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.mensajeRepo.SaveMensaje(ctx, msg); err != nil {
		s.log.Error(logger.Entry{
			Action:     "save_mensaje_failed",
			Message:    err.Error(),
			ServicioID: input.ServicioID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("save mensaje: %w", err)
	}

	s.notifier.NotifyMensajeChat(ctx, msg)

	return nil
}
