package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/config"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/google/uuid"
)

// LiquidarPagoService сверяет уведомление шлюза с заявкой и создает
// комиссию. Идемпотентность держится на условной вставке журнала:
// transaction id уникален, вставка и штамп на заявке — одна атомарная
// операция репозитория, поэтому дубль webhook'а, пришедший до завершения
// первой записи, тоже поглощается.
type LiquidarPagoService struct {
	servicioRepo  out.ServicioRepository
	conductorRepo out.ConductorRepository
	ledger        out.ComisionLedger
	payouts       out.PayoutGateway
	publisher     out.EventPublisher
	cfg           config.PaymentsConfig
	log           *logger.Logger
}

func NewLiquidarPagoService(
	servicioRepo out.ServicioRepository,
	conductorRepo out.ConductorRepository,
	ledger out.ComisionLedger,
	payouts out.PayoutGateway,
	publisher out.EventPublisher,
	cfg config.PaymentsConfig,
	log *logger.Logger,
) *LiquidarPagoService {
	return &LiquidarPagoService{
		servicioRepo:  servicioRepo,
		conductorRepo: conductorRepo,
		ledger:        ledger,
		payouts:       payouts,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

func (s *LiquidarPagoService) Execute(ctx context.Context, input in.LiquidarPagoInput) error {
	// Неуспешный код — ack без побочных эффектов
	if input.ResponseCode != s.cfg.SuccessCode {
		s.log.Info(logger.Entry{
			Action:  "webhook_ignorado",
			Message: fmt.Sprintf("response code %s", input.ResponseCode),
			Additional: map[string]any{
				"transaction_id": input.TransactionID,
				"order_number":   input.OrderNumber,
			},
		})
		return nil
	}

	serv, err := s.servicioRepo.FindByNumero(ctx, input.OrderNumber)
	if err != nil {
		if errors.Is(err, domain.ErrServicioNotFound) {
			// Устаревшее или чужое уведомление, не ошибка
			s.log.Warn(logger.Entry{
				Action:  "webhook_servicio_desconocido",
				Message: input.OrderNumber,
				Additional: map[string]any{
					"transaction_id": input.TransactionID,
				},
			})
			return nil
		}
		return fmt.Errorf("find servicio by numero: %w", err)
	}

	// Быстрые проверки дублей: штамп на заявке, затем существующая комиссия.
	// Атомарная вставка ниже закрывает гонку между ними.
	if serv.TransactionID != nil && *serv.TransactionID == input.TransactionID {
		s.log.Info(logger.Entry{
			Action:     "webhook_duplicado",
			Message:    "transaction already stamped",
			ServicioID: serv.ID,
		})
		return nil
	}
	if existente, err := s.ledger.FindByServicio(ctx, serv.ID); err == nil && existente != nil {
		s.log.Info(logger.Entry{
			Action:     "webhook_duplicado",
			Message:    "comision already exists",
			ServicioID: serv.ID,
		})
		return nil
	}

	total := serv.MontoCobrado()
	operador, empresa := domain.CalcularComision(total, s.cfg.OperatorPercent)

	now := time.Now().UTC()
	comision := &domain.Comision{
		ID:                 uuid.New().String(),
		ServicioID:         serv.ID,
		TransactionID:      input.TransactionID,
		MontoTotal:         total,
		MontoOperador:      operador,
		MontoEmpresa:       empresa,
		PorcentajeOperador: s.cfg.OperatorPercent,
		PorcentajeEmpresa:  100 - s.cfg.OperatorPercent,
		PagoOperador:       domain.PayoutPendiente,
		PagoEmpresa:        domain.PayoutPendiente,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.ledger.CrearIdempotente(ctx, comision)
	if err != nil {
		return fmt.Errorf("crear comision: %w", err)
	}
	if !created {
		s.log.Info(logger.Entry{
			Action:     "webhook_duplicado",
			Message:    "conditional insert short-circuited",
			ServicioID: serv.ID,
			Additional: map[string]any{
				"transaction_id": input.TransactionID,
			},
		})
		return nil
	}

	s.log.Info(logger.Entry{
		Action:     "comision_creada",
		Message:    input.TransactionID,
		ServicioID: serv.ID,
		Additional: map[string]any{
			"monto_total":    total,
			"monto_operador": operador,
			"monto_empresa":  empresa,
		},
	})

	if err := s.publisher.PublishLiquidacion(ctx, comision); err != nil {
		s.log.Error(logger.Entry{
			Action:     "publish_liquidacion_failed",
			Message:    err.Error(),
			ServicioID: serv.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
	}

	// Запись в журнале — финансовый факт; выплата может догнать позже.
	s.intentarPayout(ctx, serv, comision)

	return nil
}

// ReintentarPayout повторяет выплату по комиссии, застрявшей в pendiente.
// Вызывается consumer'ом очереди liquidación: inline-попытка могла упасть
// на недоступном шлюзе.
func (s *LiquidarPagoService) ReintentarPayout(ctx context.Context, servicioID string) error {
	comision, err := s.ledger.FindByServicio(ctx, servicioID)
	if err != nil {
		return fmt.Errorf("find comision: %w", err)
	}
	if comision == nil || comision.PagoOperador != domain.PayoutPendiente {
		return nil
	}

	serv, err := s.servicioRepo.FindByID(ctx, servicioID)
	if err != nil {
		return err
	}

	s.intentarPayout(ctx, serv, comision)
	return nil
}

// intentarPayout пытается немедленно выплатить оператору. Отказ не
// откатывает комиссию: статус остается pendiente для ручной или
// повторной liquidación.
func (s *LiquidarPagoService) intentarPayout(ctx context.Context, serv *domain.Servicio, comision *domain.Comision) {
	if serv.ConductorID == nil {
		return
	}

	conductor, err := s.conductorRepo.FindByID(ctx, *serv.ConductorID)
	if err != nil || conductor.PayoutToken == nil {
		s.log.Info(logger.Entry{
			Action:     "payout_omitido",
			Message:    "conductor has no payout token",
			ServicioID: serv.ID,
		})
		return
	}

	ref, err := s.payouts.Pagar(ctx, *conductor.PayoutToken, comision.MontoOperador, comision.TransactionID)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:     "payout_failed",
			Message:    err.Error(),
			ServicioID: serv.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"comision_id": comision.ID,
			},
		})
		return
	}

	if err := s.ledger.ActualizarPagoOperador(ctx, comision.ID, domain.PayoutPagado, &ref); err != nil {
		s.log.Error(logger.Entry{
			Action:     "payout_update_failed",
			Message:    err.Error(),
			ServicioID: serv.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	s.log.Info(logger.Entry{
		Action:     "payout_completado",
		Message:    ref,
		ServicioID: serv.ID,
		Additional: map[string]any{
			"monto": comision.MontoOperador,
		},
	})
}
