package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

// RankPendientesService — тонкая обертка над чистым ранкером:
// загружает pendiente-заявки и пересчитывает представление на каждый вызов.
type RankPendientesService struct {
	servicioRepo out.ServicioRepository
	log          *logger.Logger
}

func NewRankPendientesService(servicioRepo out.ServicioRepository, log *logger.Logger) *RankPendientesService {
	return &RankPendientesService{servicioRepo: servicioRepo, log: log}
}

func (s *RankPendientesService) Execute(ctx context.Context) ([]domain.PriorityView, error) {
	pendientes, err := s.servicioRepo.ListPendientes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pendientes: %w", err)
	}

	views := domain.RankPendientes(pendientes, time.Now().UTC())

	s.log.Debug(logger.Entry{
		Action:  "pendientes_ranked",
		Message: fmt.Sprintf("%d servicios", len(views)),
	})

	return views, nil
}
