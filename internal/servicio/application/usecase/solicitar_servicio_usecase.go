package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/google/uuid"
)

// SolicitarServicioService создает заявку и выполняет dispatch:
// вычисляет подходящих водителей, шлет new_request живым соединениям
// (best-effort) и всегда публикует событие побочного канала, чтобы
// офлайн-водители узнали о заявке через push/SMS.
type SolicitarServicioService struct {
	servicioRepo  out.ServicioRepository
	conductorRepo out.ConductorRepository
	notifier      out.ServicioNotifier
	publisher     out.EventPublisher
	log           *logger.Logger
}

func NewSolicitarServicioService(
	servicioRepo out.ServicioRepository,
	conductorRepo out.ConductorRepository,
	notifier out.ServicioNotifier,
	publisher out.EventPublisher,
	log *logger.Logger,
) *SolicitarServicioService {
	return &SolicitarServicioService{
		servicioRepo:  servicioRepo,
		conductorRepo: conductorRepo,
		notifier:      notifier,
		publisher:     publisher,
		log:           log,
	}
}

func (s *SolicitarServicioService) Execute(ctx context.Context, input in.SolicitarServicioInput) (*in.SolicitarServicioOutput, error) {
	if err := domain.ValidarCoordenadas(input.OrigenLat, input.OrigenLng); err != nil {
		return nil, err
	}
	if err := domain.ValidarCoordenadas(input.DestinoLat, input.DestinoLng); err != nil {
		return nil, err
	}

	metodo := input.MetodoPago
	if !esMetodoValido(metodo) {
		metodo = domain.PagoEfectivo
	}

	distancia := calcularDistancia(input.OrigenLat, input.OrigenLng, input.DestinoLat, input.DestinoLng)
	costo := calcularCosto(distancia, input.Categoria)

	now := time.Now().UTC()
	serv := &domain.Servicio{
		ID:                  uuid.New().String(),
		Numero:              generarNumero(now),
		ClienteID:           input.ClienteID,
		Categoria:           input.Categoria,
		Subtipo:             input.Subtipo,
		RequiereNegociacion: input.RequiereNegociacion,
		OrigenLat:           input.OrigenLat,
		OrigenLng:           input.OrigenLng,
		OrigenDireccion:     input.OrigenDireccion,
		DestinoLat:          input.DestinoLat,
		DestinoLng:          input.DestinoLng,
		DestinoDireccion:    input.DestinoDireccion,
		DestinoExtendido:    input.DestinoExtendido,
		CostoTotal:          costo,
		MetodoPago:          metodo,
		Estado:              domain.EstadoPendiente,
		SolicitadoEn:        now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.servicioRepo.Create(ctx, serv); err != nil {
		s.log.Error(logger.Entry{
			Action:  "create_servicio_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"cliente_id": input.ClienteID,
				"categoria":  input.Categoria,
			},
		})
		return nil, fmt.Errorf("create servicio: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:     "servicio_creado",
		Message:    serv.Numero,
		ServicioID: serv.ID,
		Additional: map[string]any{
			"cliente_id":     input.ClienteID,
			"categoria":      input.Categoria,
			"costo_estimado": costo,
			"distancia_km":   distancia,
		},
	})

	avisados := s.despachar(ctx, serv)

	if err := s.publisher.PublishServicioCreado(ctx, serv); err != nil {
		s.log.Error(logger.Entry{
			Action:     "publish_servicio_creado_failed",
			Message:    err.Error(),
			ServicioID: serv.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		// Не возвращаем ошибку: заявка уже создана
	}

	return &in.SolicitarServicioOutput{
		ServicioID:          serv.ID,
		Numero:              serv.Numero,
		Estado:              serv.Estado,
		CostoEstimado:       costo,
		ConductoresAvisados: avisados,
	}, nil
}

// despachar — fan-out новой заявки подходящим водителям.
// Отсутствие живого соединения — пропуск, не ошибка; событие побочного
// канала публикуется для каждого подходящего водителя в любом случае.
func (s *SolicitarServicioService) despachar(ctx context.Context, serv *domain.Servicio) int {
	conductores, err := s.conductorRepo.FindDisponiblesPorCategoria(ctx, serv.Categoria)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:     "find_conductores_failed",
			Message:    err.Error(),
			ServicioID: serv.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return 0
	}

	now := time.Now().UTC()
	score := domain.CalcularScore(serv, now)
	view := domain.PriorityView{
		Servicio:      serv,
		Nivel:         domain.CalcularNivel(serv, now, score),
		Score:         score,
		EsperaMinutos: domain.EsperaMinutos(serv, now),
		DisplayID:     domain.Prefijo(serv.Categoria) + "-001",
	}

	entregados := 0
	for _, c := range conductores {
		if s.notifier.NotifyNuevaSolicitud(ctx, c.ID, view) {
			entregados++
		}

		n := out.NotificacionConductor{
			ConductorID: c.ID,
			ServicioID:  serv.ID,
			Numero:      serv.Numero,
			Categoria:   serv.Categoria,
			Mensaje:     "Nueva solicitud de servicio disponible",
		}
		if err := s.publisher.PublishNotificacionConductor(ctx, n); err != nil {
			s.log.Error(logger.Entry{
				Action:     "publish_notificacion_failed",
				Message:    err.Error(),
				ServicioID: serv.ID,
				Error:      &logger.ErrObj{Msg: err.Error()},
				Additional: map[string]any{
					"conductor_id": c.ID,
				},
			})
		}
	}

	s.log.Info(logger.Entry{
		Action:     "servicio_despachado",
		Message:    fmt.Sprintf("%d conductores, %d online", len(conductores), entregados),
		ServicioID: serv.ID,
	})

	return len(conductores)
}

func esMetodoValido(m string) bool {
	switch m {
	case domain.PagoEfectivo, domain.PagoTarjeta, domain.PagoSeguro, domain.PagoPartner:
		return true
	default:
		return false
	}
}

// calcularDistancia — формула Haversine, км
func calcularDistancia(lat1, lon1, lat2, lon2 float64) float64 {
	const radioTierra = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radioTierra * c
}

// calcularCosto — примерная стоимость по категории
func calcularCosto(distanciaKm float64, categoria string) float64 {
	base := 800.0
	porKm := 60.0

	switch categoria {
	case domain.CategoriaExtraccion, domain.CategoriaAccidente, domain.CategoriaVolcadura:
		base = 1500.0
		porKm = 90.0
	case domain.CategoriaRemolquePesado, domain.CategoriaMaquinaria, domain.CategoriaEspecializado:
		base = 2000.0
		porKm = 120.0
	}

	costo := base + distanciaKm*porKm
	return math.Round(costo*100) / 100
}

// generarNumero генерирует номер заявки: референс для клиента и для
// OrderNumber платежного шлюза.
func generarNumero(now time.Time) string {
	return fmt.Sprintf("SRV-%s-%06d", now.Format("20060102"), now.UnixNano()%1000000)
}
