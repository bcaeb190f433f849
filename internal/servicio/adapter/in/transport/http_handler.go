package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

const maxBodySize = 1 << 20 // 1MB

// HTTPHandler обрабатывает HTTP запросы диспетчеризации
type HTTPHandler struct {
	solicitarUC  in.SolicitarServicioUseCase
	transicionUC in.TransicionUseCase
	rankUC       in.RankPendientesUseCase
	log          *logger.Logger
}

func NewHTTPHandler(
	solicitarUC in.SolicitarServicioUseCase,
	transicionUC in.TransicionUseCase,
	rankUC in.RankPendientesUseCase,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		solicitarUC:  solicitarUC,
		transicionUC: transicionUC,
		rankUC:       rankUC,
		log:          log,
	}
}

// RegisterRoutes регистрирует все HTTP маршруты
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	// liveness
	mux.HandleFunc("GET /health", h.handleHealth)

	// заявки
	mux.HandleFunc("POST /servicios", authMiddleware(h.handleSolicitar))
	mux.HandleFunc("GET /servicios/pendientes", authMiddleware(h.handlePendientes))

	// переходы жизненного цикла, 1:1 с событиями машины состояний
	mux.HandleFunc("POST /servicios/{id}/aceptar", authMiddleware(h.transicion(h.transicionUC.Aceptar)))
	mux.HandleFunc("POST /servicios/{id}/en-sitio", authMiddleware(h.transicion(h.transicionUC.MarcarEnSitio)))
	mux.HandleFunc("POST /servicios/{id}/cargando", authMiddleware(h.transicion(h.transicionUC.MarcarCargando)))
	mux.HandleFunc("POST /servicios/{id}/iniciar", authMiddleware(h.transicion(h.transicionUC.Iniciar)))
	mux.HandleFunc("POST /servicios/{id}/completar", authMiddleware(h.transicion(h.transicionUC.Completar)))
	mux.HandleFunc("POST /servicios/{id}/cancelar", authMiddleware(h.transicion(h.transicionUC.Cancelar)))
	mux.HandleFunc("POST /servicios/{id}/confirmar-pago", authMiddleware(h.transicion(h.transicionUC.ConfirmarPago)))

	h.log.Info(logger.Entry{
		Action:  "http_routes_registered",
		Message: "servicio routes registered",
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// SolicitarHTTPRequest — HTTP DTO создания заявки
type SolicitarHTTPRequest struct {
	Categoria           string  `json:"categoria"`
	Subtipo             *string `json:"subtipo,omitempty"`
	RequiereNegociacion bool    `json:"requiere_negociacion"`
	OrigenLat           float64 `json:"origen_lat"`
	OrigenLng           float64 `json:"origen_lng"`
	OrigenDireccion     string  `json:"origen_direccion"`
	DestinoLat          float64 `json:"destino_lat"`
	DestinoLng          float64 `json:"destino_lng"`
	DestinoDireccion    string  `json:"destino_direccion"`
	DestinoExtendido    *string `json:"destino_extendido,omitempty"`
	MetodoPago          string  `json:"metodo_pago"`
}

// handleSolicitar обрабатывает POST /servicios
func (h *HTTPHandler) handleSolicitar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, _, ok := identity(ctx)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req SolicitarHTTPRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			h.respondError(w, http.StatusBadRequest, "empty request body")
			return
		}
		h.log.Error(logger.Entry{
			Action:  "parse_request_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Categoria == "" {
		h.respondError(w, http.StatusBadRequest, "categoria is required")
		return
	}
	if req.OrigenDireccion == "" {
		h.respondError(w, http.StatusBadRequest, "origen_direccion is required")
		return
	}

	output, err := h.solicitarUC.Execute(ctx, in.SolicitarServicioInput{
		ClienteID:           userID,
		Categoria:           req.Categoria,
		Subtipo:             req.Subtipo,
		RequiereNegociacion: req.RequiereNegociacion,
		OrigenLat:           req.OrigenLat,
		OrigenLng:           req.OrigenLng,
		OrigenDireccion:     req.OrigenDireccion,
		DestinoLat:          req.DestinoLat,
		DestinoLng:          req.DestinoLng,
		DestinoDireccion:    req.DestinoDireccion,
		DestinoExtendido:    req.DestinoExtendido,
		MetodoPago:          req.MetodoPago,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, output)
}

// handlePendientes обрабатывает GET /servicios/pendientes
func (h *HTTPHandler) handlePendientes(w http.ResponseWriter, r *http.Request) {
	views, err := h.rankUC.Execute(r.Context())
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}

	// пустой список — валидный ответ, не null
	if views == nil {
		views = []domain.PriorityView{}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"servicios": views})
}

// TransicionHTTPRequest — опциональное тело перехода
type TransicionHTTPRequest struct {
	MontoNegociado *float64 `json:"monto_negociado,omitempty"`
}

// transicion оборачивает метод use case в единый HTTP обработчик перехода
func (h *HTTPHandler) transicion(fn func(ctx context.Context, input in.TransicionInput) (*domain.Servicio, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, role, ok := identity(ctx)
		if !ok {
			h.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		servicioID := r.PathValue("id")
		if servicioID == "" {
			h.respondError(w, http.StatusBadRequest, "servicio id is required")
			return
		}

		input := in.TransicionInput{
			ServicioID: servicioID,
			ActorID:    userID,
			ActorRol:   role,
		}

		// Тело опционально: сумму несет только aceptar заявки с requiere_negociacion
		if r.ContentLength != 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
			var req TransicionHTTPRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				h.respondError(w, http.StatusBadRequest, "invalid request format")
				return
			}
			input.MontoNegociado = req.MontoNegociado
		}

		serv, err := fn(ctx, input)
		if err != nil {
			h.handleUseCaseError(w, err)
			return
		}

		h.respondJSON(w, http.StatusOK, serv)
	}
}

// handleUseCaseError обрабатывает ошибки use case
func (h *HTTPHandler) handleUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrServicioNotFound):
		h.respondError(w, http.StatusNotFound, "servicio not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCoordinates):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.respondError(w, http.StatusForbidden, "forbidden")
	default:
		h.log.Error(logger.Entry{
			Action:  "usecase_error",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondJSON отправляет JSON ответ
func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error(logger.Entry{
			Action:  "encode_response_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}

// respondError отправляет JSON с ошибкой
func (h *HTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
