package in_ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/auth"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/ws"
)

// DispatchWSHandler обрабатывает duplex-канал клиентов и водителей.
// Один endpoint на обе роли: роль берется из JWT первого сообщения.
type DispatchWSHandler struct {
	hub          *ws.Hub
	ubicacionUC  in.ActualizarUbicacionUseCase
	mensajeUC    in.EnviarMensajeUseCase
	transicionUC in.TransicionUseCase
	log          *logger.Logger
}

// Observador — read-path проверка подписки на сервис
type Observador interface {
	PuedeObservar(ctx context.Context, servicioID, userID, rol string) bool
}

func NewDispatchWSHandler(
	jwtSvc *auth.JWTService,
	ubicacionUC in.ActualizarUbicacionUseCase,
	mensajeUC in.EnviarMensajeUseCase,
	transicionUC in.TransicionUseCase,
	observador Observador,
	log *logger.Logger,
) *DispatchWSHandler {
	authFunc := func(token string) (userID, role string, err error) {
		claims, err := jwtSvc.ValidateToken(token)
		if err != nil {
			return "", "", err
		}
		switch claims.Role {
		case domain.RolCliente, domain.RolConductor, domain.RolAdmin:
			return claims.UserID, claims.Role, nil
		default:
			return "", "", fmt.Errorf("invalid role: %s", claims.Role)
		}
	}

	hub := ws.NewHub(authFunc, log)

	handler := &DispatchWSHandler{
		hub:          hub,
		ubicacionUC:  ubicacionUC,
		mensajeUC:    mensajeUC,
		transicionUC: transicionUC,
		log:          log,
	}

	hub.SetMessageHandler(handler.handleMessage)
	hub.SetJoinAuthorizer(observador.PuedeObservar)

	return handler
}

// GetHub возвращает WebSocket hub
func (h *DispatchWSHandler) GetHub() *ws.Hub {
	return h.hub
}

// Run запускает цикл хаба (регистрация, heartbeat sweep)
func (h *DispatchWSHandler) Run(ctx context.Context) {
	h.hub.Run(ctx)
}

// ServeWS обрабатывает WebSocket соединение
func (h *DispatchWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

type joinServicePayload struct {
	ServicioID string `json:"servicioId"`
}

type registerDriverPayload struct {
	DriverID string `json:"driverId"`
}

type updateLocationPayload struct {
	ServicioID  string  `json:"servicioId"`
	ConductorID string  `json:"conductorId"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type chatMessagePayload struct {
	ServicioID string `json:"servicioId"`
	Contenido  string `json:"contenido"`
}

// handleMessage маршрутизирует входящие сообщения по типу
func (h *DispatchWSHandler) handleMessage(client *ws.Client, msgType string, data json.RawMessage) error {
	ctx := context.Background()

	switch msgType {
	case "join_service":
		var p joinServicePayload
		if err := json.Unmarshal(data, &p); err != nil || p.ServicioID == "" {
			return fmt.Errorf("join_service: invalid payload")
		}
		h.hub.Join(ctx, p.ServicioID, client)
		return nil

	case "register_driver":
		// driverId из payload игнорировать нельзя слепо: регистрируем
		// только владельца соединения
		var p registerDriverPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("register_driver: invalid payload")
		}
		if client.Role != domain.RolConductor {
			h.log.Warn(logger.Entry{
				Action:  "ws_register_driver_denied",
				Message: "role is not conductor",
				Additional: map[string]any{
					"user_id": client.UserID,
					"role":    client.Role,
				},
			})
			return nil
		}
		if p.DriverID != "" && p.DriverID != client.UserID {
			return fmt.Errorf("register_driver: driver id mismatch")
		}
		h.hub.RegisterConductor(client.UserID, client)
		return nil

	case "update_location":
		var p updateLocationPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("update_location: invalid payload")
		}
		if err := h.ubicacionUC.Execute(ctx, in.ActualizarUbicacionInput{
			ServicioID:  p.ServicioID,
			ConductorID: client.UserID,
			Lat:         p.Lat,
			Lng:         p.Lng,
		}); err != nil {
			// позиции best-effort: ошибка логируется, соединение живет
			h.log.Debug(logger.Entry{
				Action:     "ws_location_rejected",
				Message:    err.Error(),
				ServicioID: p.ServicioID,
			})
		}
		return nil

	case "chat_message":
		var p chatMessagePayload
		if err := json.Unmarshal(data, &p); err != nil || p.Contenido == "" {
			return fmt.Errorf("chat_message: invalid payload")
		}
		if err := h.mensajeUC.Execute(ctx, in.EnviarMensajeInput{
			ServicioID: p.ServicioID,
			EmisorID:   client.UserID,
			EmisorRol:  client.Role,
			Contenido:  p.Contenido,
		}); err != nil {
			h.log.Debug(logger.Entry{
				Action:     "ws_chat_rejected",
				Message:    err.Error(),
				ServicioID: p.ServicioID,
			})
		}
		return nil

	case "pong":
		h.hub.MarkAlive(client)
		return nil

	default:
		h.log.Warn(logger.Entry{
			Action:  "ws_unknown_message_type",
			Message: msgType,
			Additional: map[string]any{
				"user_id": client.UserID,
			},
		})
		return nil
	}
}
